package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/models"
)

var recordsJSON bool

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List stored trips",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		records, err := appInstance.Records.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list records: %w", err)
		}

		if recordsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(models.UserDataResponse{Data: records})
		}

		if len(records) == 0 {
			fmt.Println("No records found.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Month", "Season", "Budget", "Activity", "Temp", "Weather", "Group", "Place", "Created At"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, r := range records {
			table.Append([]string{
				r.Month,
				r.Season,
				r.Budget,
				r.ActivityPreference,
				formatTemperature(r.Temperature),
				r.Weather,
				formatGroupSize(r.GroupSize),
				r.SuggestedPlace,
				r.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		table.Render()
		fmt.Printf("%d records\n", len(records))
		return nil
	},
}

func init() {
	recordsCmd.Flags().BoolVar(&recordsJSON, "json", false, "print the records as JSON")
	rootCmd.AddCommand(recordsCmd)
}
