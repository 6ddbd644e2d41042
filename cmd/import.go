package cmd

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/engine"
)

var importTrain bool

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Bulk-load trips from a CSV file",
	Long: `Appends every row of a CSV file to the record store. The header row names the
columns: Month, Season, Budget, Activity_Preference, Temperature, Weather,
Group_Size, Suggested_Place.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		res, err := appInstance.Importer.ImportFile(cmd.Context(), args[0])
		if err != nil {
			if res != nil && res.Inserted > 0 {
				color.Yellow("%d records were inserted before the failure", res.Inserted)
			}
			return err
		}

		fmt.Printf("%s %d records inserted\n", color.GreenString("✓"), res.Inserted)
		for _, s := range res.Skipped {
			fmt.Printf("  - %s: %v\n", color.RedString("SKIPPED"), s)
		}

		if !importTrain {
			return nil
		}
		report, err := appInstance.Retrainer.Retrain(cmd.Context())
		if errors.Is(err, engine.ErrEmptyTrainingSet) {
			color.Yellow("No labelled trips to train on.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("training failed: %w", err)
		}
		fmt.Printf("Trained on %d trips across %d places\n", report.Balanced, report.VocabularySize)
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importTrain, "train", false, "retrain after importing")
	rootCmd.AddCommand(importCmd)
}
