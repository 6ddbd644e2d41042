package cmd

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/engine"
)

var planFlags recordFlags

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Record a trip, retrain and recommend destinations",
	Long: `Runs the full loop for one trip: looks up the live weather, stores the trip
(labelled with the current top prediction unless --place is given), retrains on
every stored record and prints the new recommendations.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		r := planFlags.record(cmd)
		fillWeather(cmd, appInstance.Weather, &r, planFlags.city)

		prediction, err := appInstance.Engine.Label(&r)
		if err != nil {
			return fmt.Errorf("predict: %w", err)
		}
		if err := appInstance.Records.Add(ctx, &r); err != nil {
			return fmt.Errorf("store trip: %w", err)
		}
		if prediction != "" {
			fmt.Printf("%s trip stored (predicted %s)\n", color.GreenString("✓"), prediction)
		} else {
			fmt.Printf("%s trip stored\n", color.GreenString("✓"))
		}

		report, err := appInstance.Retrainer.Retrain(ctx)
		switch {
		case errors.Is(err, engine.ErrEmptyTrainingSet):
			color.Yellow("No labelled trips yet, skipping training.")
		case err != nil:
			return fmt.Errorf("train: %w", err)
		default:
			fmt.Printf("Trained on %d trips across %d places (loss %.4f)\n",
				report.Balanced, report.VocabularySize, report.Loss)
		}

		suggestions, err := appInstance.Engine.Suggest(r)
		if err != nil {
			return fmt.Errorf("recommend: %w", err)
		}
		printSuggestions(suggestions)
		return nil
	},
}

func init() {
	planFlags.register(planCmd)
	rootCmd.AddCommand(planCmd)
}
