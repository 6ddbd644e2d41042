package cmd

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/engine"
)

var trainAsync bool

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Retrain the recommender on every stored trip",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		if trainAsync {
			if appInstance.Jobs == nil {
				return fmt.Errorf("--async needs redis.address to be configured")
			}
			if err := appInstance.Jobs.EnqueueRetrain(cmd.Context(), "cli"); err != nil {
				return err
			}
			fmt.Println("Retrain queued.")
			return nil
		}

		report, err := appInstance.Retrainer.Retrain(cmd.Context())
		if errors.Is(err, engine.ErrEmptyTrainingSet) {
			color.Yellow("No labelled trips in the store, nothing to train on.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("training failed: %w", err)
		}

		fmt.Println(color.GreenString("Training complete"))
		fmt.Printf("  places:    %d\n", report.VocabularySize)
		fmt.Printf("  records:   %d\n", report.Records)
		fmt.Printf("  balanced:  %d (%d per place)\n", report.Balanced, report.PerLabel)
		fmt.Printf("  epochs:    %d\n", report.Epochs)
		fmt.Printf("  loss:      %.4f\n", report.Loss)
		fmt.Printf("  took:      %s\n", report.Duration)
		fmt.Printf("  artifacts: %s, %s\n", appInstance.Engine.Artifacts().VocabularyPath, appInstance.Engine.Artifacts().ModelPath)
		return nil
	},
}

func init() {
	trainCmd.Flags().BoolVar(&trainAsync, "async", false, "queue the retrain for the worker instead of running it here")
	rootCmd.AddCommand(trainCmd)
}
