package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/engine"
)

var (
	recommendFlags   recordFlags
	recommendOffline bool
	recommendTop     int
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend destinations for a trip",
	Long: `Ranks the trained places for the given trip context. Without --temperature the
current weather is looked up unless --offline is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		r := recommendFlags.record(cmd)
		if !recommendOffline {
			fillWeather(cmd, appInstance.Weather, &r, recommendFlags.city)
		}

		k := appInstance.Engine.TopK()
		if recommendTop > 0 {
			k = recommendTop
		}

		p, err := appInstance.Engine.LoadPredictor()
		if err != nil {
			if errors.Is(err, engine.ErrUntrained) {
				printSuggestions(nil)
				return nil
			}
			return fmt.Errorf("load model: %w", err)
		}
		suggestions, err := engine.Suggest(p, r, k)
		if err != nil {
			return fmt.Errorf("recommend: %w", err)
		}
		printSuggestions(suggestions)
		return nil
	},
}

func init() {
	recommendFlags.register(recommendCmd)
	recommendCmd.Flags().BoolVar(&recommendOffline, "offline", false, "skip the live weather lookup")
	recommendCmd.Flags().IntVar(&recommendTop, "top", 0, "number of places to show (default recommend.top_k)")
	rootCmd.AddCommand(recommendCmd)
}
