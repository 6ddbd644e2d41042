package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/app"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/config"
)

var (
	cfgFile string
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "travel",
	Short: "Travel destination recommender",
	Long: `travel learns which destinations people chose for a month, season, budget,
activity and temperature, and recommends the most likely places for new trips.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if skipAppSetup(cmd) {
			return nil
		}

		var (
			cfg *config.Config
			err error
		)
		if cfgFile != "" {
			cfg, err = config.LoadFile(cfgFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg.Version = version
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := app.ConfigureLogging(cfg); err != nil {
			return err
		}

		appInstance, err := app.NewApp(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}

		ctx := context.WithValue(cmd.Context(), appKey, appInstance)
		cmd.SetContext(ctx)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if a, err := GetAppFromContext(cmd.Context()); err == nil {
			return a.Close()
		}
		return nil
	},
}

// skipAppSetup reports whether cmd runs without config or stores: the bare
// root command, help and version.
func skipAppSetup(cmd *cobra.Command) bool {
	if !cmd.HasParent() {
		return true
	}
	switch cmd.Name() {
	case "help", "version":
		return true
	}
	return false
}

// Execute runs the root command
func Execute(v string) {
	if v != "" {
		version = v
	}
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type contextKey string

const appKey contextKey = "app"

// GetAppFromContext returns the app built by the root command
func GetAppFromContext(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application instance not found in context")
	}
	return appInstance, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("travel %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml or $HOME/.travel/config.yaml)")
	rootCmd.AddCommand(versionCmd)
}
