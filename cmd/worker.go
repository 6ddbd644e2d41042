package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/tasks"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background retrain worker",
	Long:  `Starts the asynq worker that processes queued retrain jobs, one at a time.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		cfg := appInstance.Config
		if cfg.Redis.Address == "" {
			return fmt.Errorf("redis.address is required to run the worker")
		}

		srv := asynq.NewServer(
			asynq.RedisClientOpt{
				Addr:     cfg.Redis.Address,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			},
			worker.ServerConfig(),
		)

		mux := asynq.NewServeMux()
		worker.RegisterHandlers(mux, appInstance.Retrainer)

		log.Infof("Starting worker on queue %q", tasks.QueueTraining)
		if err := srv.Start(mux); err != nil {
			return fmt.Errorf("failed to start worker: %w", err)
		}

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
		<-shutdown

		log.Info("Shutdown signal received, stopping worker...")
		srv.Shutdown()
		log.Info("Worker shutdown complete.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
