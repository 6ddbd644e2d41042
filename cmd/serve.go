package cmd

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/server"
)

var (
	servePort     int
	servePortScan int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		cfg := *appInstance.Config

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		availablePort, err := findAvailablePort(port, servePortScan)
		if err != nil {
			return err
		}
		if availablePort != port {
			log.Warnf("Port %d in use, using port %d instead", port, availablePort)
		}
		cfg.Server.Port = availablePort

		srv := server.New(cfg, appInstance.Engine, appInstance.Records, appInstance.Retrainer, appInstance.Queue())

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
		case sig := <-stop:
			log.Infof("Received %v signal, shutting down...", sig)
			if err := srv.Stop(); err != nil {
				log.Errorf("Error during shutdown: %v", err)
			}
		}
		return nil
	},
}

// findAvailablePort finds an available port, starting from the given port.
// If the port is in use, it tries subsequent ports up to maxAttempts times.
func findAvailablePort(startPort int, maxAttempts int) (int, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	for i := 0; i < maxAttempts; i++ {
		port := startPort + i
		listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err == nil {
			listener.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port found after %d attempts starting from %d", maxAttempts, startPort)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 5000, "HTTP server port (default server.port)")
	serveCmd.Flags().IntVar(&servePortScan, "port-attempts", 1, "ports to try upward from --port when it is in use")
	rootCmd.AddCommand(serveCmd)
}
