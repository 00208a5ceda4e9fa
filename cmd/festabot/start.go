package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/haeyeon/festabot/pkg/log"
	"github.com/haeyeon/festabot/pkg/srv"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Festabot services",
	Long:  `Initializes and starts the HTTP API, the event feed collector and the embedding worker.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		// logger setup
		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting festabot")

		services := NewServices(ctx)

		srv.StartServices(ctx, services)

		// Wait for shutdown signal
		srv.ShutdownServices(ctx, services)
		logger.Info().Msg("festabot has been shut down gracefully")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
