package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/haeyeon/festabot/internal/config"
	"github.com/haeyeon/festabot/pkg/log"
)

var (
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "festabot",
	Short: "Festabot — Seoul cultural event recommendation chatbot",
	Long:  `Festabot recommends Seoul festivals and cultural events through a conversational API.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	isDebug := debug || config.IsDebug()
	return log.NewContextWithLogger(ctx, isDebug)
}
