package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "snaptoflash",
		Short:        "SnapToFlash backend relay",
		Long:         "Turns photographed study pages into Anki note candidates using a vision-capable LLM.",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to an optional config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("log-level", "", "Override log.level (debug, info, warn, error)")

	rootCmd.AddCommand(
		serveCmd(),
		analyzeCmd(),
	)

	// serve is the default
	rootCmd.RunE = serveCmd().RunE

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
