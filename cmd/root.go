package cmd

import (
	"fmt"
	"log"
	"os"

	"BeatWave/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "beatwave",
	Short: "BeatWave is a marketplace for audio beats.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting BeatWave server...")
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
