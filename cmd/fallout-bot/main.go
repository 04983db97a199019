package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/debnet/fallout-bot/botservice"
)

var rootCmd = &cobra.Command{
	Use:   "fallout-bot",
	Short: "Discord game master bot backed by a Fallout rules API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return botservice.Run()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
