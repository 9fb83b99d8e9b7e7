package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "concierge",
	Short: "Concierge is a conversational packaging sales assistant",
	Long:  `Concierge drives multi-turn sales conversations: guided flows, AI-backed catalog matching, and draft order creation against your shop.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "concierge.yaml", "Path to the configuration file")
}
