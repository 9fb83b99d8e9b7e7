package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/packfolio/concierge"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of concierge",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("concierge version %s\n", strings.TrimSpace(concierge.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
