package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/packfolio/concierge/internal/config"
	"github.com/packfolio/concierge/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio",
	Long:  `Exposes the assistant as an MCP "chat" tool so agent hosts can drive sales conversations.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		eng, logger, err := buildApp(cfg)
		if err != nil {
			fmt.Printf("Error initializing concierge: %v\n", err)
			os.Exit(1)
		}

		logger.Info("starting MCP server on stdio")
		if err := mcp.NewServer(eng).ServeStdio(); err != nil {
			fmt.Printf("MCP server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
