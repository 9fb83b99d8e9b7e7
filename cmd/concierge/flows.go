package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/packfolio/concierge/internal/presentation/graph"
	"github.com/packfolio/concierge/pkg/charter"
	"github.com/packfolio/concierge/pkg/domain"
)

var flowsCmd = &cobra.Command{
	Use:   "flows [flow]",
	Short: "List the conversation flows, or print one as a Mermaid diagram",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := charter.NewRegistry()

		if len(args) == 0 {
			for _, flow := range registry.Flows() {
				c, _ := registry.ForFlow(flow)
				fmt.Printf("%-15s %s (v%d, %d steps)\n", flow, c.Meta.Title, c.Meta.Version, len(c.Chain))
			}
			return nil
		}

		c, ok := registry.ForFlow(domain.Flow(args[0]))
		if !ok {
			return fmt.Errorf("unknown flow: %q", args[0])
		}
		fmt.Println(graph.GenerateMermaid(c, nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(flowsCmd)
}
