package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/packfolio/concierge"
	"github.com/packfolio/concierge/internal/config"
	"github.com/packfolio/concierge/internal/presentation/tui"
	"github.com/packfolio/concierge/pkg/engine"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant in your terminal",
	Long:  `Starts an interactive chat session against the configured shop and oracle. Type "reset" to start over, "exit" to quit.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		flow, _ := cmd.Flags().GetString("flow")

		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		eng, _, err := buildApp(cfg)
		if err != nil {
			fmt.Printf("Error initializing concierge: %v\n", err)
			os.Exit(1)
		}

		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		render := tui.NewRenderer()
		if interactive {
			tui.PrintBanner(strings.TrimSpace(concierge.Version))
		}

		sessionID := uuid.NewString()
		ctx := context.Background()
		reader := bufio.NewReader(os.Stdin)

		turn := func(message string) bool {
			body, _ := json.Marshal(engine.Request{Message: message, Flow: flow})
			env, err := eng.Handle(ctx, sessionID, body)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return false
			}
			if interactive {
				if out, err := render(env.Reply); err == nil {
					fmt.Print(out)
					return env.DraftOrder == nil
				}
			}
			fmt.Println(env.Reply)
			return env.DraftOrder == nil
		}

		// First turn greets and asks the opening question.
		if !turn("hi") {
			return
		}

		for {
			if interactive {
				fmt.Print("> ")
			}
			text, err := reader.ReadString('\n')
			if err != nil {
				fmt.Println()
				return
			}
			input := strings.TrimSpace(text)
			if input == "exit" || input == "quit" {
				fmt.Println("Bye!")
				return
			}
			if !turn(input) {
				// Order placed; the conversation is complete.
				return
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("flow", "f", "", "Flow to start with (direct_sales, package_order, brand_launch, consultation)")
}
