package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/young1lin/scout/internal/agent"
	"github.com/young1lin/scout/pkg/logger"
)

var quickCmd = &cobra.Command{
	Use:   "quick [topic]",
	Short: "Quick search with a plain-text answer",
	Long: `Runs a smaller research pass and prints an unstructured text
summary. With a topic argument it answers once and exits; without one it
drops into a minimal prompt loop.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustSetup()
		defer logger.Sync()

		a := agent.New(cfg)

		if len(args) > 0 {
			query := strings.Join(args, " ")
			summary, err := a.QuickSearch(context.Background(), query)
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				os.Exit(1)
			}
			fmt.Println(summary)
			return
		}

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("\nquick> ")
			if !scanner.Scan() {
				fmt.Println()
				return
			}

			query := strings.TrimSpace(scanner.Text())
			if query == "" {
				continue
			}
			if isQuit(query) {
				return
			}

			summary, err := a.QuickSearch(context.Background(), query)
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				continue
			}
			fmt.Println()
			fmt.Println(summary)
		}
	},
}
