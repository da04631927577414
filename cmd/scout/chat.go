package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/young1lin/scout/internal/agent"
	"github.com/young1lin/scout/internal/storage"
	"github.com/young1lin/scout/pkg/logger"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive research with persistent history",
	Long: `Like the default interactive mode, but every completed research run
is saved. Extra commands: 'history' lists recent runs, 'show <id>'
prints one, 'clear' wipes the history.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustSetup()
		defer logger.Sync()

		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0755); err != nil {
			fmt.Fprintln(os.Stderr, "failed to create data directory:", err)
			os.Exit(1)
		}

		store, err := storage.NewHistoryStore(cfg.Storage.Path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to open history store:", err)
			os.Exit(1)
		}
		defer store.Close()

		a := agent.New(cfg)
		runChatLoop(cfg.Agent.MaxSearchResults, a, store)
	},
}

func runChatLoop(maxResults int, a *agent.Agent, store *storage.HistoryStore) {
	fmt.Println("Research Agent - chat mode")
	fmt.Println("Enter a topic, or: history | show <id> | clear | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nchat> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if isQuit(input) {
			fmt.Println("Goodbye!")
			return
		}

		switch {
		case strings.EqualFold(input, "history"):
			showHistory(store)
			continue
		case strings.EqualFold(input, "clear"):
			if err := store.Clear(); err != nil {
				fmt.Fprintln(os.Stderr, "failed to clear history:", err)
			} else {
				fmt.Println("History cleared.")
			}
			continue
		case strings.HasPrefix(strings.ToLower(input), "show "):
			showEntry(store, strings.TrimSpace(input[5:]))
			continue
		}

		fmt.Printf("\nResearching: %s\n", input)

		findings, err := a.Research(context.Background(), input, maxResults)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nError during research: %v\n", err)
			continue
		}

		id := "res_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
		if err := store.Put(id, findings); err != nil {
			logger.Warn("failed to persist findings", zap.Error(err))
		} else {
			fmt.Printf("(saved as %s)\n", id)
		}

		printFindings(findings)
	}
}

func showHistory(store *storage.HistoryStore) {
	entries, err := store.List(10)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to list history:", err)
		return
	}
	if len(entries) == 0 {
		fmt.Println("No history yet.")
		return
	}
	for _, e := range entries {
		fmt.Printf("  %s  %s  %s\n", e.ID, e.Findings.Timestamp, e.Findings.Query)
	}
}

func showEntry(store *storage.HistoryStore, id string) {
	findings, ok := store.Get(id)
	if !ok {
		fmt.Printf("No entry with ID %s\n", id)
		return
	}
	printFindings(findings)
}
