package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/young1lin/scout/internal/agent"
	"github.com/young1lin/scout/internal/config"
	"github.com/young1lin/scout/internal/models"
	"github.com/young1lin/scout/internal/telemetry"
	"github.com/young1lin/scout/pkg/logger"
)

var (
	Version   = "dev"
	BuildDate = "unknown"
)

var (
	cfgFile    string
	maxResults int
	showVer    bool
)

var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "LLM-powered research agent",
	Long: `A research agent that takes a natural-language topic, drives an
LLM with web search, webpage fetch and content analysis tools, and
returns a structured summary with key findings and sources.`,
	Run: func(cmd *cobra.Command, args []string) {
		if showVer {
			fmt.Printf("scout %s (built %s)\n", Version, BuildDate)
			return
		}

		cfg := mustSetup()
		defer logger.Sync()

		a := agent.New(cfg)
		runResearchLoop(cfg, a)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().IntVarP(&maxResults, "max-results", "n", 0, "max search results per query (overrides config)")
	rootCmd.Flags().BoolVarP(&showVer, "version", "v", false, "show version")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(quickCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// mustSetup loads config, initializes logging and telemetry, and enforces
// mandatory settings. A missing LLM key is fatal; missing optional keys just
// degrade features.
func mustSetup() *config.Config {
	cfg := config.Load(cfgFile)

	if maxResults > 0 {
		cfg.Agent.MaxSearchResults = maxResults
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}

	telemetry.Init(&cfg.Telemetry)

	logger.Info("scout initialized",
		zap.String("version", Version),
		zap.String("model", cfg.LLM.Model),
		zap.Bool("telemetry", telemetry.Enabled()),
	)

	return cfg
}

// runResearchLoop is the interactive research mode
func runResearchLoop(cfg *config.Config, a *agent.Agent) {
	fmt.Println("Research Agent - interactive mode")
	fmt.Println("Enter a topic to research, or 'quit' to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nresearch> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}

		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if isQuit(query) {
			fmt.Println("Goodbye!")
			return
		}

		fmt.Printf("\nResearching: %s\n", query)
		fmt.Println("Please wait while I gather and analyze information...")

		findings, err := a.Research(context.Background(), query, cfg.Agent.MaxSearchResults)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nError during research: %v\nPlease try again with a different query.\n", err)
			continue
		}

		printFindings(findings)
	}
}

func isQuit(input string) bool {
	switch strings.ToLower(input) {
	case "quit", "exit", "q":
		return true
	}
	return false
}

func printFindings(f *models.ResearchFindings) {
	sep := strings.Repeat("=", 70)

	fmt.Println()
	fmt.Println(sep)
	fmt.Println("RESEARCH RESULTS")
	fmt.Println(sep)
	fmt.Printf("\nQuery: %s\n", f.Query)
	fmt.Printf("\nSummary:\n%s\n", f.Summary)
	fmt.Println("\nKey Findings:")
	for i, finding := range f.KeyFindings {
		fmt.Printf("  %d. %s\n", i+1, finding)
	}
	fmt.Println("\nSources:")
	if len(f.Sources) == 0 {
		fmt.Println("  (none)")
	}
	for i, source := range f.Sources {
		fmt.Printf("  %d. %s\n", i+1, source)
	}
	fmt.Printf("\nCompleted at: %s\n", f.Timestamp)
	fmt.Println(sep)
}
