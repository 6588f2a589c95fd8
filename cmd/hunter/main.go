// Package main is the CLI entry point for hunter.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soclab/hunter/internal/analyzer"
	"github.com/soclab/hunter/internal/assistant"
	"github.com/soclab/hunter/internal/catalog"
	"github.com/soclab/hunter/internal/config"
	"github.com/soclab/hunter/internal/hunt"
	"github.com/soclab/hunter/internal/ioc"
	"github.com/soclab/hunter/internal/search"
	"github.com/soclab/hunter/internal/server"
	"github.com/soclab/hunter/internal/sigma"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hunter",
		Short: "SOC log search, threat hunting, and AI-assisted analysis",
		Long: `hunter serves a JSON API over a log search backend for SOC work:
free-text log search, security alerts, MITRE ATT&CK technique hunts,
IOC hunts, behavioral anomaly checks, and model-backed log analysis.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "config.toml", "path to config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	rootCmd.AddCommand(newServeCmd(), newHuntCmd(), newClassifyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE:  runServe,
	}
	cmd.Flags().String("addr", "", "listen address (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	addr, _ := cmd.Flags().GetString("addr")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	provider, err := analyzer.NewProvider(cfg.LLM.Provider, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Endpoint, cfg.LLM.Timeout)
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}

	cat, err := catalog.NewDefault()
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	engine, err := sigma.NewDefault()
	if err != nil {
		return fmt.Errorf("sigma: %w", err)
	}

	client := search.NewClient(cfg.Search.URL, time.Duration(cfg.Search.Timeout)*time.Second)
	a := assistant.New(client, analyzer.New(provider), cfg.Search.AlertIndex, verbose)
	h := hunt.New(client, cat, engine, verbose)

	srv := server.New(a, h, cat, client)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bound, err := srv.Start(ctx, addr)
	if err != nil {
		return err
	}
	defer srv.Stop()

	fmt.Fprintf(os.Stderr, "[server] listening on http://%s\n", bound)
	<-ctx.Done()
	fmt.Fprintln(os.Stderr, "[server] shutting down")
	return nil
}

func newHuntCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hunt",
		Short: "Run a one-shot hunt and print the report as JSON",
		Long: `Runs a single hunt against the search backend without starting the
server. Exactly one of --technique, --iocs, or --anomalies selects the
hunt; the report prints to stdout as JSON.`,
		RunE: runHunt,
	}
	cmd.Flags().String("technique", "", "MITRE ATT&CK technique id (e.g. T1110)")
	cmd.Flags().String("iocs", "", "comma-separated indicators to hunt")
	cmd.Flags().Bool("anomalies", false, "run the behavioral anomaly checks")
	cmd.Flags().String("time-range", hunt.DefaultTimeRange, "time range token (1h, 24h, 7d)")
	cmd.Flags().String("search-url", "", "search backend URL (overrides config)")
	return cmd
}

func runHunt(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	technique, _ := cmd.Flags().GetString("technique")
	iocsStr, _ := cmd.Flags().GetString("iocs")
	anomalies, _ := cmd.Flags().GetBool("anomalies")
	timeRange, _ := cmd.Flags().GetString("time-range")
	searchURL, _ := cmd.Flags().GetString("search-url")

	selected := 0
	for _, on := range []bool{technique != "", iocsStr != "", anomalies} {
		if on {
			selected++
		}
	}
	if selected != 1 {
		return fmt.Errorf("exactly one of --technique, --iocs, --anomalies is required")
	}

	cfg := config.Default()
	if searchURL != "" {
		cfg.Search.URL = searchURL
	}

	cat, err := catalog.NewDefault()
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	engine, err := sigma.NewDefault()
	if err != nil {
		return fmt.Errorf("sigma: %w", err)
	}

	client := search.NewClient(cfg.Search.URL, time.Duration(cfg.Search.Timeout)*time.Second)
	h := hunt.New(client, cat, engine, verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var report interface{}
	switch {
	case technique != "":
		report, err = h.HuntTechnique(ctx, technique, timeRange)
		if err != nil {
			return err
		}
	case iocsStr != "":
		report = h.HuntIOCs(ctx, splitList(iocsStr), timeRange)
	case anomalies:
		report = h.HuntAnomalies(ctx, timeRange)
	}

	return printJSON(report)
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <indicator>...",
		Short: "Classify indicators without hunting them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			indicators := make([]ioc.Indicator, 0, len(args))
			for _, raw := range args {
				indicators = append(indicators, ioc.New(raw))
			}
			return printJSON(indicators)
		},
	}
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
