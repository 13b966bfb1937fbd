// monitor is the brand-monitor CLI: incremental monitoring, one-shot
// deep scraping, AI analysis, and a chart dashboard.
//
// Usage:
//
//	monitor monitor  --mode daily|weekly|all [--config <path>] [--data <dir>] [--analyze]
//	monitor scrape   [--config <path>] [--data <dir>]
//	monitor analyze  [--config <path>] [--data <dir>]
//	monitor dashboard [--data <dir>] [--port <port>]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/qepting91/brand-monitor/internal/analyze"
	"github.com/qepting91/brand-monitor/internal/collector"
	"github.com/qepting91/brand-monitor/internal/config"
	"github.com/qepting91/brand-monitor/internal/dashboard"
	"github.com/qepting91/brand-monitor/internal/domain"
	"github.com/qepting91/brand-monitor/internal/monitor"
	"github.com/qepting91/brand-monitor/internal/report"
	"github.com/qepting91/brand-monitor/internal/scrape"
)

func main() {
	godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	sub := os.Args[1]
	args := os.Args[2:]
	switch sub {
	case "monitor":
		runMonitor(args)
	case "scrape":
		runScrape(args)
	case "analyze":
		runAnalyze(args)
	case "dashboard":
		runDashboard(args)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "usage: monitor <monitor|scrape|analyze|dashboard> [options]\n")
	fmt.Fprintf(os.Stderr, "  monitor monitor   --mode daily|weekly|all [--config <path>] [--data <dir>] [--analyze]\n")
	fmt.Fprintf(os.Stderr, "  monitor scrape    [--config <path>] [--data <dir>]\n")
	fmt.Fprintf(os.Stderr, "  monitor analyze   [--config <path>] [--data <dir>]\n")
	fmt.Fprintf(os.Stderr, "  monitor dashboard [--data <dir>] [--port <port>]\n")
}

func runMonitor(args []string) {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	mode := fs.String("mode", "daily", "Run mode: daily, weekly, or all")
	configPath := fs.String("config", "config.yaml", "Path to config file")
	dataDir := fs.String("data", "data", "Data directory")
	withAnalysis := fs.Bool("analyze", false, "Run AI analysis after monitoring (requires ANTHROPIC_API_KEY)")
	_ = fs.Parse(args)

	if *mode != "daily" && *mode != "weekly" && *mode != "all" {
		slog.Error("invalid mode", "mode", *mode)
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	col := newCollector(cfg)

	runner := monitor.New(cfg, col, filepath.Join(*dataDir, "monitor_state.json"), slog.Default())
	sum, err := runner.Run(context.Background(), *mode)
	if err != nil {
		slog.Error("monitor run failed", "err", err)
		os.Exit(1)
	}

	reportPath, err := report.Write(filepath.Join(*dataDir, "reports"), sum, cfg.Brand.Name)
	if err != nil {
		slog.Error("failed to write report", "err", err)
		os.Exit(1)
	}
	slog.Info("report written", "path", reportPath)

	if err := sum.WriteFile(filepath.Join(*dataDir, "last_run_summary.json")); err != nil {
		slog.Error("failed to write run summary", "err", err)
		os.Exit(1)
	}

	// Zero new posts is a success state, just a quieter one.
	if sum.NewPostCount() == 0 {
		slog.Info("no new posts - inbox zero")
		return
	}

	if *withAnalysis {
		runAnalysisOn(cfg, *dataDir, sum.Posts, sum.Comments)
	}
}

func runScrape(args []string) {
	fs := flag.NewFlagSet("scrape", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to config file")
	dataDir := fs.String("data", "data", "Data directory")
	_ = fs.Parse(args)

	cfg := loadConfig(*configPath)
	col := newCollector(cfg)

	result, err := scrape.Run(context.Background(), cfg, col, *dataDir, slog.Default())
	if err != nil {
		slog.Error("scrape failed", "err", err)
		os.Exit(1)
	}
	slog.Info("scrape complete", "posts", result.TotalPosts,
		"posts_with_comments", result.PostsWithComments, "queries", result.QueriesRun)
}

func runAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to config file")
	dataDir := fs.String("data", "data", "Data directory")
	_ = fs.Parse(args)

	cfg := loadConfig(*configPath)

	// Re-analyze from the most recent run summary.
	data, err := os.ReadFile(filepath.Join(*dataDir, "last_run_summary.json"))
	if err != nil {
		slog.Error("no data to analyze; run 'monitor' first", "err", err)
		os.Exit(1)
	}
	sum, err := monitor.ParseSummary(data)
	if err != nil {
		slog.Error("failed to parse run summary", "err", err)
		os.Exit(1)
	}

	runAnalysisOn(cfg, *dataDir, sum.Posts, sum.Comments)
}

func runDashboard(args []string) {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	dataDir := fs.String("data", "data", "Data directory")
	port := fs.String("port", "8080", "Dashboard port")
	_ = fs.Parse(args)

	slog.Info("starting dashboard", "port", *port)
	if err := dashboard.StartServer(filepath.Join(*dataDir, "reddit_raw_data.ndjson"), *port); err != nil {
		slog.Error("dashboard failed", "err", err)
		os.Exit(1)
	}
}

func runAnalysisOn(cfg *config.Config, dataDir string, posts []domain.Classified, comments map[string][]domain.Comment) {
	client := analyze.NewClient(os.Getenv("ANTHROPIC_API_KEY"), cfg.Analysis.Model)
	if !client.Available() {
		slog.Error("ANTHROPIC_API_KEY is required for analysis; get a key at https://console.anthropic.com/")
		os.Exit(1)
	}

	usage := analyze.LoadUsage(filepath.Join(dataDir, "analysis_usage.json"))
	if used := usage.ThisMonth(); used >= cfg.Analysis.FreeRunsPerMonth {
		slog.Warn("monthly analysis allowance exceeded", "used", used, "included", cfg.Analysis.FreeRunsPerMonth)
	}

	slog.Info("running AI analysis", "posts", len(posts), "model", cfg.Analysis.Model)
	text, err := client.Run(context.Background(), cfg, posts, comments)
	if err != nil {
		slog.Error("analysis failed", "err", err)
		os.Exit(1)
	}
	if err := usage.Record(); err != nil {
		slog.Warn("failed to record analysis usage", "err", err)
	}

	outPath := filepath.Join(dataDir, "reports", "analysis.md")
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err == nil {
		if err := os.WriteFile(outPath, []byte(text), 0644); err != nil {
			slog.Error("failed to write analysis", "err", err)
			os.Exit(1)
		}
	}
	slog.Info("analysis written", "path", outPath)
}

func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("configuration error", "err", err)
		os.Exit(1)
	}
	return cfg
}

func newCollector(cfg *config.Config) domain.Collector {
	col, err := collector.NewCollector(cfg.Settings.UserAgent, cfg.Settings.RateDelay())
	if err != nil {
		slog.Error("failed to initialize collector", "err", err)
		os.Exit(1)
	}
	slog.Info("collector initialized", "mode", os.Getenv("COLLECTOR_MODE"))
	return col
}
