// cmd/socialscrapexter/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/valpere/SocialScrapexter/internal/config"
	"github.com/valpere/SocialScrapexter/internal/monitoring"
	"github.com/valpere/SocialScrapexter/internal/orchestrator"
	"github.com/valpere/SocialScrapexter/internal/output"
	"github.com/valpere/SocialScrapexter/internal/server"
	"github.com/valpere/SocialScrapexter/internal/utils"
	"github.com/valpere/SocialScrapexter/pkg/types"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "scrape":
		err = runScrape(os.Args[2:])
	case "search":
		err = runSearch(os.Args[2:])
	case "status":
		err = runStatus(os.Args[2:])
	case "parse-url":
		err = runParseURL(os.Args[2:])
	case "extract":
		err = runExtract(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "version", "--version":
		fmt.Printf("socialscrapexter %s (built %s, commit %s)\n", version, buildTime, gitCommit)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`socialscrapexter - social network scraper with adapter fallback

Usage:
  socialscrapexter scrape <url> [--type posts|page|comments] [--limit N] [--strategy NAME]
  socialscrapexter search <query> [--type posts|pages|groups|events|marketplace] [--limit N]
  socialscrapexter status
  socialscrapexter parse-url <url>
  socialscrapexter extract [--kind posts|page|comments] [--file markup.html]
  socialscrapexter serve [--listen :8080]
  socialscrapexter version

Common flags:
  --config FILE   load settings from a YAML file instead of the environment
`)
}

// loadSettings reads settings from a config file when given, otherwise
// from the environment.
func loadSettings(configFile string) (*config.Settings, error) {
	if configFile != "" {
		return config.LoadFromFile(configFile)
	}
	return config.FromEnv()
}

func newLogger(settings *config.Settings) utils.Logger {
	return utils.NewLoggerWithLevel(utils.ParseLogLevel(settings.LogLevel))
}

// printJSON renders any result as indented JSON on stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runScrape(args []string) error {
	fs := flag.NewFlagSet("scrape", flag.ExitOnError)
	scrapeType := fs.String("type", "posts", "what to extract: posts, page, or comments")
	limit := fs.Int("limit", 20, "maximum items to return")
	strategy := fs.String("strategy", "", "pin a single backend instead of auto fallback")
	configFile := fs.String("config", "", "settings file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("scrape requires a target url")
	}
	target := fs.Arg(0)

	settings, err := loadSettings(*configFile)
	if err != nil {
		return err
	}
	logger := newLogger(settings)

	orch := orchestrator.New(settings, logger)
	defer orch.Cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	opts := types.ScrapeOptions{Limit: *limit, Strategy: *strategy}

	var result *types.ScrapeResult
	switch *scrapeType {
	case "posts":
		result, err = orch.Scrape(ctx, target, opts)
	case "page":
		result, err = orch.ScrapePage(ctx, target, opts)
	case "comments":
		result, err = orch.ScrapeComments(ctx, target, opts)
	default:
		return fmt.Errorf("unknown scrape type: %s", *scrapeType)
	}
	if err != nil {
		return err
	}

	if settings.Output != nil && len(result.Posts) > 0 {
		if err := persistPosts(settings, result.Posts); err != nil {
			logger.WithField("error", err.Error()).Warn("failed to persist posts")
		}
	}
	return printJSON(result)
}

// persistPosts writes posts through the configured output sink.
func persistPosts(settings *config.Settings, posts []types.Post) error {
	writer, err := output.NewWriter(settings.Output)
	if err != nil {
		return err
	}
	if err := writer.Write(posts); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}

func runSearch(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	searchType := fs.String("type", "posts", "search type")
	limit := fs.Int("limit", 10, "maximum results")
	strategy := fs.String("strategy", "", "pin a single backend")
	configFile := fs.String("config", "", "settings file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("search requires a query")
	}
	query := fs.Arg(0)

	if !types.IsValidSearchType(*searchType) {
		return fmt.Errorf("unknown search type: %s", *searchType)
	}

	settings, err := loadSettings(*configFile)
	if err != nil {
		return err
	}

	orch := orchestrator.New(settings, newLogger(settings))
	defer orch.Cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	result, err := orch.Search(ctx, query, types.SearchOptions{
		Type:     types.SearchType(*searchType),
		Limit:    *limit,
		Strategy: *strategy,
	})
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configFile := fs.String("config", "", "settings file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings, err := loadSettings(*configFile)
	if err != nil {
		return err
	}

	orch := orchestrator.New(settings, newLogger(settings))
	defer orch.Cleanup()

	status, err := orch.Status()
	if err != nil {
		return err
	}
	return printJSON(status)
}

func runParseURL(args []string) error {
	fs := flag.NewFlagSet("parse-url", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("parse-url requires a url")
	}

	settings := config.DefaultSettings()
	orch := orchestrator.New(settings, newLogger(settings))
	defer orch.Cleanup()

	info, err := orch.ParseURL(fs.Arg(0))
	if err != nil {
		return err
	}
	return printJSON(info)
}

func runExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	kind := fs.String("kind", "posts", "extraction kind: posts, page, or comments")
	file := fs.String("file", "", "markup file; stdin when omitted")
	configFile := fs.String("config", "", "settings file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var markup []byte
	var err error
	if *file != "" {
		markup, err = os.ReadFile(*file)
	} else {
		markup, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("failed to read markup: %w", err)
	}

	settings, err := loadSettings(*configFile)
	if err != nil {
		return err
	}

	orch := orchestrator.New(settings, newLogger(settings))
	defer orch.Cleanup()

	result, err := orch.Extract(string(markup), types.PayloadKind(*kind))
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	listen := fs.String("listen", ":8080", "listen address")
	configFile := fs.String("config", "", "settings file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings, err := loadSettings(*configFile)
	if err != nil {
		return err
	}
	logger := newLogger(settings)

	orch := orchestrator.New(settings, logger)
	defer orch.Cleanup()
	if err := orch.Initialize(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if settings.MetricsListen != "" {
		go serveMetrics(settings.MetricsListen, logger)
	}

	srv := server.New(orch, settings, logger)
	return srv.ListenAndServe(ctx, *listen)
}

// serveMetrics exposes Prometheus metrics on a dedicated address, separate
// from the API listener.
func serveMetrics(addr string, logger utils.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.Handler())
	logger.WithField("address", addr).Info("metrics listener starting")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.WithField("error", err.Error()).Warn("metrics listener stopped")
	}
}
