// Package main is the ausdata CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/ausdata/internal/cli"
	"github.com/hyperjump/ausdata/internal/config"
	"github.com/hyperjump/ausdata/internal/models"
	"github.com/hyperjump/ausdata/internal/server"
	"github.com/hyperjump/ausdata/internal/watcher"
	"github.com/hyperjump/ausdata/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/ausdata/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// Credentials such as OPENAI_API_KEY may come from a local .env file.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "datasets":
		runDatasets()
	case "backend":
		runBackend()
	case "import":
		runImport()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("ausdata version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func mustLogger(debug bool) *zap.Logger {
	logger, err := utils.NewLogger(debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func mustConfig(path string) (*config.Config, string) {
	cfg, resolved, err := loadConfig(path)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg, resolved
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath := mustConfig(*configPath)
	debugMode := cfg.Debug || *debug
	logger := mustLogger(debugMode)
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("api_key", cfg.Model.APIKey.String()),
	)

	svc, err := initializeService(cfg, nil, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	if cfg.Data.Watch {
		watchOpts := []watcher.WatcherOption{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		w := watcher.NewWatcher(cfg.Data.Path, func(path string) { _ = svc.Reload(path) }, watchOpts...)
		if err := w.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
	}

	g.Go(func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-hup:
				_ = svc.Reload(cfg.Data.Path)
			}
		}
	})

	srv := server.NewServer(svc, &cfg.Server, logger)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: ausdata search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  ausdata search rainfall in western sydney
  ausdata search --topic climate --limit 5 "heatwave days"
  ausdata search --server http://localhost:3000 --output json school enrolments
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// filterFlags registers the catalogue filter flags on fs.
type filterFlags struct {
	topic, owner, coverage, dataType *string
	year                             *int
}

func addFilterFlags(fs *flag.FlagSet) filterFlags {
	return filterFlags{
		topic:    fs.String("topic", "", "only datasets with this topic"),
		owner:    fs.String("owner", "", "only datasets from this owner"),
		coverage: fs.String("coverage", "", "only datasets whose coverage contains this text"),
		dataType: fs.String("data-type", "", "only datasets of this data type"),
		year:     fs.Int("year", 0, "only datasets for this year"),
	}
}

func (f filterFlags) filter() models.DatasetFilter {
	var out models.DatasetFilter
	optional := func(s string) *string {
		if s = strings.TrimSpace(s); s != "" {
			return &s
		}
		return nil
	}
	out.Topic = optional(*f.topic)
	out.Owner = optional(*f.owner)
	out.Coverage = optional(*f.coverage)
	out.DataType = optional(*f.dataType)
	if *f.year != 0 {
		year := *f.year
		out.Year = &year
	}
	return out
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = run the pipeline in this process)")
	limit := fs.Int("limit", 0, "number of results (0 = configured default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	debug := fs.Bool("debug", false, "enable debug logging")
	filters := addFilterFlags(fs)
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	req := models.SearchRequest{Query: queryStr, Limit: *limit, Filter: filters.filter()}

	var response *models.SearchResponse
	if *serverURL != "" {
		response, err = searchViaHTTP(*serverURL, req)
	} else {
		cfg, _ := mustConfig(*configPath)
		logger := mustLogger(cfg.Debug || *debug)
		defer logger.Sync()
		svc, initErr := initializeService(cfg, nil, logger)
		if initErr != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", initErr)
			os.Exit(1)
		}
		defer svc.Close()
		response, err = svc.Search(context.Background(), req)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, req models.SearchRequest) (*models.SearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(strings.TrimRight(serverURL, "/")+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func backendViaHTTP(serverURL string) (models.BackendStatus, error) {
	var status models.BackendStatus
	resp, err := http.Get(strings.TrimRight(serverURL, "/") + "/api/v1/backend")
	if err != nil {
		return status, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return status, err
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return status, fmt.Errorf("decode response: %w", err)
	}
	return status, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	b, _ := io.ReadAll(resp.Body)
	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
}

func runDatasets() {
	fs := flag.NewFlagSet("datasets", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	text := fs.String("q", "", "only datasets whose title or description contain these words")
	page := fs.Int("page", 1, "page number")
	perPage := fs.Int("per-page", 0, "datasets per page (0 = configured default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	filters := addFilterFlags(fs)
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	cfg, _ := mustConfig(*configPath)
	logger := mustLogger(cfg.Debug)
	defer logger.Sync()
	cfg.Model.Mode = "FALLBACK"
	svc, err := initializeService(cfg, nil, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load datasets: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	result, err := svc.Browse(models.CatalogueQuery{
		Text:    *text,
		Filter:  filters.filter(),
		Page:    *page,
		PerPage: *perPage,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Browse failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteCataloguePage(os.Stdout, result, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runBackend() {
	fs := flag.NewFlagSet("backend", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = report the mode this config would select)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	var status models.BackendStatus
	if *serverURL != "" {
		status, err = backendViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Backend status failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _ := mustConfig(*configPath)
		logger := mustLogger(cfg.Debug)
		defer logger.Sync()
		svc, initErr := initializeService(cfg, nil, logger)
		if initErr != nil {
			fmt.Fprintf(os.Stderr, "Backend status failed: %v\n", initErr)
			os.Exit(1)
		}
		defer svc.Close()
		status = svc.Backend()
	}
	if err := cli.WriteBackendStatus(os.Stdout, status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("config", "config.yaml", "where to write the config file")
	force := fs.Bool("force", false, "overwrite an existing file")
	_ = fs.Parse(os.Args[2:])

	if err := writeDefaultConfig(*path, *force); err != nil {
		fmt.Fprintf(os.Stderr, "init failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *path)
}

var errConfigExists = errors.New("config file already exists (use --force to overwrite)")

// writeDefaultConfig writes a config with every default filled in. The API key
// is left to the environment.
func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s: %w", path, errConfigExists)
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Data.Watch = true
	return config.Save(path, cfg)
}

func printUsage() {
	fmt.Println(`ausdata - Natural-language search over curated Australian open datasets

Usage:
  ausdata server [flags]           Start the HTTP server
  ausdata search [flags] <query>   Rank datasets against a question
  ausdata datasets [flags]         Browse the catalogue
  ausdata backend [flags]          Show the relevance backend mode
  ausdata import [flags] <source>  Build the catalogue from CKAN package_search results
  ausdata init [flags]             Write a default config.yaml
  ausdata version                  Show version
  ausdata help                     Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/ausdata/config.yaml, or ./config.yaml when present)
  --debug            Enable debug logging

Search Flags:
  --server string    Server URL; empty runs the pipeline in this process
  --limit int        Number of results (default from config)
  --topic, --owner, --coverage, --data-type, --year   Narrow the candidate datasets
  --output string    Output format: text or json (default: text)

Datasets Flags:
  --q string         Words that must appear in title or description
  --page int         Page number (default: 1)
  --per-page int     Datasets per page (default from config)
  --topic, --owner, --coverage, --data-type, --year   Filters

Import Flags:
  --o string         Output catalogue file (default: configured data.path)
  --all              Page through every result of a package_search URL
  --keep-empty       Keep packages without resource formats
  --start-id int     Id of the first imported dataset (default: 1)

Environment:
  OPENAI_API_KEY, OPENAI_API_BASE, LOCAL_MODEL_PATH, LOCAL_MODEL_ENDPOINT,
  AUSDATA_MODEL_MODE, AUSDATA_DATA_PATH, AUSDATA_TIMEOUT_MS, AUSDATA_RESULT_LIMIT,
  AUSDATA_MAX_QUERY_LENGTH, AUSDATA_FAILURE_THRESHOLD, AUSDATA_DEBUG
  A .env file in the working directory is loaded first.

Examples:
  ausdata server
  ausdata search "rainfall data for western sydney"
  ausdata search --output json --limit 3 school enrolments
  ausdata datasets --topic health --page 2
  ausdata backend --server http://localhost:3000
  ausdata import --all "https://data.gov.au/data/api/3/action/package_search?q=water&rows=100"`)
}
