package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/hyperjump/ausdata/internal/ckan"
	"github.com/hyperjump/ausdata/internal/dataset"
	"github.com/hyperjump/ausdata/internal/models"
)

type importOptions struct {
	all       bool
	keepEmpty bool
	startID   int
}

// readPackages loads CKAN packages from a package_search URL, a local file, or
// stdin when input is "-".
func readPackages(ctx context.Context, client *ckan.Client, input string, stdin io.Reader, all bool) ([]ckan.Package, error) {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		if all {
			return client.FetchAll(ctx, input)
		}
		pkgs, _, err := client.FetchPage(ctx, input)
		return pkgs, err
	}
	var (
		data []byte
		err  error
	)
	if input == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(input)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", input, err)
	}
	return ckan.ParsePackages(data)
}

// importCatalogue converts the packages at input into catalogue datasets and
// checks that they form a valid collection.
func importCatalogue(ctx context.Context, client *ckan.Client, input string, stdin io.Reader, opts importOptions) ([]models.Dataset, int, error) {
	pkgs, err := readPackages(ctx, client, input, stdin, opts.all)
	if err != nil {
		return nil, 0, err
	}
	datasets, skipped := ckan.Convert(pkgs, opts.startID, opts.keepEmpty)
	if _, err := dataset.New(datasets); err != nil {
		return nil, 0, err
	}
	return datasets, skipped, nil
}

func printImportUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: ausdata import [flags] <package_search URL | file | ->\n\n")
	fs.PrintDefaults()
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	output := fs.String("o", "", "output catalogue file (empty = configured data.path)")
	all := fs.Bool("all", false, "page through every result of a package_search URL")
	keepEmpty := fs.Bool("keep-empty", false, "keep packages without resource formats")
	startID := fs.Int("start-id", 1, "id of the first imported dataset")
	fs.Usage = func() { printImportUsage(fs) }
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() != 1 {
		printImportUsage(fs)
		os.Exit(1)
	}

	cfg, _ := mustConfig(*configPath)
	logger := mustLogger(cfg.Debug)
	defer logger.Sync()
	out := *output
	if out == "" {
		out = cfg.Data.Path
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	datasets, skipped, err := importCatalogue(ctx, ckan.NewClient(nil, logger), fs.Arg(0), os.Stdin, importOptions{
		all:       *all,
		keepEmpty: *keepEmpty,
		startID:   *startID,
	})
	if err != nil {
		logger.Fatal("import failed", zap.String("input", fs.Arg(0)), zap.Error(err))
	}
	if err := dataset.WriteFile(out, datasets); err != nil {
		logger.Fatal("failed to write catalogue", zap.String("path", out), zap.Error(err))
	}
	logger.Info("catalogue imported", zap.String("path", out), zap.Int("datasets", len(datasets)), zap.Int("skipped", skipped))
	fmt.Printf("Wrote %d datasets to %s (%d skipped)\n", len(datasets), out, skipped)
}
