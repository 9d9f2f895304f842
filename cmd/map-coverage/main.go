package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ironsheep/map-coverage/internal/analysis"
	"github.com/ironsheep/map-coverage/internal/batch"
	"github.com/ironsheep/map-coverage/internal/config"
	"github.com/ironsheep/map-coverage/internal/export"
	"github.com/ironsheep/map-coverage/internal/imaging"
	"github.com/ironsheep/map-coverage/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "--version", "-v", "version":
		fmt.Printf("map-coverage %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case "--help", "-h", "help":
		printUsage()
		return
	}

	// stdout is reserved for the MCP protocol
	logger := newLogger(os.Getenv("MAP_COVERAGE_LOG_LEVEL"))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case "serve":
		err = runServe(ctx, logger, args)
	case "batch":
		err = runBatch(ctx, logger, args)
	case "config":
		err = runConfig(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		printUsage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error("map-coverage failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("map-coverage - color category coverage of scanned maps")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  map-coverage [serve] [-config FILE]     Run the MCP server on stdin/stdout")
	fmt.Println("  map-coverage batch -in DIR -out DIR     Analyze every image in a directory")
	fmt.Println("  map-coverage config [-out FILE]         Write the default configuration")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  MAP_COVERAGE_LOG_LEVEL=debug|info|warn|error    Log level (default info)")
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// loadConfig returns the configuration in path, or the default
// configuration when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFile(path)
}

func newAnalyzer(cfg *config.Config, logger *slog.Logger) (*analysis.Analyzer, error) {
	table, err := cfg.Table()
	if err != nil {
		return nil, err
	}
	return analysis.New(table, analysis.WithWorkers(cfg.Workers), analysis.WithLogger(logger))
}

func runServe(ctx context.Context, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "configuration file (YAML)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	order, err := cfg.Order()
	if err != nil {
		return err
	}
	a, err := newAnalyzer(cfg, logger)
	if err != nil {
		return err
	}

	logger.Debug("starting MCP server", "version", Version, "build_time", BuildTime, "commit", GitCommit)
	srv := server.New(a, order, server.WithLogger(logger), server.WithDefaultDepth(cfg.PartitionDepth))
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runBatch(ctx context.Context, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	in := fs.String("in", "", "directory of map images")
	out := fs.String("out", "", "output directory for masks and coverage.csv")
	configPath := fs.String("config", "", "configuration file (YAML)")
	depth := fs.Int("depth", -1, "partition depth (overrides the configuration)")
	csvPath := fs.String("csv", "", "CSV output file (default <out>/coverage.csv)")
	sqlitePath := fs.String("sqlite", "", "also store records in this SQLite database")
	keepGoing := fs.Bool("keep-going", false, "skip images that fail instead of stopping")
	categoryMasks := fs.Bool("category-masks", false, "also write one mask per category")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		fs.Usage()
		return errors.New("batch requires -in and -out")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *depth >= 0 {
		cfg.PartitionDepth = *depth
	}
	order, err := cfg.Order()
	if err != nil {
		return err
	}
	a, err := newAnalyzer(cfg, logger)
	if err != nil {
		return err
	}

	inputs, err := imaging.ListImageFiles(*in)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no images found in %s", *in)
	}

	masks, err := imaging.NewMaskWriter(*out, cfg.MaskFormat)
	if err != nil {
		return err
	}

	if *csvPath == "" {
		*csvPath = filepath.Join(*out, "coverage.csv")
	}
	csvSink, err := export.CreateCSV(*csvPath)
	if err != nil {
		return err
	}
	defer csvSink.Close()
	sinks := []export.Sink{csvSink}

	if *sqlitePath != "" {
		db, err := export.OpenSQLite(*sqlitePath)
		if err != nil {
			return err
		}
		defer db.Close()
		sinks = append(sinks, db)
	}

	runner := &batch.Runner{
		Analyzer:      a,
		Cache:         imaging.NewImageCache(),
		Masks:         masks,
		CategoryMasks: *categoryMasks,
		Sink:          export.Multi(sinks...),
		Order:         order,
		Depth:         cfg.PartitionDepth,
		KeepGoing:     *keepGoing,
		Logger:        logger,
	}

	sum, runErr := runner.Run(ctx, inputs)
	logger.Info("batch finished", "images", sum.Images, "failed", sum.Failed, "records", sum.Records, "csv", *csvPath)
	if err := csvSink.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func runConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	out := fs.String("out", "map-coverage.yaml", "file to write")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := config.Default().SaveToFile(*out); err != nil {
		return err
	}
	fmt.Printf("wrote default configuration to %s\n", *out)
	return nil
}
