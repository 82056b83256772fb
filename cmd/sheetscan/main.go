// Package main is the sheetscan CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rollforge/sheetscan/internal/cli"
	"github.com/rollforge/sheetscan/internal/config"
	"github.com/rollforge/sheetscan/internal/parser"
	"github.com/rollforge/sheetscan/internal/schema"
	"github.com/rollforge/sheetscan/internal/server"
	"github.com/rollforge/sheetscan/internal/watcher"
	"github.com/rollforge/sheetscan/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/sheetscan/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. When neither exists, built-in defaults apply. Returns the config
// and the path that was actually loaded ("" for defaults).
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
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "parse":
		runParse()
	case "serve":
		runServe()
	case "watch":
		runWatch()
	case "schema":
		runSchema()
	case "version", "--version", "-v":
		fmt.Printf("sheetscan version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// parseArgsReorder moves any flags (and their values) that appear after the
// file arguments to the front of the slice so that flag.Parse() sees them.
// Go's flag package stops at the first non-flag argument, so
// "sheetscan parse sheet.pdf -output json" would otherwise leave -output unparsed.
func parseArgsReorder(args []string) []string {
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

func runParse() {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	hint := fs.String("hint", "", "template hint (e.g. dndbeyond, roll20)")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(parseArgsReorder(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: sheetscan parse [flags] <file...>")
		os.Exit(1)
	}

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "compact":
		format = cli.OutputCompact
	case "text":
		format = cli.OutputText
	default:
		fmt.Printf("Unknown output format %q; use text, compact, or json\n", *outputFormat)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	engine, _, err := buildEngine(cfg, logger, cfg.Debug || *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	exitCode := 0
	for _, path := range fs.Args() {
		raw, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", path, err)
			exitCode = 1
			continue
		}
		record, err := engine.Parse(context.Background(), raw, filepath.Ext(path), *hint)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to parse %s: %v\n", path, err)
			exitCode = 1
			continue
		}
		if fs.NArg() > 1 && format != cli.OutputJSON {
			fmt.Printf("== %s ==\n", path)
		}
		if err := cli.WriteRecord(os.Stdout, record, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	engine, registry, err := buildEngine(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}

	srv := server.NewServer(engine, registry, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	dirs := cfg.Watch.Directories
	for _, d := range fs.Args() {
		abs, absErr := filepath.Abs(d)
		if absErr == nil {
			dirs = append(dirs, abs)
		}
	}
	if len(dirs) == 0 {
		fmt.Println("No watch directories configured; pass one or set watch.directories in config")
		os.Exit(1)
	}

	engine, _, err := buildEngine(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	processor := watcher.NewProcessor(engine, logger)

	watchOpts := []watcher.WatcherOption{}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.NewWatcher(
		dirs,
		cfg.Watch.Extensions,
		cfg.Watch.RecursiveOrDefault(),
		func(path string) { processor.ProcessSheet(context.Background(), path) },
		func(path string) { processor.RemoveRecord(path) },
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	watchSvc.SyncExistingFiles()
	logger.Info("watching for sheets", zap.Strings("directories", dirs))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	watchSvc.Stop()
}

func runSchema() {
	fs := flag.NewFlagSet("schema", flag.ExitOnError)
	_ = fs.Parse(os.Args[2:])

	registry, err := schema.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load schema: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("schema version %d, %d fields\n\n", registry.Version(), registry.Len())
	for _, f := range registry.Fields() {
		fmt.Printf("  %-14s %-8s labels: %v\n", f.ID, f.Type, f.Labels)
	}
}

func buildEngine(cfg *config.Config, logger *zap.Logger, debug bool) (*parser.Engine, *schema.Registry, error) {
	registry, err := schema.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load field schema: %w", err)
	}
	opts := []parser.EngineOption{}
	if debug && logger != nil {
		opts = append(opts, parser.WithLogger(logger))
	}
	return parser.NewEngine(&cfg.Parser, registry, opts...), registry, nil
}

func printUsage() {
	fmt.Println(`sheetscan - Character sheet extraction pipeline

Usage:
  sheetscan parse [flags] <file...>  Parse sheet files and print records
  sheetscan serve [flags]            Start the HTTP API server
  sheetscan watch [flags] [dir...]   Watch drop directories, write record sidecars
  sheetscan schema                   Show the field schema
  sheetscan version                  Show version
  sheetscan help                     Show this help

Parse Flags:
  --config string    Config file path (default: /usr/local/etc/sheetscan/config.yaml)
  --hint string      Template hint to probe first (e.g. dndbeyond, roll20)
  --output string    Output format: text, compact, or json (default: text)
  --debug            Enable debug logging

Serve Flags:
  --config string    Config file path
  --debug            Enable debug logging

Watch Flags:
  --config string    Config file path
  --debug            Enable debug logging

Examples:
  sheetscan parse character.pdf
  sheetscan parse --hint roll20 --output json export.txt
  sheetscan serve --debug
  sheetscan watch ~/Dropbox/sheets`)
}
