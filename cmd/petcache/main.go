// Package main is the entry point for the pet-clinic cache service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/vyrodovalexey/petcache/internal/config"
	"github.com/vyrodovalexey/petcache/internal/observability"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	hybrid      bool
	hybridSet   bool
	showVersion bool
}

func main() {
	flags, err := parseFlags(os.Args[1:], os.Getenv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	if flags.showVersion {
		printVersion(os.Stdout)
		return
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting petcache",
		observability.String("version", version),
		observability.String("config", flags.configPath),
		observability.Bool("hybrid", cfg.Cache.Hybrid.Enabled),
		observability.Int("regions", len(cfg.Cache.Regions)),
	)

	app, err := newApplication(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", observability.Error(err))
	}
	app.flags = flags

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := startConfigWatcher(ctx, app, flags.configPath)

	runErr := app.run(ctx)

	if watcher != nil {
		_ = watcher.Stop()
	}
	if runErr != nil {
		logger.Fatal("petcache stopped with error", observability.Error(runErr))
	}
}

// parseFlags parses command line flags. Unset flags fall back to
// PETCACHE_* environment variables.
func parseFlags(args []string, getenv func(string) string) (cliFlags, error) {
	fs := flag.NewFlagSet("petcache", flag.ContinueOnError)

	configPath := fs.String("config", getEnvOrDefault(getenv, "PETCACHE_CONFIG_PATH", ""),
		"Path to configuration file (defaults are used when empty)")
	logLevel := fs.String("log-level", getEnvOrDefault(getenv, "PETCACHE_LOG_LEVEL", ""),
		"Log level (debug, info, warn, error); overrides the configuration file")
	logFormat := fs.String("log-format", getEnvOrDefault(getenv, "PETCACHE_LOG_FORMAT", ""),
		"Log format (json, console); overrides the configuration file")
	hybrid := fs.Bool("hybrid", getEnvBool(getenv, "PETCACHE_HYBRID", false),
		"Enable the two-tier local and Redis cache; overrides the configuration file")
	showVersion := fs.Bool("version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return cliFlags{}, err
	}

	hybridSet := getenv("PETCACHE_HYBRID") != ""
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "hybrid" {
			hybridSet = true
		}
	})

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		hybrid:      *hybrid,
		hybridSet:   hybridSet,
		showVersion: *showVersion,
	}, nil
}

// printVersion prints version information.
func printVersion(w io.Writer) {
	_, _ = fmt.Fprintf(w, "petcache version %s\n", version)
	_, _ = fmt.Fprintf(w, "  Build time: %s\n", buildTime)
	_, _ = fmt.Fprintf(w, "  Git commit: %s\n", gitCommit)
}

// loadConfig loads the configuration file, applies flag overrides and
// validates the result.
func loadConfig(flags cliFlags) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if flags.configPath != "" {
		loaded, err := config.LoadConfig(flags.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
	}

	applyOverrides(cfg, flags)

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyOverrides applies the command line and PETCACHE_* settings on top
// of a file configuration. Reloads go through it too.
func applyOverrides(cfg *config.Config, flags cliFlags) {
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	if flags.hybridSet {
		cfg.Cache.Hybrid.Enabled = flags.hybrid
	}
}

// initLogger initializes the logger.
func initLogger(cfg *config.Config) observability.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}
