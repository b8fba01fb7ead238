package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/go-logr/zapr"
	"github.com/runningman84/zfs-autosnap/pkg/config"
	"github.com/runningman84/zfs-autosnap/pkg/operator"
	"go.uber.org/zap"
	"k8s.io/klog/v2"
)

// Version can be set at build time using -ldflags
// Example: go build -ldflags="-X main.Version=1.0.0"
var Version = "dev"

func main() {
	// Initialize klog first
	klog.InitFlags(nil)

	cfg := config.NewConfig()

	// Parse command line flags; defaults come from the environment
	label := flag.String("label", "", "Snapshot label, e.g. hourly, daily or monthly")
	keep := flag.Int("keep", cfg.Keep, "Number of recent snapshots to keep per filesystem")
	minSize := flag.Uint64("min-size", cfg.MinSize, "Minimum bytes written since the last snapshot to warrant a new one")
	prefix := flag.String("prefix", cfg.Prefix, "Prefix of generated snapshot names")
	zfsCmd := flag.String("zfs-cmd", cfg.ZFSCmd, "Path to the zfs executable")
	schedule := flag.String("schedule", "", "Cron expression for recurring runs (empty: run once and exit)")
	dryRun := flag.Bool("dry-run", false, "Enable dry-run mode (no actual snapshot creation or destruction)")
	logLevel := flag.String("log-level", "info", "Log level: info or debug")
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	// Show version if requested
	if *showVersion {
		fmt.Printf("zfs-autosnap version %s\n", Version)
		return
	}

	// Validate log level
	if *logLevel != "info" && *logLevel != "debug" {
		klog.Fatalf("Invalid log level: %s. Must be one of: info, debug", *logLevel)
	}

	// Validate and set log format
	if *logFormat != "text" && *logFormat != "json" {
		klog.Fatalf("Invalid log format: %s. Must be one of: text, json", *logFormat)
	}
	if *logFormat == "json" {
		// Configure zap for JSON logging
		var zapLog *zap.Logger
		var err error
		if *logLevel == "debug" {
			zapLog, err = zap.NewDevelopment()
		} else {
			zapLog, err = zap.NewProduction()
		}
		if err != nil {
			klog.Fatalf("Failed to initialize JSON logger: %v", err)
		}
		defer zapLog.Sync()

		// Set klog to use zap backend for JSON output
		klog.SetLogger(zapr.NewLogger(zapLog))
	}

	cfg.Label = *label
	cfg.Keep = *keep
	cfg.MinSize = *minSize
	cfg.Prefix = *prefix
	cfg.ZFSCmd = *zfsCmd
	cfg.Schedule = *schedule
	cfg.DryRun = *dryRun
	cfg.LogLevel = *logLevel

	if err := cfg.Validate(); err != nil {
		klog.Fatalf("Invalid configuration: %v", err)
	}

	// Set klog verbosity based on log level
	if *logLevel == "debug" {
		flag.Set("v", "1")
	}

	if cfg.DryRun {
		klog.Infof("Dry-run mode enabled via command-line flag")
	}

	klog.Infof("Starting zfs-autosnap version %s with label %s", Version, cfg.Label)

	op := operator.NewOperator(cfg)

	if cfg.Schedule != "" {
		sched, err := config.ParseSchedule(cfg.Schedule)
		if err != nil {
			klog.Fatalf("Invalid schedule: %v", err)
		}
		op.RunForever(sched)
		return
	}

	if err := op.Run(time.Now()); err != nil {
		klog.Fatalf("Run failed: %v", err)
	}

	klog.Flush()
}
