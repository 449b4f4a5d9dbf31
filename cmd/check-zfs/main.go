package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-logr/zapr"
	"github.com/styliteag/checkmk-plugin-zfs-snapshot-age/pkg/check"
	"github.com/styliteag/checkmk-plugin-zfs-snapshot-age/pkg/config"
	"github.com/styliteag/checkmk-plugin-zfs-snapshot-age/pkg/zfs"
	"go.uber.org/zap"
	"k8s.io/klog/v2"
)

// Version can be set at build time using -ldflags
// Example: go build -ldflags="-X main.Version=1.0.0"
var Version = "dev"

// exitUnknown is the process exit code when nothing could be checked at
// all. Per-entity severities travel in the output lines, not the exit
// code, so a run with WARNING or CRITICAL lines still exits 0.
const exitUnknown = 3

func main() {
	// Initialize klog first
	klog.InitFlags(nil)

	// Parse command line flags
	checkName := flag.String("check", "snapshots", "Check to run: snapshots or scrub")
	mode := flag.String("mode", "direct", "Operation mode: test, direct, or chroot")
	configFile := flag.String("config", "", "Optional YAML configuration file")
	label := flag.String("label", "", "Service-name prefix for output lines")
	pools := flag.String("pools", "", "Comma-separated pool selector (default: all pools)")
	filter := flag.String("filter", "", "Snapshot name filter: literal prefix, or regex when it starts with @")
	important := flag.String("important", "", "Comma-separated datasets that must always be reported")
	logLevel := flag.String("log-level", "info", "Log level: info or debug")
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	// Show version if requested
	if *showVersion {
		fmt.Printf("check-zfs version %s\n", Version)
		return
	}

	// Validate check name
	if *checkName != "snapshots" && *checkName != "scrub" {
		klog.Fatalf("Invalid check: %s. Must be one of: snapshots, scrub", *checkName)
	}

	// Validate mode
	if *mode != "test" && *mode != "direct" && *mode != "chroot" {
		klog.Fatalf("Invalid mode: %s. Must be one of: test, direct, chroot", *mode)
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

	// Build configuration: defaults, then config file, then environment,
	// then flags, later layers winning
	cfg := config.NewConfig(*mode)
	cfg.LogLevel = *logLevel
	if *configFile != "" {
		if err := cfg.LoadFile(*configFile); err != nil {
			fmt.Printf("%d check-zfs - %v\n", exitUnknown, err)
			os.Exit(exitUnknown)
		}
	}
	cfg.ApplyEnv()
	if *label != "" {
		cfg.CheckLabel = *label
	}
	if *pools != "" {
		cfg.Pools = splitList(*pools)
	}
	if *filter != "" {
		cfg.SnapshotFilter = *filter
	}
	if *important != "" {
		cfg.ImportantDatasets = splitList(*important)
	}

	// Set klog verbosity based on log level
	if *logLevel == "debug" {
		flag.Set("v", "1")
	}

	klog.V(1).Infof("Starting check-zfs version %s, check %s, mode %s", Version, *checkName, *mode)

	checker := check.NewChecker(cfg, zfs.NewManager(cfg), os.Stdout)
	now := time.Now().Unix()

	var err error
	if *checkName == "scrub" {
		err = checker.RunScrub(now)
	} else {
		err = checker.RunSnapshots(now)
	}
	if err != nil {
		// Nothing was checked: one diagnostic line, UNKNOWN exit code
		fmt.Printf("%d check-zfs - %v\n", exitUnknown, err)
		klog.Flush()
		os.Exit(exitUnknown)
	}

	klog.Flush()
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
