package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// Config holds the application configuration
type Config struct {
	Mode     string // direct, chroot or test
	LogLevel string

	// Service-name prefix for output lines; empty means the per-check
	// default (zfs_snapshot_age or zfs_scrub)
	CheckLabel string

	// Entity selection
	Pools             []string // pools to check (empty = all pools)
	ImportantDatasets []string // datasets always evaluated, in order
	SnapshotFilter    string   // literal prefix, or regex when it starts with "@"
	IgnorePattern     string   // regex excluding datasets

	// Snapshot age thresholds
	NewestWarnMinutes int
	NewestCritMinutes int
	OldestWarnDays    int
	OldestCritDays    int
	CountWarn         int
	CountCrit         int

	// Scrub thresholds
	RuntimeWarnSeconds int
	RuntimeCritSeconds int
	LastRunWarnDays    int
	LastRunCritDays    int

	// Commands
	ZFSListSnapshotsCmd []string
	ZFSUsedCmd          []string
	ZPoolListCmd        []string
	ZPoolStatusCmd      []string
}

// fileConfig mirrors the optional YAML configuration file. Pointer fields
// distinguish "absent" from an explicit zero.
type fileConfig struct {
	CheckLabel        string   `yaml:"check_label"`
	Pools             []string `yaml:"pools"`
	ImportantDatasets []string `yaml:"important_datasets"`
	SnapshotFilter    string   `yaml:"snapshot_filter"`
	IgnorePattern     string   `yaml:"ignore_pattern"`

	NewestWarnMinutes *int `yaml:"newest_warn_minutes"`
	NewestCritMinutes *int `yaml:"newest_crit_minutes"`
	OldestWarnDays    *int `yaml:"oldest_warn_days"`
	OldestCritDays    *int `yaml:"oldest_crit_days"`
	CountWarn         *int `yaml:"count_warn"`
	CountCrit         *int `yaml:"count_crit"`

	RuntimeWarnSeconds *int `yaml:"runtime_warn_seconds"`
	RuntimeCritSeconds *int `yaml:"runtime_crit_seconds"`
	LastRunWarnDays    *int `yaml:"last_run_warn_days"`
	LastRunCritDays    *int `yaml:"last_run_crit_days"`
}

// NewConfig creates a new configuration with default values and the
// command lines matching the given mode
func NewConfig(mode string) *Config {
	cfg := &Config{
		Mode:     mode,
		LogLevel: "info",

		NewestWarnMinutes: 90,
		NewestCritMinutes: 180,
		OldestWarnDays:    27,
		OldestCritDays:    180,
		CountWarn:         200,
		CountCrit:         500,

		RuntimeWarnSeconds: 600,
		RuntimeCritSeconds: 28800,
		LastRunWarnDays:    60,
		LastRunCritDays:    90,
	}

	switch mode {
	case "test":
		cfg.ZFSListSnapshotsCmd = []string{"cat", "test/zfs_list_snapshots.txt"}
		cfg.ZFSUsedCmd = []string{"cat", "test/zfs_usedbysnapshots.txt"}
		cfg.ZPoolListCmd = []string{"cat", "test/zpool_list.txt"}
		cfg.ZPoolStatusCmd = []string{"cat", "test/zpool_status.txt"}
	case "chroot":
		zfsBin := []string{"chroot", "/host", "/usr/local/sbin/zfs"}
		zpoolBin := []string{"chroot", "/host", "/usr/local/sbin/zpool"}
		cfg.ZFSListSnapshotsCmd = append(zfsBin, "list", "-Hp", "-t", "snapshot", "-o", "name,creation")
		cfg.ZFSUsedCmd = append(zfsBin, "get", "-H", "-o", "value", "usedbysnapshots")
		cfg.ZPoolListCmd = append(zpoolBin, "list", "-H", "-o", "name")
		cfg.ZPoolStatusCmd = append(zpoolBin, "status")
	default:
		cfg.ZFSListSnapshotsCmd = []string{"zfs", "list", "-Hp", "-t", "snapshot", "-o", "name,creation"}
		cfg.ZFSUsedCmd = []string{"zfs", "get", "-H", "-o", "value", "usedbysnapshots"}
		cfg.ZPoolListCmd = []string{"zpool", "list", "-H", "-o", "name"}
		cfg.ZPoolStatusCmd = []string{"zpool", "status"}
	}

	return cfg
}

// LoadFile overlays settings from a YAML configuration file. Absent keys
// leave the current values untouched.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if fc.CheckLabel != "" {
		c.CheckLabel = fc.CheckLabel
	}
	if len(fc.Pools) > 0 {
		c.Pools = fc.Pools
	}
	if len(fc.ImportantDatasets) > 0 {
		c.ImportantDatasets = fc.ImportantDatasets
	}
	if fc.SnapshotFilter != "" {
		c.SnapshotFilter = fc.SnapshotFilter
	}
	if fc.IgnorePattern != "" {
		c.IgnorePattern = fc.IgnorePattern
	}

	setIfPresent := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setIfPresent(&c.NewestWarnMinutes, fc.NewestWarnMinutes)
	setIfPresent(&c.NewestCritMinutes, fc.NewestCritMinutes)
	setIfPresent(&c.OldestWarnDays, fc.OldestWarnDays)
	setIfPresent(&c.OldestCritDays, fc.OldestCritDays)
	setIfPresent(&c.CountWarn, fc.CountWarn)
	setIfPresent(&c.CountCrit, fc.CountCrit)
	setIfPresent(&c.RuntimeWarnSeconds, fc.RuntimeWarnSeconds)
	setIfPresent(&c.RuntimeCritSeconds, fc.RuntimeCritSeconds)
	setIfPresent(&c.LastRunWarnDays, fc.LastRunWarnDays)
	setIfPresent(&c.LastRunCritDays, fc.LastRunCritDays)

	return nil
}

// ApplyEnv overlays settings from environment variables. Unset or
// malformed variables keep the current values.
func (c *Config) ApplyEnv() {
	c.CheckLabel = getEnvAsString("CHECK_LABEL", c.CheckLabel)
	c.Pools = getEnvAsStringSlice("ZFS_POOLS", c.Pools)
	c.ImportantDatasets = getEnvAsStringSlice("IMPORTANT_DATASETS", c.ImportantDatasets)
	c.SnapshotFilter = getEnvAsString("SNAPSHOT_FILTER", c.SnapshotFilter)
	c.IgnorePattern = getEnvAsString("IGNORE_PATTERN", c.IgnorePattern)

	c.NewestWarnMinutes = getEnvAsInt("NEWEST_WARN_MINUTES", c.NewestWarnMinutes)
	c.NewestCritMinutes = getEnvAsInt("NEWEST_CRIT_MINUTES", c.NewestCritMinutes)
	c.OldestWarnDays = getEnvAsInt("OLDEST_WARN_DAYS", c.OldestWarnDays)
	c.OldestCritDays = getEnvAsInt("OLDEST_CRIT_DAYS", c.OldestCritDays)
	c.CountWarn = getEnvAsInt("COUNT_WARN", c.CountWarn)
	c.CountCrit = getEnvAsInt("COUNT_CRIT", c.CountCrit)

	c.RuntimeWarnSeconds = getEnvAsInt("RUNTIME_WARN_SECONDS", c.RuntimeWarnSeconds)
	c.RuntimeCritSeconds = getEnvAsInt("RUNTIME_CRIT_SECONDS", c.RuntimeCritSeconds)
	c.LastRunWarnDays = getEnvAsInt("LAST_RUN_WARN_DAYS", c.LastRunWarnDays)
	c.LastRunCritDays = getEnvAsInt("LAST_RUN_CRIT_DAYS", c.LastRunCritDays)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// ValidateSnapshotThresholds checks the warn/crit pairs used by the
// snapshot check. A violated pair is a reportable condition, not a crash:
// callers turn the error into an UNKNOWN result.
func (c *Config) ValidateSnapshotThresholds() error {
	pairs := []struct {
		name       string
		warn, crit int
	}{
		{"newest age minutes", c.NewestWarnMinutes, c.NewestCritMinutes},
		{"oldest age days", c.OldestWarnDays, c.OldestCritDays},
		{"snapshot count", c.CountWarn, c.CountCrit},
	}
	for _, p := range pairs {
		if p.warn > p.crit {
			return fmt.Errorf("%s: warning threshold must be smaller than critical threshold (%d > %d)", p.name, p.warn, p.crit)
		}
	}
	return nil
}

// ValidateScrubThresholds checks the warn/crit pairs used by the scrub check.
func (c *Config) ValidateScrubThresholds() error {
	pairs := []struct {
		name       string
		warn, crit int
	}{
		{"runtime seconds", c.RuntimeWarnSeconds, c.RuntimeCritSeconds},
		{"last run days", c.LastRunWarnDays, c.LastRunCritDays},
	}
	for _, p := range pairs {
		if p.warn > p.crit {
			return fmt.Errorf("%s: warning threshold must be smaller than critical threshold (%d > %d)", p.name, p.warn, p.crit)
		}
	}
	return nil
}

// SnapshotMatcher returns a predicate for snapshot names built from the
// configured filter: a filter starting with "@" is a regular expression
// applied to the name, anything else is a literal prefix. An empty filter
// matches every snapshot.
func (c *Config) SnapshotMatcher() (func(string) bool, error) {
	if c.SnapshotFilter == "" {
		return func(string) bool { return true }, nil
	}
	if strings.HasPrefix(c.SnapshotFilter, "@") {
		re, err := regexp.Compile(strings.TrimPrefix(c.SnapshotFilter, "@"))
		if err != nil {
			return nil, fmt.Errorf("invalid snapshot filter regex: %w", err)
		}
		return re.MatchString, nil
	}
	prefix := c.SnapshotFilter
	return func(name string) bool { return strings.HasPrefix(name, prefix) }, nil
}

// IgnoreMatcher returns a predicate for dataset names built from the
// configured ignore pattern. An empty pattern ignores nothing.
func (c *Config) IgnoreMatcher() (func(string) bool, error) {
	if c.IgnorePattern == "" {
		return func(string) bool { return false }, nil
	}
	re, err := regexp.Compile(c.IgnorePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid ignore pattern regex: %w", err)
	}
	return re.MatchString, nil
}

// IsPoolAllowed checks if a pool is in the selector (or if the selector is
// empty, all pools are allowed)
func (c *Config) IsPoolAllowed(poolName string) bool {
	if len(c.Pools) == 0 {
		return true
	}

	for _, allowedPool := range c.Pools {
		if allowedPool == poolName {
			return true
		}
	}

	return false
}

// getEnvAsString reads an environment variable, or returns the default
// value if not set
func getEnvAsString(key, defaultValue string) string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	return valueStr
}

// getEnvAsInt reads an environment variable and returns it as an integer,
// or returns the default value if not set or invalid
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsStringSlice reads an environment variable as a comma-separated list,
// or returns the default value if not set
func getEnvAsStringSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
