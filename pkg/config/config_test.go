package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig("direct")

	if cfg.NewestWarnMinutes != 90 {
		t.Errorf("NewestWarnMinutes = %d, want 90", cfg.NewestWarnMinutes)
	}
	if cfg.NewestCritMinutes != 180 {
		t.Errorf("NewestCritMinutes = %d, want 180", cfg.NewestCritMinutes)
	}
	if cfg.OldestWarnDays != 27 {
		t.Errorf("OldestWarnDays = %d, want 27", cfg.OldestWarnDays)
	}
	if cfg.OldestCritDays != 180 {
		t.Errorf("OldestCritDays = %d, want 180", cfg.OldestCritDays)
	}
	if cfg.CountWarn != 200 {
		t.Errorf("CountWarn = %d, want 200", cfg.CountWarn)
	}
	if cfg.CountCrit != 500 {
		t.Errorf("CountCrit = %d, want 500", cfg.CountCrit)
	}
	if cfg.RuntimeWarnSeconds != 600 {
		t.Errorf("RuntimeWarnSeconds = %d, want 600", cfg.RuntimeWarnSeconds)
	}
	if cfg.RuntimeCritSeconds != 28800 {
		t.Errorf("RuntimeCritSeconds = %d, want 28800", cfg.RuntimeCritSeconds)
	}
	if cfg.LastRunWarnDays != 60 {
		t.Errorf("LastRunWarnDays = %d, want 60", cfg.LastRunWarnDays)
	}
	if cfg.LastRunCritDays != 90 {
		t.Errorf("LastRunCritDays = %d, want 90", cfg.LastRunCritDays)
	}
	if len(cfg.Pools) != 0 {
		t.Errorf("Pools = %v, want empty (all pools)", cfg.Pools)
	}
}

func TestNewConfigCommands(t *testing.T) {
	direct := NewConfig("direct")
	if direct.ZFSListSnapshotsCmd[0] != "zfs" {
		t.Errorf("direct mode snapshot command = %v, want zfs", direct.ZFSListSnapshotsCmd)
	}

	chroot := NewConfig("chroot")
	if chroot.ZFSListSnapshotsCmd[0] != "chroot" {
		t.Errorf("chroot mode snapshot command = %v, want chroot prefix", chroot.ZFSListSnapshotsCmd)
	}

	test := NewConfig("test")
	if test.ZFSListSnapshotsCmd[0] != "cat" {
		t.Errorf("test mode snapshot command = %v, want cat fixture", test.ZFSListSnapshotsCmd)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("NEWEST_WARN_MINUTES", "30")
	t.Setenv("NEWEST_CRIT_MINUTES", "60")
	t.Setenv("IMPORTANT_DATASETS", "tank/vm, tank/db")
	t.Setenv("SNAPSHOT_FILTER", "autosnap")
	t.Setenv("ZFS_POOLS", "tank")

	cfg := NewConfig("direct")
	cfg.ApplyEnv()

	if cfg.NewestWarnMinutes != 30 {
		t.Errorf("NewestWarnMinutes = %d, want 30", cfg.NewestWarnMinutes)
	}
	if cfg.NewestCritMinutes != 60 {
		t.Errorf("NewestCritMinutes = %d, want 60", cfg.NewestCritMinutes)
	}
	if len(cfg.ImportantDatasets) != 2 || cfg.ImportantDatasets[0] != "tank/vm" || cfg.ImportantDatasets[1] != "tank/db" {
		t.Errorf("ImportantDatasets = %v, want [tank/vm tank/db]", cfg.ImportantDatasets)
	}
	if cfg.SnapshotFilter != "autosnap" {
		t.Errorf("SnapshotFilter = %s, want autosnap", cfg.SnapshotFilter)
	}
	if len(cfg.Pools) != 1 || cfg.Pools[0] != "tank" {
		t.Errorf("Pools = %v, want [tank]", cfg.Pools)
	}
}

func TestApplyEnvInvalidInt(t *testing.T) {
	t.Setenv("COUNT_WARN", "not-a-number")

	cfg := NewConfig("direct")
	cfg.ApplyEnv()

	if cfg.CountWarn != 200 {
		t.Errorf("CountWarn = %d, want default 200 for invalid value", cfg.CountWarn)
	}
}

func TestLoadFile(t *testing.T) {
	content := `check_label: my_snapshots
pools:
  - tank
important_datasets:
  - tank/vm
newest_warn_minutes: 45
count_crit: 1000
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg := NewConfig("direct")
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.CheckLabel != "my_snapshots" {
		t.Errorf("CheckLabel = %s, want my_snapshots", cfg.CheckLabel)
	}
	if len(cfg.Pools) != 1 || cfg.Pools[0] != "tank" {
		t.Errorf("Pools = %v, want [tank]", cfg.Pools)
	}
	if cfg.NewestWarnMinutes != 45 {
		t.Errorf("NewestWarnMinutes = %d, want 45", cfg.NewestWarnMinutes)
	}
	if cfg.CountCrit != 1000 {
		t.Errorf("CountCrit = %d, want 1000", cfg.CountCrit)
	}
	// Absent keys keep defaults
	if cfg.NewestCritMinutes != 180 {
		t.Errorf("NewestCritMinutes = %d, want default 180", cfg.NewestCritMinutes)
	}
}

func TestLoadFileMissing(t *testing.T) {
	cfg := NewConfig("direct")
	if err := cfg.LoadFile("/nonexistent/config.yaml"); err == nil {
		t.Error("LoadFile() expected error for missing file, got nil")
	}
}

func TestLoadFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\n  - not yaml ["), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg := NewConfig("direct")
	if err := cfg.LoadFile(path); err == nil {
		t.Error("LoadFile() expected error for invalid YAML, got nil")
	}
}

func TestValidateSnapshotThresholds(t *testing.T) {
	cfg := NewConfig("direct")
	if err := cfg.ValidateSnapshotThresholds(); err != nil {
		t.Errorf("ValidateSnapshotThresholds() with defaults = %v, want nil", err)
	}

	cfg.NewestWarnMinutes = 200
	cfg.NewestCritMinutes = 100
	if err := cfg.ValidateSnapshotThresholds(); err == nil {
		t.Error("ValidateSnapshotThresholds() expected error for warn > crit, got nil")
	}

	cfg = NewConfig("direct")
	cfg.CountWarn = 600
	if err := cfg.ValidateSnapshotThresholds(); err == nil {
		t.Error("ValidateSnapshotThresholds() expected error for count warn > crit, got nil")
	}

	// warn == crit is allowed
	cfg = NewConfig("direct")
	cfg.OldestWarnDays = 180
	if err := cfg.ValidateSnapshotThresholds(); err != nil {
		t.Errorf("ValidateSnapshotThresholds() with warn == crit = %v, want nil", err)
	}
}

func TestValidateScrubThresholds(t *testing.T) {
	cfg := NewConfig("direct")
	if err := cfg.ValidateScrubThresholds(); err != nil {
		t.Errorf("ValidateScrubThresholds() with defaults = %v, want nil", err)
	}

	cfg.RuntimeWarnSeconds = 30000
	if err := cfg.ValidateScrubThresholds(); err == nil {
		t.Error("ValidateScrubThresholds() expected error for warn > crit, got nil")
	}
}

func TestSnapshotMatcherPrefix(t *testing.T) {
	cfg := NewConfig("direct")
	cfg.SnapshotFilter = "autosnap"

	matches, err := cfg.SnapshotMatcher()
	if err != nil {
		t.Fatalf("SnapshotMatcher() error = %v", err)
	}

	if !matches("autosnap_2024-01-15_10:00:00_hourly") {
		t.Error("prefix filter should match autosnap_... snapshot")
	}
	if matches("manual-snapshot") {
		t.Error("prefix filter should not match manual-snapshot")
	}
}

func TestSnapshotMatcherRegex(t *testing.T) {
	cfg := NewConfig("direct")
	cfg.SnapshotFilter = "@^(hourly|daily)-"

	matches, err := cfg.SnapshotMatcher()
	if err != nil {
		t.Fatalf("SnapshotMatcher() error = %v", err)
	}

	if !matches("hourly-2024-01-15") {
		t.Error("regex filter should match hourly-2024-01-15")
	}
	if matches("weekly-2024-01-15") {
		t.Error("regex filter should not match weekly-2024-01-15")
	}
}

func TestSnapshotMatcherEmpty(t *testing.T) {
	cfg := NewConfig("direct")

	matches, err := cfg.SnapshotMatcher()
	if err != nil {
		t.Fatalf("SnapshotMatcher() error = %v", err)
	}
	if !matches("anything") {
		t.Error("empty filter should match everything")
	}
}

func TestSnapshotMatcherInvalidRegex(t *testing.T) {
	cfg := NewConfig("direct")
	cfg.SnapshotFilter = "@[unclosed"

	if _, err := cfg.SnapshotMatcher(); err == nil {
		t.Error("SnapshotMatcher() expected error for invalid regex, got nil")
	}
}

func TestIgnoreMatcher(t *testing.T) {
	cfg := NewConfig("direct")
	cfg.IgnorePattern = "^tank/hidden"

	ignore, err := cfg.IgnoreMatcher()
	if err != nil {
		t.Fatalf("IgnoreMatcher() error = %v", err)
	}

	if !ignore("tank/hidden/secrets") {
		t.Error("ignore pattern should match tank/hidden/secrets")
	}
	if ignore("tank/data") {
		t.Error("ignore pattern should not match tank/data")
	}
}

func TestIsPoolAllowed(t *testing.T) {
	cfg := NewConfig("direct")
	if !cfg.IsPoolAllowed("anything") {
		t.Error("empty selector should allow all pools")
	}

	cfg.Pools = []string{"tank", "backup"}
	if !cfg.IsPoolAllowed("tank") {
		t.Error("tank should be allowed")
	}
	if cfg.IsPoolAllowed("scratch") {
		t.Error("scratch should not be allowed")
	}
}
