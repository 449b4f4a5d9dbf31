package check

import (
	"testing"

	"github.com/styliteag/checkmk-plugin-zfs-snapshot-age/pkg/models"
)

func TestFormatLine(t *testing.T) {
	result := &models.Result{
		Entity:   "tank/data",
		Severity: models.SeverityWarning,
		Metrics: []models.Metric{
			{Name: "age", Value: "5400", Warn: "5400", Crit: "10800"},
			{Name: "creation", Value: "1705312800;1705226400"},
			{Name: "count", Value: "12", Warn: "200", Crit: "500"},
		},
		Message: "newest snapshot is 90 minutes old (warning at 90 minutes)",
	}

	got := FormatLine("zfs_snapshot_age", result)
	want := "1 zfs_snapshot_age:tank/data age=5400;5400;10800|creation=1705312800;1705226400|count=12;200;500 newest snapshot is 90 minutes old (warning at 90 minutes)"
	if got != want {
		t.Errorf("FormatLine() =\n  %s\nwant\n  %s", got, want)
	}
}

func TestFormatLine_NoMetrics(t *testing.T) {
	result := &models.Result{
		Entity:   "tank/missing",
		Severity: models.SeverityUnknown,
		Message:  "no snapshots found",
	}

	got := FormatLine("zfs_snapshot_age", result)
	want := "3 zfs_snapshot_age:tank/missing - no snapshots found"
	if got != want {
		t.Errorf("FormatLine() = %q, want %q", got, want)
	}
}

func TestFormatLine_SeverityCodes(t *testing.T) {
	tests := []struct {
		severity models.Severity
		wantCode byte
	}{
		{models.SeverityOK, '0'},
		{models.SeverityWarning, '1'},
		{models.SeverityCritical, '2'},
		{models.SeverityUnknown, '3'},
	}

	for _, tt := range tests {
		result := &models.Result{Entity: "tank", Severity: tt.severity, Message: "m"}
		got := FormatLine("zfs_scrub", result)
		if got[0] != tt.wantCode {
			t.Errorf("FormatLine() for %s starts with %c, want %c", tt.severity, got[0], tt.wantCode)
		}
	}
}
