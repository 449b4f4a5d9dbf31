package models

// Severity is the outcome of a check or sub-check.
type Severity int

const (
	SeverityOK Severity = iota
	SeverityWarning
	SeverityCritical
	SeverityUnknown
)

// Code returns the wire-format integer consumed by the monitoring agent.
// The numeric order of codes is not the severity order: UNKNOWN maps to 3
// but means "could not determine", not "worse than CRITICAL".
func (s Severity) Code() int {
	switch s {
	case SeverityOK:
		return 0
	case SeverityWarning:
		return 1
	case SeverityCritical:
		return 2
	default:
		return 3
	}
}

func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "OK"
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// MaxSeverity returns the higher of two severities in the
// OK < WARNING < CRITICAL order. UNKNOWN never goes through aggregation;
// a precondition failure replaces the whole entity result before any
// sub-check severities exist.
func MaxSeverity(a, b Severity) Severity {
	if b > a {
		return b
	}
	return a
}

// Snapshot is one ZFS snapshot of a dataset.
type Snapshot struct {
	Name     string
	Creation int64 // unix epoch seconds
}

// SnapshotFacts holds everything the evaluator needs about one dataset.
// Snapshots are listed in tool output order with the name filter already
// applied; the extractor never hands the evaluator an unfiltered blob.
type SnapshotFacts struct {
	Dataset   string
	Snapshots []Snapshot
	UsedBytes int64
}

// Count returns the number of snapshots that survived the filter.
func (f *SnapshotFacts) Count() int {
	return len(f.Snapshots)
}

// Newest returns the snapshot with the largest creation time. Ties are
// broken by taking the last-listed entry.
func (f *SnapshotFacts) Newest() Snapshot {
	var newest Snapshot
	for i, snap := range f.Snapshots {
		if i == 0 || snap.Creation >= newest.Creation {
			newest = snap
		}
	}
	return newest
}

// Oldest returns the snapshot with the smallest creation time, with the
// same last-listed tie-break as Newest.
func (f *SnapshotFacts) Oldest() Snapshot {
	var oldest Snapshot
	for i, snap := range f.Snapshots {
		if i == 0 || snap.Creation <= oldest.Creation {
			oldest = snap
		}
	}
	return oldest
}

// ScrubState is the tagged variant produced by the zpool status parser.
// The evaluator only ever switches on this tag, never on raw scan text.
type ScrubState int

const (
	ScrubStateUnknown ScrubState = iota
	ScrubRunning
	ScrubFinished
	ResilverFinished
)

func (s ScrubState) String() string {
	switch s {
	case ScrubRunning:
		return "running"
	case ScrubFinished:
		return "scrub finished"
	case ResilverFinished:
		return "resilver finished"
	default:
		return "unknown"
	}
}

// ScrubFacts holds the parsed scan status of one pool. Which fields are
// meaningful depends on State: while running, PercentDone,
// TimeLeftSeconds, RepairedBytes and ElapsedSeconds; after completion,
// RepairedBytes, ErrorCount, DurationSeconds and SecondsSinceCompletion.
type ScrubFacts struct {
	Pool  string
	State ScrubState

	PercentDone     float64
	TimeLeftSeconds int64
	ElapsedSeconds  int64

	RepairedBytes          int64
	ErrorCount             int64
	DurationSeconds        int64
	SecondsSinceCompletion int64
}

// SubCheck is the outcome of one evaluation axis (newest-age, oldest-age,
// count, running-duration, ...).
type SubCheck struct {
	Severity Severity
	Message  string
}

// Metric is one perfdata entry. Warn and Crit are rendered verbatim and
// may be empty when no threshold applies to the value.
type Metric struct {
	Name  string
	Value string
	Warn  string
	Crit  string
}

// Result is the aggregated outcome for one entity, ready for rendering.
type Result struct {
	Entity   string
	Severity Severity
	Metrics  []Metric
	Message  string
}
