package check

import (
	"fmt"
	"io"
	"sort"

	"github.com/styliteag/checkmk-plugin-zfs-snapshot-age/pkg/config"
	"github.com/styliteag/checkmk-plugin-zfs-snapshot-age/pkg/models"
	"k8s.io/klog/v2"
)

// FactSource provides the externally extracted facts the checker
// evaluates. The zfs package implements it on top of the zfs/zpool
// tools; tests implement it in memory.
type FactSource interface {
	ListSnapshots() (map[string][]models.Snapshot, error)
	GetUsedBytes(dataset string) (int64, error)
	ListPools() ([]string, error)
	GetScrubFacts(pool string, now int64) (*models.ScrubFacts, error)
}

// Checker runs one check family over all entities and writes one line
// per entity. Entities are evaluated independently: a failure on one
// produces that entity's UNKNOWN line and the run continues.
type Checker struct {
	config *config.Config
	source FactSource
	out    io.Writer
}

// NewChecker creates a new checker instance
func NewChecker(cfg *config.Config, source FactSource, out io.Writer) *Checker {
	return &Checker{
		config: cfg,
		source: source,
		out:    out,
	}
}

// snapshotLabel returns the service-name prefix for the snapshot check.
func (c *Checker) snapshotLabel() string {
	if c.config.CheckLabel != "" {
		return c.config.CheckLabel
	}
	return "zfs_snapshot_age"
}

// scrubLabel returns the service-name prefix for the scrub check.
func (c *Checker) scrubLabel() string {
	if c.config.CheckLabel != "" {
		return c.config.CheckLabel
	}
	return "zfs_scrub"
}

// RunSnapshots evaluates every dataset with matching snapshots plus the
// configured important datasets. A returned error means nothing was
// checked at all and the process should exit with the UNKNOWN code.
func (c *Checker) RunSnapshots(now int64) error {
	matches, err := c.config.SnapshotMatcher()
	if err != nil {
		return err
	}
	ignore, err := c.config.IgnoreMatcher()
	if err != nil {
		return err
	}

	allSnapshots, err := c.source.ListSnapshots()
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	// Pre-filter per dataset; datasets where nothing survives the
	// filter are not enumerated, only injected important ones surface
	// them as "no snapshots found".
	filtered := make(map[string][]models.Snapshot, len(allSnapshots))
	var datasets []string
	for dataset, snapshots := range allSnapshots {
		var kept []models.Snapshot
		for _, snapshot := range snapshots {
			if matches(snapshot.Name) {
				kept = append(kept, snapshot)
			}
		}
		if len(kept) > 0 {
			filtered[dataset] = kept
			datasets = append(datasets, dataset)
		}
	}

	entities := OrderEntities(datasets, ignore, c.config.ImportantDatasets)
	if len(entities) == 0 {
		return fmt.Errorf("no datasets with snapshots found")
	}

	label := c.snapshotLabel()
	for _, dataset := range entities {
		facts := &models.SnapshotFacts{
			Dataset:   dataset,
			Snapshots: filtered[dataset],
		}

		if facts.Count() > 0 {
			used, err := c.source.GetUsedBytes(dataset)
			if err != nil {
				klog.Warningf("Failed to read snapshot usage for %s: %v", dataset, err)
			} else {
				facts.UsedBytes = used
			}
		}

		result := EvaluateSnapshots(facts, c.config, now)
		fmt.Fprintln(c.out, FormatLine(label, result))
	}

	return nil
}

// RunScrub evaluates the scan status of every selected pool. A returned
// error means nothing was checked at all and the process should exit
// with the UNKNOWN code.
func (c *Checker) RunScrub(now int64) error {
	pools, err := c.source.ListPools()
	if err != nil {
		return fmt.Errorf("failed to list pools: %w", err)
	}
	if len(pools) == 0 {
		return fmt.Errorf("no pools found")
	}
	sort.Strings(pools)

	label := c.scrubLabel()
	for _, pool := range pools {
		facts, err := c.source.GetScrubFacts(pool, now)

		var result *models.Result
		if err != nil {
			klog.Warningf("Failed to read scrub status for %s: %v", pool, err)
			result = &models.Result{
				Entity:   pool,
				Severity: models.SeverityUnknown,
				Message:  fmt.Sprintf("failed to read scrub status: %v", err),
			}
		} else {
			result = EvaluateScrub(facts, c.config)
		}

		fmt.Fprintln(c.out, FormatLine(label, result))
	}

	return nil
}
