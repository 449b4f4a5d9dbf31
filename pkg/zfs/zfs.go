package zfs

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/styliteag/checkmk-plugin-zfs-snapshot-age/pkg/config"
	"github.com/styliteag/checkmk-plugin-zfs-snapshot-age/pkg/models"
	"github.com/styliteag/checkmk-plugin-zfs-snapshot-age/pkg/parser"
	"k8s.io/klog/v2"
)

// Manager extracts snapshot and scrub facts from the zfs/zpool tools
type Manager struct {
	config *config.Config
}

// NewManager creates a new ZFS manager
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		config: cfg,
	}
}

// logCommand logs the command being executed if debug mode is enabled
func (m *Manager) logCommand(cmdArgs []string) {
	if m.config.IsDebug() {
		klog.V(1).Infof(" Executing command: %v", cmdArgs)
	}
}

// logCommandResult logs the command result if debug mode is enabled
func (m *Manager) logCommandResult(exitCode int, output []byte) {
	if m.config.IsDebug() {
		klog.V(1).Infof(" Exit code: %d", exitCode)
		if len(output) > 0 {
			klog.V(1).Infof(" output: %s", string(output))
		}
	}
}

// run executes a configured command with extra arguments appended. In
// test mode the configured command is a fixture dump and extra arguments
// are dropped.
func (m *Manager) run(baseCmd []string, extraArgs ...string) ([]byte, error) {
	cmdArgs := baseCmd
	if m.config.Mode != "test" {
		cmdArgs = append(append([]string{}, baseCmd...), extraArgs...)
	}
	m.logCommand(cmdArgs)

	cmd := exec.Command(cmdArgs[0], cmdArgs[1:]...)
	output, err := cmd.CombinedOutput()
	exitCode := 0
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			exitCode = exitError.ExitCode()
		}
		m.logCommandResult(exitCode, output)
		return nil, fmt.Errorf("command failed: %w, output: %s", err, string(output))
	}
	m.logCommandResult(0, output)

	return output, nil
}

// ListSnapshots retrieves all snapshots grouped by dataset, restricted to
// the configured pools when a pool selector is set.
func (m *Manager) ListSnapshots() (map[string][]models.Snapshot, error) {
	var extraArgs []string
	if len(m.config.Pools) > 0 {
		extraArgs = append([]string{"-r"}, m.config.Pools...)
	}

	output, err := m.run(m.config.ZFSListSnapshotsCmd, extraArgs...)
	if err != nil {
		return nil, err
	}

	snapshots, skipped := parser.ParseSnapshotList(output)
	if skipped > 0 {
		klog.Warningf("Skipped %d malformed snapshot list line(s)", skipped)
	}

	return snapshots, nil
}

// GetUsedBytes retrieves the space consumed by a dataset's snapshots. The
// tool reports a human-readable size string which is converted to bytes.
func (m *Manager) GetUsedBytes(dataset string) (int64, error) {
	output, err := m.run(m.config.ZFSUsedCmd, dataset)
	if err != nil {
		return 0, err
	}

	sizeStr := strings.TrimSpace(strings.SplitN(string(output), "\n", 2)[0])
	used, err := parser.ParseSize(sizeStr)
	if err != nil {
		return 0, fmt.Errorf("failed to parse snapshot usage for %s: %w", dataset, err)
	}

	return used, nil
}

// ListPools retrieves the names of all imported pools, restricted to the
// configured pool selector when one is set.
func (m *Manager) ListPools() ([]string, error) {
	output, err := m.run(m.config.ZPoolListCmd)
	if err != nil {
		return nil, err
	}

	var pools []string
	for _, pool := range parser.ParsePoolList(output) {
		if m.config.IsPoolAllowed(pool) {
			pools = append(pools, pool)
		}
	}

	return pools, nil
}

// GetScrubFacts retrieves and parses the scan status of one pool. now is
// the reference timestamp for elapsed and since-completion times.
func (m *Manager) GetScrubFacts(pool string, now int64) (*models.ScrubFacts, error) {
	output, err := m.run(m.config.ZPoolStatusCmd, pool)
	if err != nil {
		return nil, err
	}

	facts, err := parser.ParseScanStatus(pool, output, now)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scan status: %w", err)
	}

	return facts, nil
}
