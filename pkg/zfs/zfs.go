package zfs

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/runningman84/zfs-autosnap/pkg/config"
	"github.com/runningman84/zfs-autosnap/pkg/models"
	"github.com/runningman84/zfs-autosnap/pkg/parser"
	"k8s.io/klog/v2"
)

// TimestampFormat renders a run timestamp so that lexicographic and
// chronological order coincide.
const TimestampFormat = "2006-01-02-1504"

// ErrNotSnapshot is returned when a destroy is requested for a record that
// is not a snapshot. This guards against destroying a live filesystem.
var ErrNotSnapshot = errors.New("only snapshots can be destroyed")

// SnapshotName composes the fully qualified name of a snapshot from its
// filesystem, prefix, label and timestamp. The same function, with an
// empty timestamp, yields the match prefix used when filtering a listing,
// so generation and parsing cannot drift apart.
func SnapshotName(filesystem, prefix, label, timestamp string) string {
	return fmt.Sprintf("%s%s%s_%s-%s", filesystem, parser.SnapshotSeparator, prefix, label, timestamp)
}

// Manager handles zfs invocations
type Manager struct {
	config *config.Config
}

// NewManager creates a new zfs manager
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		config: cfg,
	}
}

// logCommand logs the command being executed if debug mode is enabled
func (m *Manager) logCommand(args []string) {
	if m.config.IsDebug() {
		klog.V(1).Infof(" Executing command: %s %v", m.config.ZFSCmd, args)
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

// run executes the zfs binary with the given arguments and returns its
// combined output.
func (m *Manager) run(args ...string) ([]byte, error) {
	m.logCommand(args)
	cmd := exec.Command(m.config.ZFSCmd, args...)
	output, err := cmd.CombinedOutput()
	exitCode := 0
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			exitCode = exitError.ExitCode()
		}
		m.logCommandResult(exitCode, output)
		return output, err
	}
	m.logCommandResult(0, output)
	return output, nil
}

// ListDatasets retrieves all datasets of the given kind as a tab-separated
// header-less report and parses it into records.
func (m *Manager) ListDatasets(kind models.Kind) ([]*models.Dataset, error) {
	columns := fmt.Sprintf("name,used,%s,%s:%s,creation",
		config.AutoSnapshotProperty, config.AutoSnapshotProperty, m.config.Label)
	args := []string{"list", "-Hp", "-o", columns, "-t", kind.String()}

	output, err := m.run(args...)
	if err != nil {
		return nil, fmt.Errorf("zfs list failed: %w, output: %s", err, string(output))
	}

	datasets, err := parser.ParseList(string(output), kind)
	if err != nil {
		return nil, fmt.Errorf("failed to parse zfs list output: %w", err)
	}

	return datasets, nil
}

// CreateSnapshot creates a snapshot of the given filesystem, named for the
// run timestamp. In dry-run mode the call is logged but not executed.
func (m *Manager) CreateSnapshot(fs *models.Dataset, timestamp string) (string, error) {
	name := SnapshotName(fs.Name, m.config.Prefix, m.config.Label, timestamp)

	if m.config.DryRun {
		klog.Infof("[DRY-RUN] Would create snapshot %s", name)
		return name, nil
	}

	klog.Infof("Creating snapshot %s", name)
	if output, err := m.run("snapshot", name); err != nil {
		return name, fmt.Errorf("zfs snapshot failed: %w, output: %s", err, string(output))
	}

	return name, nil
}

// DestroySnapshot destroys the given snapshot. Destroying anything but a
// snapshot record fails with ErrNotSnapshot. In dry-run mode the call is
// logged but not executed.
func (m *Manager) DestroySnapshot(snap *models.Dataset) error {
	if snap.Kind != models.KindSnapshot {
		return fmt.Errorf("%w: %s is a %s", ErrNotSnapshot, snap.Name, snap.Kind)
	}

	if m.config.DryRun {
		klog.Infof("[DRY-RUN] Would destroy snapshot %s", snap.Name)
		return nil
	}

	klog.Infof("Destroying snapshot %s", snap.Name)
	if output, err := m.run("destroy", snap.Name); err != nil {
		return fmt.Errorf("zfs destroy failed: %w, output: %s", err, string(output))
	}

	return nil
}
