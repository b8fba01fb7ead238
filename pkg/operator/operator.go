package operator

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/runningman84/zfs-autosnap/pkg/config"
	"github.com/runningman84/zfs-autosnap/pkg/models"
	"github.com/runningman84/zfs-autosnap/pkg/zfs"
	"k8s.io/klog/v2"
)

// zfsManager is the external-tool boundary the operator drives. Satisfied
// by zfs.Manager; replaced by a mock in tests.
type zfsManager interface {
	ListDatasets(kind models.Kind) ([]*models.Dataset, error)
	CreateSnapshot(fs *models.Dataset, timestamp string) (string, error)
	DestroySnapshot(snap *models.Dataset) error
}

// Operator applies the snapshot rotation policy to every opted-in
// filesystem.
type Operator struct {
	config           *config.Config
	manager          zfsManager
	creationCount    int // snapshots created in current run
	destructionCount int // snapshots destroyed in current run
}

// NewOperator creates a new operator instance
func NewOperator(cfg *config.Config) *Operator {
	return &Operator{
		config:  cfg,
		manager: zfs.NewManager(cfg),
	}
}

// Run executes one pass of the snapshot rotation policy. The listing is
// fetched once and treated as an immutable view of the pool state for the
// whole pass. Per-filesystem failures are logged and do not stop the
// processing of the remaining filesystems.
func (o *Operator) Run(now time.Time) error {
	o.creationCount = 0
	o.destructionCount = 0

	timestamp := now.UTC().Format(zfs.TimestampFormat)

	o.logConfig()

	snapshots, err := o.manager.ListDatasets(models.KindSnapshot)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	filesystems, err := o.manager.ListDatasets(models.KindFilesystem)
	if err != nil {
		return fmt.Errorf("failed to list filesystems: %w", err)
	}

	var errs []error
	for _, fs := range filesystems {
		if !fs.AutoSnapshot {
			klog.V(1).Infof(" Skipping filesystem %s (auto-snapshot not enabled)", fs.Name)
			continue
		}
		if err := o.processFilesystem(fs, snapshots, timestamp); err != nil {
			klog.Errorf("Error processing filesystem %s: %v", fs.Name, err)
			errs = append(errs, fmt.Errorf("filesystem %s: %w", fs.Name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("run encountered %d error(s)", len(errs))
	}

	klog.Infof("Run completed successfully - created %d snapshot(s), destroyed %d snapshot(s)",
		o.creationCount, o.destructionCount)
	return nil
}

func (o *Operator) logConfig() {
	klog.Infof("Current config")
	klog.Infof("Label: %s", o.config.Label)
	klog.Infof("Prefix: %s", o.config.Prefix)
	klog.Infof("Keep: %d snapshot(s)", o.config.Keep)
	klog.Infof("Min size: %s", humanize.IBytes(o.config.MinSize))
	klog.Infof("ZFS executable: %s", o.config.ZFSCmd)
	if o.config.DryRun {
		klog.Infof("Dry-run mode enabled")
	}
}

// processFilesystem rotates the snapshots of one filesystem: the
// expendable set is computed before the new snapshot exists, so a
// just-created snapshot is never a removal candidate in the same pass,
// and nothing is destroyed unless creation succeeded.
func (o *Operator) processFilesystem(fs *models.Dataset, snapshots []*models.Dataset, timestamp string) error {
	klog.Infof("Processing filesystem %s (%s written)", fs.Name, humanize.IBytes(fs.Written))

	if !o.SnapshotNeeded(fs, snapshots) {
		klog.Infof("Skipping filesystem %s (less than %s written since last snapshot)",
			fs.Name, humanize.IBytes(o.config.MinSize))
		return nil
	}

	expendable := o.ExpendableSnapshots(fs, snapshots)

	name, err := o.manager.CreateSnapshot(fs, timestamp)
	if err != nil {
		// Keep the old snapshots when creation fails.
		return fmt.Errorf("failed to create snapshot %s: %w", name, err)
	}
	o.creationCount++

	for _, snap := range expendable {
		if err := o.manager.DestroySnapshot(snap); err != nil {
			klog.Errorf("Failed to destroy snapshot %s: %v", snap.Name, err)
			continue
		}
		o.destructionCount++
	}

	klog.Infof("Finished filesystem %s", fs.Name)
	return nil
}
