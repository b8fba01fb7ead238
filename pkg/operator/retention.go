package operator

import (
	"sort"
	"strings"

	"github.com/runningman84/zfs-autosnap/pkg/models"
	"github.com/runningman84/zfs-autosnap/pkg/zfs"
	"k8s.io/klog/v2"
)

// matchingSnapshots filters the listing to snapshots that belong to the
// given filesystem under the configured prefix and label, sorted oldest
// first. Snapshots of other labels on the same filesystem are left alone,
// so independent retention policies coexist.
func (o *Operator) matchingSnapshots(fs *models.Dataset, snapshots []*models.Dataset) []*models.Dataset {
	prefix := zfs.SnapshotName(fs.Name, o.config.Prefix, o.config.Label, "")

	var matched []*models.Dataset
	for _, snap := range snapshots {
		if snap.Filesystem != fs.Name {
			continue
		}
		if !strings.HasPrefix(snap.Name, prefix) {
			continue
		}
		matched = append(matched, snap)
	}

	klog.V(1).Infof(" Filtered snapshots for '%s', found %d", prefix, len(matched))

	// Oldest first. Unknown creation times and ties fall back to the name,
	// whose timestamp suffix sorts chronologically.
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.Creation.IsZero() && !b.Creation.IsZero() && !a.Creation.Equal(b.Creation) {
			return a.Creation.Before(b.Creation)
		}
		return a.Name < b.Name
	})

	return matched
}

// ExpendableSnapshots returns the snapshots of the given filesystem that
// fall outside the retention window, oldest first. The most recent Keep
// snapshots are retained; with fewer than Keep snapshots nothing is
// expendable.
func (o *Operator) ExpendableSnapshots(fs *models.Dataset, snapshots []*models.Dataset) []*models.Dataset {
	matched := o.matchingSnapshots(fs, snapshots)
	if len(matched) <= o.config.Keep {
		return nil
	}
	return matched[:len(matched)-o.config.Keep]
}

// SnapshotNeeded decides whether a new snapshot of the filesystem is
// warranted. The first snapshot is always taken; after that, one is taken
// only when the most recent snapshot reports more than MinSize bytes
// written.
func (o *Operator) SnapshotNeeded(fs *models.Dataset, snapshots []*models.Dataset) bool {
	matched := o.matchingSnapshots(fs, snapshots)
	if len(matched) == 0 {
		return true
	}
	latest := matched[len(matched)-1]
	return latest.Written > o.config.MinSize
}
