package models

import "time"

// Kind discriminates the two dataset types reported by zfs list.
type Kind int

const (
	KindFilesystem Kind = iota
	KindSnapshot
)

// String returns the zfs list -t argument for the kind.
func (k Kind) String() string {
	switch k {
	case KindSnapshot:
		return "snapshot"
	default:
		return "filesystem"
	}
}

// Dataset represents one filesystem or snapshot as reported by zfs list.
// Records are immutable after parsing and live for a single run.
type Dataset struct {
	// Name is the fully qualified dataset name. For a snapshot it embeds
	// the owning filesystem, e.g. "tank/www@zfs-snapshot_weekly-2019-12-30-1207".
	Name string

	// Filesystem is the owning filesystem. Equals Name for a filesystem
	// record; for a snapshot it is Name up to the first '@'.
	Filesystem string

	// Written is the used-bytes column of the dataset.
	Written uint64

	Kind Kind

	// AutoSnapshot is true if either the inherited com.sun:auto-snapshot
	// property or the per-label local property evaluates to "true".
	AutoSnapshot bool

	// Creation is the creation timestamp. The zero value means the listing
	// carried no creation column (older schema) or it was unparsable;
	// ordering then falls back to the name, whose timestamp suffix sorts
	// chronologically.
	Creation time.Time
}
