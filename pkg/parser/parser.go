package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/runningman84/zfs-autosnap/pkg/models"
)

// SnapshotSeparator splits a snapshot name into its owning filesystem and
// the generated suffix. It must match the separator used by snapshot name
// generation so that parsed records round-trip.
const SnapshotSeparator = "@"

// minFields is the minimum column count of a zfs list -Hp report:
// name, used, auto-snapshot (inherited), auto-snapshot (per-label).
// A fifth creation-epoch column is present in later schema variants.
const minFields = 4

// ErrMalformedRecord is returned when a listing line does not carry the
// minimum required tab-separated fields.
var ErrMalformedRecord = errors.New("malformed record")

// ParseLine parses one tab-separated line of zfs list -Hp output into a
// dataset record. Unparsable numeric fields default to zero instead of
// failing the run; a line with fewer than the required columns or an empty
// name fails with ErrMalformedRecord.
func ParseLine(line string, kind models.Kind) (*models.Dataset, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < minFields {
		return nil, fmt.Errorf("%w: expected at least %d tab-separated fields, got %d in %q",
			ErrMalformedRecord, minFields, len(fields), line)
	}

	name := fields[0]
	if name == "" {
		return nil, fmt.Errorf("%w: empty dataset name in %q", ErrMalformedRecord, line)
	}

	// Tolerant by policy: zfs occasionally reports "-" for sizes.
	written, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		written = 0
	}

	ds := &models.Dataset{
		Name:         name,
		Filesystem:   owningFilesystem(name, kind),
		Written:      written,
		Kind:         kind,
		AutoSnapshot: autoSnapshotEnabled(fields[2], fields[3]),
	}

	if len(fields) > minFields {
		if epoch, err := strconv.ParseInt(fields[minFields], 10, 64); err == nil {
			ds.Creation = time.Unix(epoch, 0).UTC()
		}
	}

	return ds, nil
}

// ParseList parses the multi-line output of a zfs list invocation, skipping
// empty lines. Any malformed line fails the whole listing, since the report
// format is otherwise assumed reliable.
func ParseList(output string, kind models.Kind) ([]*models.Dataset, error) {
	var datasets []*models.Dataset
	for _, line := range strings.Split(output, "\n") {
		if line == "" {
			continue
		}
		ds, err := ParseLine(line, kind)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}
	return datasets, nil
}

// autoSnapshotEnabled combines the inherited com.sun:auto-snapshot property
// with the per-label local property. Either one set to "true" opts the
// dataset in; there is no precedence between them, it is a plain OR.
func autoSnapshotEnabled(inherited, local string) bool {
	return inherited == "true" || local == "true"
}

// owningFilesystem derives the filesystem a record belongs to. A snapshot
// name carries its filesystem before the first separator; a filesystem is
// its own owner.
func owningFilesystem(name string, kind models.Kind) string {
	if kind == models.KindSnapshot {
		if fs, _, found := strings.Cut(name, SnapshotSeparator); found {
			return fs
		}
	}
	return name
}
