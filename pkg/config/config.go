package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/robfig/cron/v3"
)

// DefaultPrefix is the snapshot name prefix used when none is configured.
const DefaultPrefix = "zfs-snapshot"

// DefaultKeep is the number of recent snapshots retained per filesystem
// and label when none is configured.
const DefaultKeep = 8

// AutoSnapshotProperty is the ZFS user property that opts a filesystem in
// to automatic snapshots. The per-label variant is AutoSnapshotProperty
// suffixed with ":<label>".
const AutoSnapshotProperty = "com.sun:auto-snapshot"

// Config holds the application configuration. It is populated once at
// startup (env defaults, then flags) and passed down; nothing below the
// command layer reads the environment.
type Config struct {
	// Label distinguishes independent retention policies on the same
	// filesystem, e.g. "hourly" or "daily".
	Label string

	// Keep is the number of most recent snapshots to retain per
	// filesystem/label. Zero means every matching snapshot is expendable.
	Keep int

	// MinSize is the minimum bytes written since the last snapshot for a
	// new snapshot to be warranted. Zero means always eligible.
	MinSize uint64

	// Prefix is the first component of generated snapshot names.
	Prefix string

	// DryRun logs mutating zfs calls without executing them.
	DryRun bool

	// ZFSCmd is the zfs executable to invoke. Defaults to the ZFS_CMD
	// environment variable, falling back to "zfs" on PATH.
	ZFSCmd string

	// Schedule is an optional cron expression. Empty means run once and
	// exit; otherwise the run repeats on every schedule boundary.
	Schedule string

	LogLevel string
}

// NewConfig creates a configuration from environment defaults. Flags
// override the returned values in the command layer.
func NewConfig() *Config {
	return &Config{
		Keep:     getEnvAsInt("SNAPSHOT_KEEP", DefaultKeep),
		MinSize:  getEnvAsUint("SNAPSHOT_MIN_SIZE", 0),
		Prefix:   getEnv("SNAPSHOT_PREFIX", DefaultPrefix),
		ZFSCmd:   getEnv("ZFS_CMD", "zfs"),
		LogLevel: "info",
	}
}

// Validate checks the configuration before a run.
func (c *Config) Validate() error {
	if c.Label == "" {
		return fmt.Errorf("label must not be empty")
	}
	if c.Keep < 0 {
		return fmt.Errorf("keep must not be negative, got %d", c.Keep)
	}
	if c.Prefix == "" {
		return fmt.Errorf("prefix must not be empty")
	}
	if c.ZFSCmd == "" {
		return fmt.Errorf("zfs executable path must not be empty")
	}
	if c.Schedule != "" {
		if _, err := ParseSchedule(c.Schedule); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", c.Schedule, err)
		}
	}
	return nil
}

// IsDebug reports whether debug logging is enabled.
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// cronParser accepts standard five-field expressions plus descriptors
// like "@hourly".
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses a cron expression into a schedule.
func ParseSchedule(spec string) (cron.Schedule, error) {
	return cronParser.Parse(spec)
}

// getEnv reads an environment variable, or returns the default value if
// not set
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable and returns it as an integer,
// or returns the default value if not set or invalid
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsUint reads an environment variable and returns it as an unsigned
// integer, or returns the default value if not set or invalid
func getEnvAsUint(key string, defaultValue uint64) uint64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}
