package config

import (
	"testing"
	"time"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	if cfg.Keep != DefaultKeep {
		t.Errorf("Keep = %d, want %d", cfg.Keep, DefaultKeep)
	}
	if cfg.MinSize != 0 {
		t.Errorf("MinSize = %d, want 0", cfg.MinSize)
	}
	if cfg.Prefix != DefaultPrefix {
		t.Errorf("Prefix = %v, want %v", cfg.Prefix, DefaultPrefix)
	}
	if cfg.ZFSCmd != "zfs" {
		t.Errorf("ZFSCmd = %v, want zfs", cfg.ZFSCmd)
	}
	if cfg.DryRun {
		t.Error("DryRun = true, want false")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
}

func TestNewConfigEnvOverrides(t *testing.T) {
	t.Setenv("SNAPSHOT_KEEP", "3")
	t.Setenv("SNAPSHOT_MIN_SIZE", "1048576")
	t.Setenv("SNAPSHOT_PREFIX", "autosnap")
	t.Setenv("ZFS_CMD", "/usr/local/sbin/zfs")

	cfg := NewConfig()

	if cfg.Keep != 3 {
		t.Errorf("Keep = %d, want 3", cfg.Keep)
	}
	if cfg.MinSize != 1048576 {
		t.Errorf("MinSize = %d, want 1048576", cfg.MinSize)
	}
	if cfg.Prefix != "autosnap" {
		t.Errorf("Prefix = %v, want autosnap", cfg.Prefix)
	}
	if cfg.ZFSCmd != "/usr/local/sbin/zfs" {
		t.Errorf("ZFSCmd = %v, want /usr/local/sbin/zfs", cfg.ZFSCmd)
	}
}

func TestNewConfigInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("SNAPSHOT_KEEP", "not-a-number")
	t.Setenv("SNAPSHOT_MIN_SIZE", "-5")

	cfg := NewConfig()

	if cfg.Keep != DefaultKeep {
		t.Errorf("Keep = %d, want default %d for invalid env value", cfg.Keep, DefaultKeep)
	}
	if cfg.MinSize != 0 {
		t.Errorf("MinSize = %d, want default 0 for invalid env value", cfg.MinSize)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := NewConfig()
		cfg.Label = "weekly"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing label",
			mutate:  func(c *Config) { c.Label = "" },
			wantErr: true,
		},
		{
			name:    "negative keep",
			mutate:  func(c *Config) { c.Keep = -1 },
			wantErr: true,
		},
		{
			name:    "zero keep is allowed",
			mutate:  func(c *Config) { c.Keep = 0 },
			wantErr: false,
		},
		{
			name:    "empty prefix",
			mutate:  func(c *Config) { c.Prefix = "" },
			wantErr: true,
		},
		{
			name:    "empty zfs command",
			mutate:  func(c *Config) { c.ZFSCmd = "" },
			wantErr: true,
		},
		{
			name:    "valid schedule",
			mutate:  func(c *Config) { c.Schedule = "@hourly" },
			wantErr: false,
		},
		{
			name:    "invalid schedule",
			mutate:  func(c *Config) { c.Schedule = "every sunday" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseSchedule(t *testing.T) {
	sched, err := ParseSchedule("0 * * * *")
	if err != nil {
		t.Fatalf("ParseSchedule() error = %v", err)
	}

	now := time.Date(2019, 12, 30, 12, 7, 0, 0, time.UTC)
	next := sched.Next(now)
	want := time.Date(2019, 12, 30, 13, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("Next(%v) = %v, want %v", now, next, want)
	}
}

func TestParseScheduleDescriptor(t *testing.T) {
	if _, err := ParseSchedule("@daily"); err != nil {
		t.Errorf("ParseSchedule(@daily) error = %v", err)
	}
}
