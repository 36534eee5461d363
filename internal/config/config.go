package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"time"

	"logindb/internal/lock"
	"logindb/internal/record"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const (
	DefaultUtmpPath     = "/var/run/utmp"
	DefaultWtmpPath     = "/var/log/wtmp"
	DefaultLastlogPath  = "/var/log/lastlog"
	DefaultLegacySuffix = ".time32"
)

type Config struct {
	UtmpPath    string // canonical (wide) login record file
	WtmpPath    string // append-only login history
	LastlogPath string

	// LegacySuffix derives the narrow file name from a canonical one.
	LegacySuffix string

	// NarrowPaths are always read and written with the narrow layout.
	NarrowPaths []string

	LockTimeout   time.Duration
	SlotCacheSize int64 // max remembered slot positions per store

	Logger *log.Logger
}

func DefaultConfig() Config {
	return Config{
		UtmpPath:      DefaultUtmpPath,
		WtmpPath:      DefaultWtmpPath,
		LastlogPath:   DefaultLastlogPath,
		LegacySuffix:  DefaultLegacySuffix,
		NarrowPaths:   []string{DefaultLastlogPath},
		LockTimeout:   lock.DefaultTimeout,
		SlotCacheSize: 1024,
		Logger:        log.New(io.Discard, "", 0),
	}
}

func (c *Config) Validate() error {
	if c.UtmpPath == "" {
		return fmt.Errorf("%w: empty utmp path", ErrInvalidConfig)
	}
	if c.LockTimeout <= 0 {
		return fmt.Errorf("%w: lock timeout must be positive", ErrInvalidConfig)
	}
	if c.SlotCacheSize < 0 {
		return fmt.Errorf("%w: negative slot cache size", ErrInvalidConfig)
	}
	if c.Logger == nil {
		c.Logger = log.New(io.Discard, "", 0)
	}
	return nil
}

// ResolvePath returns the file that holds records of width w for the
// canonical path. The narrow file is canonical+LegacySuffix when it exists;
// otherwise old data keeps being served from the canonical file.
func (c Config) ResolvePath(canonical string, w record.Width) string {
	if w == record.Wide || c.LegacySuffix == "" {
		return canonical
	}
	legacy := canonical + c.LegacySuffix
	if _, err := os.Stat(legacy); err != nil {
		return canonical
	}
	return legacy
}

// WidthFor returns the layout a file is pinned to.
func (c Config) WidthFor(path string) record.Width {
	if slices.Contains(c.NarrowPaths, path) {
		return record.Narrow
	}
	return record.Wide
}
