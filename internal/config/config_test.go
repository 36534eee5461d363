package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logindb/internal/record"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/var/run/utmp", cfg.UtmpPath)
	assert.Equal(t, record.Narrow, cfg.WidthFor("/var/log/lastlog"))
	assert.Equal(t, record.Wide, cfg.WidthFor("/var/log/wtmp"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "empty path", mutate: func(c *Config) { c.UtmpPath = "" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.LockTimeout = 0 }, wantErr: true},
		{name: "negative cache", mutate: func(c *Config) { c.SlotCacheSize = -1 }, wantErr: true},
		{name: "nil logger is replaced", mutate: func(c *Config) { c.Logger = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, cfg.Logger)
		})
	}
}

func TestResolvePath(t *testing.T) {
	dir := t.TempDir()
	canonical := filepath.Join(dir, "utmp")
	cfg := DefaultConfig()

	assert.Equal(t, canonical, cfg.ResolvePath(canonical, record.Wide))
	assert.Equal(t, canonical, cfg.ResolvePath(canonical, record.Narrow), "falls back while legacy file is absent")

	legacy := canonical + DefaultLegacySuffix
	require.NoError(t, os.WriteFile(legacy, nil, 0644))
	assert.Equal(t, legacy, cfg.ResolvePath(canonical, record.Narrow))
	assert.Equal(t, canonical, cfg.ResolvePath(canonical, record.Wide))

	cfg.LegacySuffix = ""
	assert.Equal(t, canonical, cfg.ResolvePath(canonical, record.Narrow))
}
