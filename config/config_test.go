package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 100, cfg.Table.SmallBlind)
	assert.Equal(t, 200, cfg.Table.BigBlind)
	assert.Equal(t, 20000, cfg.Table.BuyIn)
	assert.Equal(t, 6, cfg.Table.MaxPlayers)
	assert.Equal(t, 5*time.Second, cfg.Table.NextHandDelay)
	assert.Equal(t, 10*time.Minute, cfg.Table.EmptyTTL)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "holdem.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
listen: ":9000"
table:
  small_blind: 5
  big_blind: 10
  next_hand_delay: 2s
  empty_ttl: 1m
`), 0o644))
	t.Setenv("HOLDEM_TABLE_MAX_PLAYERS", "9")
	t.Setenv("HOLDEM_LOG_LEVEL", "debug")

	cfg, err := Load(viper.New(), file)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.Table.SmallBlind)
	assert.Equal(t, 10, cfg.Table.BigBlind)
	assert.Equal(t, 9, cfg.Table.MaxPlayers)
	assert.Equal(t, 2*time.Second, cfg.Table.NextHandDelay)
	assert.Equal(t, time.Minute, cfg.Table.EmptyTTL)
	assert.Equal(t, 20000, cfg.Table.BuyIn)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsBadRules(t *testing.T) {
	t.Setenv("HOLDEM_TABLE_MAX_PLAYERS", "1")
	chdir(t, t.TempDir())

	_, err := Load(viper.New(), "")
	assert.Error(t, err)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
