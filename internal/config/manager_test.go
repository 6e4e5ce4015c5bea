package config_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altmount-labs/streamio/internal/config"
)

func TestManagerGetConfigReturnsCurrent(t *testing.T) {
	cfg := config.DefaultConfig()
	m := config.NewManager(cfg, "")
	assert.Same(t, cfg, m.GetConfig())
}

func TestUpdateConfigRejectsInvalidConfig(t *testing.T) {
	m := config.NewManager(config.DefaultConfig(), "")
	bad := config.DefaultConfig()
	bad.TaskRunner.MaxWorkers = 0

	err := m.UpdateConfig(bad)
	assert.Error(t, err)
	assert.NotEqual(t, 0, m.GetConfig().TaskRunner.MaxWorkers, "a rejected update must not replace the live config")
}

func TestUpdateConfigNotifiesCallbacksWithDeepCopiedOld(t *testing.T) {
	initial := config.DefaultConfig()
	m := config.NewManager(initial, "")

	var gotOld, gotNew *config.Config
	m.OnConfigChange(func(oldConfig, newConfig *config.Config) {
		gotOld, gotNew = oldConfig, newConfig
	})

	updated := config.DefaultConfig()
	updated.TaskRunner.MaxWorkers = 42
	require.NoError(t, m.UpdateConfig(updated))

	require.NotNil(t, gotOld)
	assert.NotSame(t, initial, gotOld, "the callback's old config must be a deep copy, not the live pointer")
	assert.Equal(t, initial.TaskRunner.MaxWorkers, gotOld.TaskRunner.MaxWorkers)
	assert.Same(t, updated, gotNew)
	assert.Equal(t, 42, m.GetConfig().TaskRunner.MaxWorkers)
}

func TestMultipleCallbacksAllFire(t *testing.T) {
	m := config.NewManager(config.DefaultConfig(), "")
	var calls int
	m.OnConfigChange(func(oldConfig, newConfig *config.Config) { calls++ })
	m.OnConfigChange(func(oldConfig, newConfig *config.Config) { calls++ })

	require.NoError(t, m.UpdateConfig(config.DefaultConfig()))
	assert.Equal(t, 2, calls)
}

func TestSaveConfigThenLoadConfigRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "streamio.yaml")

	cfg := config.DefaultConfig()
	cfg.TaskRunner.MaxWorkers = 16
	m := config.NewManager(cfg, path)

	require.NoError(t, m.SaveConfig())

	loaded, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 16, loaded.TaskRunner.MaxWorkers)
}

func TestLoadConfigCreatesDefaultFileWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fresh.yaml")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().TaskRunner.MaxWorkers, cfg.TaskRunner.MaxWorkers)
	assert.FileExists(t, path)
}

func TestReloadConfigWithoutBackingFileFails(t *testing.T) {
	m := config.NewManager(config.DefaultConfig(), "")
	assert.Error(t, m.ReloadConfig())
}

func TestReloadConfigPicksUpFileChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "streamio.yaml")

	initial := config.DefaultConfig()
	require.NoError(t, config.SaveToFile(initial, path))

	m := config.NewManager(initial, path)

	updated := config.DefaultConfig()
	updated.TaskRunner.MaxWorkers = 99
	require.NoError(t, config.SaveToFile(updated, path))

	require.NoError(t, m.ReloadConfig())
	assert.Equal(t, 99, m.GetConfig().TaskRunner.MaxWorkers)
}
