package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("INI_FILE_NAME", "")
	t.Setenv("PLASMAC_FILTER_CONFIG", "")
	for _, v := range envVars {
		t.Setenv(v, "")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "mm", cfg.Units)
	assert.True(t, cfg.Metric())
	assert.Equal(t, "none", cfg.Sync)
	assert.Equal(t, 3*time.Second, cfg.SyncTimeout.Duration)
	assert.Equal(t, "/tmp/qtplasmac", cfg.TempDir)
	assert.Equal(t, "/tmp/qtplasmac/gcode_errors.txt", cfg.ErrorFile)
	assert.Equal(t, "/tmp/qtplasmac/filtered_bkp.ngc", cfg.FilteredBackup)
	assert.Equal(t, "/tmp/qtplasmac/plasmac_material.gcode", cfg.TemporaryMaterialFile())
}

func TestLoadMachineINI(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	ini := filepath.Join(dir, "metric_plasma.ini")
	writeFile(t, ini, "[EMC]\nMACHINE = metric_plasma\n\n[DISPLAY]\nDISPLAY = axis\n\n[TRAJ]\nLINEAR_UNITS = inch\n")
	writeFile(t, filepath.Join(dir, "metric_plasma_material.cfg"), "")
	t.Setenv("INI_FILE_NAME", ini)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "metric_plasma", cfg.Machine)
	assert.Equal(t, "inch", cfg.Units)
	assert.Equal(t, "axis", cfg.GUI)
	assert.Equal(t, "hal", cfg.Sync)
	assert.Equal(t, "/tmp/plasmac", cfg.TempDir)
	assert.Equal(t, filepath.Join(dir, "metric_plasma_material.cfg"), cfg.MaterialFile)
	assert.Equal(t, filepath.Join(dir, "metric_plasma.prefs"), cfg.PrefsFile)
}

func TestLoadTOMLAndEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "filter.toml")
	writeFile(t, path, `
machine = "table"
units = "inch"
kerf_policy = "ignored"
sync = "file"
sync_timeout = "500ms"
z_max_offset = 2.5
material_file = "/etc/table_material.cfg"
`)
	t.Setenv("PLASMAC_SYNC_TIMEOUT", "2s")
	t.Setenv("PLASMAC_PIERCE_ONLY", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "table", cfg.Machine)
	assert.Equal(t, "inch", cfg.Units)
	assert.Equal(t, "ignored", cfg.KerfPolicy)
	assert.Equal(t, 2.5, cfg.ZMaxOffset)
	assert.Equal(t, 2*time.Second, cfg.SyncTimeout.Duration)
	assert.True(t, cfg.PierceOnly)
	assert.Equal(t, "/etc/table_material.cfg", cfg.MaterialFile)
	assert.Equal(t, "table.prefs", filepath.Base(cfg.PrefsFile))
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err, "explicit config file must exist")

	path := filepath.Join(t.TempDir(), "bad.toml")
	writeFile(t, path, `units = "furlong"`)
	_, err = Load(path)
	assert.Error(t, err)

	writeFile(t, path, `sync_timeout = "soon"`)
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoadFrom(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "other_material.cfg"), "")
	writeFile(t, filepath.Join(dir, "other.prefs"), "")

	layout := LoadFrom(dir, "plasmac")
	assert.Equal(t, filepath.Join(dir, "other_material.cfg"), layout.MaterialFile)
	assert.Equal(t, filepath.Join(dir, "other.prefs"), layout.PrefsFile)

	empty := LoadFrom(t.TempDir(), "plasmac")
	assert.Equal(t, "plasmac_material.cfg", filepath.Base(empty.MaterialFile))
}
