// Package config resolves the filter settings from the LinuxCNC machine
// INI, an optional TOML file and PLASMAC_* environment variables, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration written as "3s" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Config struct {
	Machine         string   `toml:"machine"`
	Units           string   `toml:"units"`
	ConfigDir       string   `toml:"config_dir"`
	MaterialFile    string   `toml:"material_file"`
	PrefsFile       string   `toml:"prefs_file"`
	TempDir         string   `toml:"temp_dir"`
	GUI             string   `toml:"gui"`
	KerfPolicy      string   `toml:"kerf_policy"`
	Sync            string   `toml:"sync"`
	HALCommand      string   `toml:"hal_command"`
	SyncTimeout     Duration `toml:"sync_timeout"`
	PollInterval    Duration `toml:"poll_interval"`
	ZMaxOffset      float64  `toml:"z_max_offset"`
	PierceOnly      bool     `toml:"pierce_only"`
	InitialMaterial int      `toml:"initial_material"`
	ErrorFile       string   `toml:"error_file"`
	FilteredBackup  string   `toml:"filtered_backup"`
	ReportFile      string   `toml:"report_file"`
	ReportFormat    string   `toml:"report_format"`
	MetricsFile     string   `toml:"metrics_file"`
}

func Default() Config {
	return Config{
		Machine:      "plasmac",
		Units:        "mm",
		ConfigDir:    ".",
		GUI:          "qtplasmac",
		KerfPolicy:   "applied",
		Sync:         "none",
		HALCommand:   "halcmd",
		SyncTimeout:  Duration{3 * time.Second},
		PollInterval: Duration{100 * time.Millisecond},
		ZMaxOffset:   5,
		ReportFormat: "text",
	}
}

// Load builds the configuration. path names a TOML file; when empty
// PLASMAC_FILTER_CONFIG is consulted and a missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if ini := os.Getenv("INI_FILE_NAME"); ini != "" {
		m, err := LoadMachine(ini)
		if err != nil {
			return cfg, err
		}
		cfg.applyMachine(m)
	}

	explicit := path != ""
	if !explicit {
		path = os.Getenv("PLASMAC_FILTER_CONFIG")
		explicit = path != ""
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return cfg, err
			}
		}
	}

	cfg.loadFromEnv()
	cfg.resolvePaths()
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyMachine(m *Machine) {
	if m.Name != "" {
		c.Machine = m.Name
	}
	if m.Units != "" {
		c.Units = m.Units
	}
	c.ConfigDir = m.Dir
	if m.GUI != "" {
		c.GUI = m.GUI
	}
	c.Sync = "hal"
}

var envVars = []string{
	"PLASMAC_MACHINE",
	"PLASMAC_UNITS",
	"PLASMAC_CONFIG_DIR",
	"PLASMAC_MATERIAL_FILE",
	"PLASMAC_PREFS_FILE",
	"PLASMAC_TEMP_DIR",
	"PLASMAC_GUI",
	"PLASMAC_KERF_POLICY",
	"PLASMAC_SYNC",
	"PLASMAC_HAL_COMMAND",
	"PLASMAC_SYNC_TIMEOUT",
	"PLASMAC_POLL_INTERVAL",
	"PLASMAC_Z_MAX_OFFSET",
	"PLASMAC_PIERCE_ONLY",
	"PLASMAC_INITIAL_MATERIAL",
	"PLASMAC_METRICS_FILE",
}

func (c *Config) loadFromEnv() {
	values := make(map[string]string)
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			values[envVar] = value
		}
	}

	for k, v := range values {
		switch k {
		case "PLASMAC_MACHINE":
			c.Machine = v
		case "PLASMAC_UNITS":
			c.Units = v
		case "PLASMAC_CONFIG_DIR":
			c.ConfigDir = v
		case "PLASMAC_MATERIAL_FILE":
			c.MaterialFile = v
		case "PLASMAC_PREFS_FILE":
			c.PrefsFile = v
		case "PLASMAC_TEMP_DIR":
			c.TempDir = v
		case "PLASMAC_GUI":
			c.GUI = v
		case "PLASMAC_KERF_POLICY":
			c.KerfPolicy = v
		case "PLASMAC_SYNC":
			c.Sync = v
		case "PLASMAC_HAL_COMMAND":
			c.HALCommand = v
		case "PLASMAC_SYNC_TIMEOUT":
			if d, err := time.ParseDuration(v); err == nil {
				c.SyncTimeout = Duration{d}
			}
		case "PLASMAC_POLL_INTERVAL":
			if d, err := time.ParseDuration(v); err == nil {
				c.PollInterval = Duration{d}
			}
		case "PLASMAC_Z_MAX_OFFSET":
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				c.ZMaxOffset = f
			}
		case "PLASMAC_PIERCE_ONLY":
			if b, err := strconv.ParseBool(v); err == nil {
				c.PierceOnly = b
			}
		case "PLASMAC_INITIAL_MATERIAL":
			if n, err := strconv.Atoi(v); err == nil {
				c.InitialMaterial = n
			}
		case "PLASMAC_METRICS_FILE":
			c.MetricsFile = v
		}
	}
}

// resolvePaths fills in the file locations the GUI uses when they were not
// set explicitly.
func (c *Config) resolvePaths() {
	if c.TempDir == "" {
		if c.GUI == "axis" {
			c.TempDir = "/tmp/plasmac"
		} else {
			c.TempDir = "/tmp/qtplasmac"
		}
	}
	if c.MaterialFile == "" || c.PrefsFile == "" {
		layout := LoadFrom(c.ConfigDir, c.Machine)
		if c.MaterialFile == "" {
			c.MaterialFile = layout.MaterialFile
		}
		if c.PrefsFile == "" {
			c.PrefsFile = layout.PrefsFile
		}
	}
	if c.ErrorFile == "" {
		c.ErrorFile = filepath.Join(c.TempDir, "gcode_errors.txt")
	}
	if c.FilteredBackup == "" {
		c.FilteredBackup = filepath.Join(c.TempDir, "filtered_bkp.ngc")
	}
}

// TemporaryMaterialFile is where inline temporary materials are written.
func (c Config) TemporaryMaterialFile() string {
	return filepath.Join(c.TempDir, c.Machine+"_material.gcode")
}

// Metric reports whether the machine works in millimetres.
func (c Config) Metric() bool {
	return c.Units != "inch"
}

func (c Config) Validate() error {
	switch c.Units {
	case "mm", "inch":
	default:
		return fmt.Errorf("invalid units %q: want mm or inch", c.Units)
	}
	switch strings.ToLower(c.KerfPolicy) {
	case "applied", "ignored":
	default:
		return fmt.Errorf("invalid kerf_policy %q: want applied or ignored", c.KerfPolicy)
	}
	switch c.Sync {
	case "hal", "file", "none":
	default:
		return fmt.Errorf("invalid sync %q: want hal, file or none", c.Sync)
	}
	switch c.GUI {
	case "qtplasmac", "axis":
	default:
		return fmt.Errorf("invalid gui %q: want qtplasmac or axis", c.GUI)
	}
	if c.SyncTimeout.Duration <= 0 {
		return fmt.Errorf("sync_timeout must be positive")
	}
	return nil
}
