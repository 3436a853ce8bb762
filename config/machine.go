package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/ini.v1"
)

// Machine is what the filter needs from a LinuxCNC INI file.
type Machine struct {
	Name  string
	Units string
	GUI   string
	Dir   string
}

// LoadMachine reads [EMC]MACHINE, [TRAJ]LINEAR_UNITS and [DISPLAY]DISPLAY
// from a LinuxCNC INI file.
func LoadMachine(path string) (*Machine, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
		AllowShadows:        true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("read machine ini: %w", err)
	}

	m := &Machine{
		Name: cfg.Section("EMC").Key("MACHINE").String(),
		Dir:  filepath.Dir(path),
	}

	switch strings.ToLower(cfg.Section("TRAJ").Key("LINEAR_UNITS").String()) {
	case "inch", "in", "imperial":
		m.Units = "inch"
	case "mm", "metric", "":
		m.Units = "mm"
	default:
		return nil, fmt.Errorf("%s: unsupported LINEAR_UNITS %q", path, cfg.Section("TRAJ").Key("LINEAR_UNITS").String())
	}

	if strings.Contains(cfg.Section("DISPLAY").Key("DISPLAY").String(), "axis") {
		m.GUI = "axis"
	} else {
		m.GUI = "qtplasmac"
	}
	return m, nil
}

// Layout locates the material and prefs files of a machine configuration.
type Layout struct {
	Dir          string
	MaterialFile string
	PrefsFile    string
}

// LoadFrom finds <machine>_material.cfg and <machine>.prefs in dir. When
// no material file carries the machine name the first *_material.cfg in
// the directory is used.
func LoadFrom(dir, machine string) Layout {
	layout := Layout{
		Dir:          dir,
		MaterialFile: filepath.Join(dir, machine+"_material.cfg"),
		PrefsFile:    filepath.Join(dir, machine+".prefs"),
	}
	if _, err := os.Stat(layout.MaterialFile); err == nil {
		return layout
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*_material.cfg"))
	if err != nil || len(matches) == 0 {
		return layout
	}
	sort.Strings(matches)
	layout.MaterialFile = matches[0]
	name := strings.TrimSuffix(filepath.Base(matches[0]), "_material.cfg")
	if prefs := filepath.Join(dir, name+".prefs"); fileExists(prefs) {
		layout.PrefsFile = prefs
	}
	return layout
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
