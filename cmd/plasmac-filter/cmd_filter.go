package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/LinuxCNC/linuxcnc-sub008/diag"
	"github.com/LinuxCNC/linuxcnc-sub008/filter"
)

func runFilter(cmd *cobra.Command, flags *globalFlags, path string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	port, err := openPort(cfg)
	if err != nil {
		return err
	}
	if !cfg.PierceOnly && cutTypePierceOnly(ctx, port) {
		cfg.PierceOnly = true
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open program: %w", err)
	}
	defer f.Close()

	rec := newRecorder(cfg)
	db := openDatabase(cfg, port, false)
	res, err := filter.New(db, filterOptions(cfg, port, rec)).Run(ctx, path, f)
	if err != nil {
		return err
	}

	if _, err := res.WriteTo(os.Stdout); err != nil {
		return fmt.Errorf("write program: %w", err)
	}
	if res.Passthrough {
		return nil
	}

	saveBackup(cfg.FilteredBackup, res)
	if err := os.MkdirAll(filepath.Dir(cfg.ErrorFile), 0o755); err == nil {
		if err := diag.WriteLineFile(cfg.ErrorFile, res.Diag); err != nil {
			log.Warningf("%s", err)
		}
	}
	if err := writeReport(cfg, filepath.Base(path), res, os.Stderr); err != nil {
		log.Warningf("%s", err)
	}
	writeMetrics(cfg, rec)
	return nil
}

// saveBackup keeps a copy of the filtered program for the GUI.
func saveBackup(path string, res *filter.Result) {
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Warningf("filtered backup: %s", err)
		return
	}
	f, err := os.Create(path)
	if err != nil {
		log.Warningf("filtered backup: %s", err)
		return
	}
	defer f.Close()
	if _, err := res.WriteTo(f); err != nil {
		log.Warningf("filtered backup: %s", err)
	}
}
