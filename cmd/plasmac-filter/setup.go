package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/LinuxCNC/linuxcnc-sub008/config"
	"github.com/LinuxCNC/linuxcnc-sub008/diag"
	"github.com/LinuxCNC/linuxcnc-sub008/filter"
	"github.com/LinuxCNC/linuxcnc-sub008/halsync"
	"github.com/LinuxCNC/linuxcnc-sub008/material"
	"github.com/LinuxCNC/linuxcnc-sub008/metrics"
)

var log = commonlog.GetLogger("plasmac.cli")

func loadConfig(flags *globalFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return cfg, err
	}
	if flags.pierceOnly {
		cfg.PierceOnly = true
	}
	if flags.reportFile != "" {
		cfg.ReportFile = flags.reportFile
	}
	if flags.format != "" {
		cfg.ReportFormat = flags.format
	}
	if flags.metricsFile != "" {
		cfg.MetricsFile = flags.metricsFile
	}
	return cfg, nil
}

func openPort(cfg config.Config) (halsync.Port, error) {
	switch cfg.Sync {
	case "hal":
		pins := halsync.QtPlasmaCPins
		if cfg.GUI == "axis" {
			pins = halsync.AxisPins
		}
		return halsync.NewHAL(cfg.HALCommand, pins, cfg.PollInterval.Duration)
	case "file":
		return halsync.NewFlagDir(cfg.TempDir), nil
	}
	return halsync.Nop{}, nil
}

// cutTypePierceOnly asks the GUI whether the operator selected pierce
// only cutting.
func cutTypePierceOnly(ctx context.Context, port halsync.Port) bool {
	h, ok := port.(*halsync.HAL)
	if !ok {
		return false
	}
	value, err := h.Get(ctx, halsync.PinCutType)
	if err != nil {
		log.Debugf("read cut type: %s", err)
		return false
	}
	return strings.TrimSpace(value) == "1"
}

func openDatabase(cfg config.Config, port halsync.Port, dryRun bool) *material.Database {
	opts := []material.Option{
		material.WithPrefs(cfg.PrefsFile),
		material.WithTemporaryFile(cfg.TemporaryMaterialFile()),
		material.WithSync(port, cfg.SyncTimeout.Duration),
	}
	if dryRun {
		opts = append(opts, material.WithDryRun())
	}
	return material.NewDatabase(cfg.MaterialFile, opts...)
}

func filterOptions(cfg config.Config, port halsync.Port, rec *metrics.Recorder) filter.Options {
	units := filter.Millimetres
	if !cfg.Metric() {
		units = filter.Inches
	}
	return filter.Options{
		MachineUnits:    units,
		KerfPolicy:      filter.ParseKerfPolicy(strings.ToLower(cfg.KerfPolicy)),
		PierceOnly:      cfg.PierceOnly,
		InitialMaterial: cfg.InitialMaterial,
		ZMaxOffset:      cfg.ZMaxOffset,
		GUI:             cfg.GUI,
		Port:            port,
		Metrics:         rec,
	}
}

func newRecorder(cfg config.Config) *metrics.Recorder {
	if cfg.MetricsFile == "" {
		return nil
	}
	return metrics.NewRecorder()
}

func writeMetrics(cfg config.Config, rec *metrics.Recorder) {
	if rec == nil {
		return
	}
	if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
		log.Warningf("%s", err)
	}
}

// writeReport encodes the diagnostics of a run to the configured report
// file, or to fallback when none is set.
func writeReport(cfg config.Config, file string, res *filter.Result, fallback *os.File) error {
	report := diag.NewReport(file, res.Diag)
	if report.Empty() && cfg.ReportFile == "" {
		return nil
	}

	out := fallback
	if cfg.ReportFile != "" {
		f, err := os.Create(cfg.ReportFile)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc, err := diag.NewEncoder(cfg.ReportFormat, out)
	if err != nil {
		return err
	}
	return enc.Encode(report)
}
