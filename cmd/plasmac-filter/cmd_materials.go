package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/LinuxCNC/linuxcnc-sub008/halsync"
	"github.com/LinuxCNC/linuxcnc-sub008/material"
)

type materialEntry struct {
	Number      int     `json:"number" yaml:"number"`
	Name        string  `json:"name" yaml:"name"`
	KerfWidth   float64 `json:"kerf_width" yaml:"kerf_width"`
	CutFeedRate float64 `json:"cut_feed_rate" yaml:"cut_feed_rate"`
	CutHeight   float64 `json:"cut_height" yaml:"cut_height"`
	CutAmps     float64 `json:"cut_amps" yaml:"cut_amps"`
	Temporary   bool    `json:"temporary,omitempty" yaml:"temporary,omitempty"`
}

func newMaterialsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "materials",
		Short: "List the materials in the material file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			db := openDatabase(cfg, halsync.Nop{}, true)
			if err := db.Load(); err != nil {
				return err
			}
			return printMaterials(os.Stdout, cfg.ReportFormat, db.Records())
		},
	}
}

func printMaterials(w io.Writer, format string, records []material.Record) error {
	entries := make([]materialEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, materialEntry{
			Number:      r.Number,
			Name:        r.Name,
			KerfWidth:   r.KerfWidth,
			CutFeedRate: r.CutFeedRate,
			CutHeight:   r.CutHeight,
			CutAmps:     r.CutAmps,
			Temporary:   r.IsTemporary(),
		})
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(entries)
	case "", "text":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NUMBER\tNAME\tKERF\tFEED\tHEIGHT\tAMPS")
		for _, e := range entries {
			fmt.Fprintf(tw, "%d\t%s\t%g\t%g\t%g\t%g\n", e.Number, e.Name, e.KerfWidth, e.CutFeedRate, e.CutHeight, e.CutAmps)
		}
		return tw.Flush()
	}
	return fmt.Errorf("unknown format %q", format)
}
