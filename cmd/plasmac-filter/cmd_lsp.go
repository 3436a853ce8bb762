package main

import (
	"github.com/spf13/cobra"

	"github.com/LinuxCNC/linuxcnc-sub008/halsync"
	"github.com/LinuxCNC/linuxcnc-sub008/lsp"
	"github.com/LinuxCNC/linuxcnc-sub008/material"
)

func newLSPCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start a language server that reports filter diagnostics",
		Long: `Serve the Language Server Protocol over stdio.

Open G-code documents are filtered in dry-run mode on every change and
the diagnostics are published to the editor.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			database := func() *material.Database {
				return openDatabase(cfg, halsync.Nop{}, true)
			}
			return lsp.NewServer(version, database, filterOptions(cfg, halsync.Nop{}, nil)).RunStdio()
		},
	}
}
