package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/LinuxCNC/linuxcnc-sub008/filter"
	"github.com/LinuxCNC/linuxcnc-sub008/halsync"
)

func newCheckCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>...",
		Short: "Report problems in programs without changing anything",
		Long: `Filter each program in dry-run mode and print its diagnostics.

The material file is not rewritten and the GUI is not signalled. The
exit status is non-zero when any program has errors.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			opts := filterOptions(cfg, halsync.Nop{}, nil)
			opts.DryRun = true

			failed := 0
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open program: %w", err)
				}
				db := openDatabase(cfg, halsync.Nop{}, true)
				res, err := filter.New(db, opts).Run(cmd.Context(), path, f)
				f.Close()
				if err != nil {
					return err
				}
				if res.Aborted {
					failed++
				}
				if err := writeReport(cfg, filepath.Base(path), res, os.Stdout); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d programs have errors", failed, len(args))
			}
			return nil
		},
	}
}
