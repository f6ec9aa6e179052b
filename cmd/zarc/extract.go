package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PMArkive/zarc"
)

func (c *cli) catCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <archive> <entry>",
		Short: "Write the decoded content of an entry to stdout",
		Long: `Write the decoded content of an entry to stdout.

The entry is "#N" for index N, "0x" followed by a filename hash, or a name.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := c.openArchive(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer closeArchive(a, &err)

			i, err := resolveEntry(a, args[1])
			if err != nil {
				return err
			}
			_, err = a.ExtractTo(i, c.stdout)
			return err
		},
	}
}

func (c *cli) extractCmd() *cobra.Command {
	var (
		output    string
		workers   int
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:   "extract <archive>",
		Short: "Extract every entry into a directory",
		Long: `Extract every entry into a directory.

Entries named in the --names file are written under that name; the rest are
written as their 16-digit hex filename hash. Existing files are skipped
unless --overwrite is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if changed(cmd, "workers") {
				c.cfg.Workers = workers
			}
			if changed(cmd, "overwrite") {
				c.cfg.Overwrite = overwrite
			}

			a, err := c.openArchive(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer closeArchive(a, &err)

			stats, err := a.ExtractAll(cmd.Context(), output,
				zarc.ExtractWithNames(c.names),
				zarc.ExtractWithWorkers(c.cfg.Workers),
				zarc.ExtractWithOverwrite(c.cfg.Overwrite),
				zarc.ExtractWithProgress(func(done, total int, path string) {
					c.log.Debug().Int("done", done).Int("total", total).Str("path", path).Msg("extracted")
				}),
			)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.stdout, "extracted %d entries (%d bytes), skipped %d\n",
				stats.Processed, stats.TotalBytes, stats.Skipped)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", ".", "destination directory")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 uses GOMAXPROCS, <0 is serial)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite existing files")
	return cmd
}

func (c *cli) verifyCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "verify <archive>",
		Short: "Check the table and decode every entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if changed(cmd, "workers") {
				c.cfg.Workers = workers
			}

			a, err := c.openArchive(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer closeArchive(a, &err)

			if err := a.Verify(cmd.Context(), c.cfg.Workers); err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.stdout, "ok: %d entries\n", a.Len())
			return err
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 uses GOMAXPROCS)")
	return cmd
}
