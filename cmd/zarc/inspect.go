package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"

	"github.com/PMArkive/zarc"
)

func (c *cli) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <archive>",
		Short: "Print the archive header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := c.openArchive(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer closeArchive(a, &err)

			h := a.Header()
			var total uint64
			for _, e := range a.Entries() {
				total += e.Size()
			}

			tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "source:\t%s\n", a.Source().SourceID())
			fmt.Fprintf(tw, "byte order:\t%s\n", a.ByteOrder())
			fmt.Fprintf(tw, "size:\t%d\n", a.Source().Size())
			fmt.Fprintf(tw, "header size:\t%d\n", h.HeaderSize)
			fmt.Fprintf(tw, "record size:\t%d\n", h.RecordSize)
			fmt.Fprintf(tw, "alignment:\t%d\n", h.Alignment)
			fmt.Fprintf(tw, "entries:\t%d\n", a.Len())
			fmt.Fprintf(tw, "blocks:\t%d\n", len(a.BlockSizes()))
			fmt.Fprintf(tw, "decoded bytes:\t%d\n", total)
			fmt.Fprintf(tw, "unknown:\t%#x %#x %#x %#x %#x\n", h.Unknown1, h.Unknown2, h.Unknown3, h.Unknown4, h.Unknown5)
			return tw.Flush()
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	var withDigest bool
	cmd := &cobra.Command{
		Use:   "list <archive>",
		Short: "List archive entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := c.openArchive(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer closeArchive(a, &err)

			tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
			header := "INDEX\tHASH\tSIZE\tBLOCKS\tOFFSET"
			if withDigest {
				header += "\tDIGEST"
			}
			fmt.Fprintln(tw, header+"\tNAME")

			for i, e := range a.Entries() {
				fmt.Fprintf(tw, "%d\t%016x\t%d\t%d\t%d", i, e.FilenameHash, e.Size(), e.Blocks(), e.Offset(a.Header().Alignment))
				if withDigest {
					data, err := a.Extract(i)
					if err != nil {
						return err
					}
					fmt.Fprintf(tw, "\t%s", digest.FromBytes(data))
				}
				fmt.Fprintf(tw, "\t%s\n", c.names[e.FilenameHash])
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&withDigest, "digest", false, "decode every entry and print its sha256 digest")
	return cmd
}

func (c *cli) blocksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "blocks <archive> <entry>",
		Short: "Print the block layout of an entry",
		Long: `Print the block layout of an entry.

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
			blocks, err := a.Blocks(i)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "BLOCK\tOFFSET\tLENGTH\tSTORED\tKIND")
			for _, b := range blocks {
				fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s\n", b.Index, b.Offset, b.Length, b.Stored(), blockKind(b))
			}
			return tw.Flush()
		},
	}
}

func blockKind(b zarc.Block) string {
	switch {
	case b.Skipped:
		return "empty"
	case b.Compressed == 0:
		return "raw"
	default:
		return "lzma"
	}
}

func (c *cli) hashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <name>...",
		Short: "Print the filename hash of each name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			for _, name := range args {
				if _, err := fmt.Fprintf(c.stdout, "%016x  %s\n", zarc.HashName(name), name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
