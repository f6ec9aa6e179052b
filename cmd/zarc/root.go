package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/PMArkive/zarc"
	"github.com/PMArkive/zarc/cache/disk"
	zarchttp "github.com/PMArkive/zarc/http"
)

// cli carries the state shared by all subcommands.
type cli struct {
	stdout io.Writer
	stderr io.Writer

	configPath   string
	logLevel     string
	byteOrder    string
	cacheDir     string
	maxEntrySize uint64
	namesPath    string

	cfg   Config
	order zarc.ByteOrder
	names map[uint64]string
	log   zerolog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr, log: zerolog.Nop()}

	root := &cobra.Command{
		Use:               "zarc",
		Short:             "Inspect and extract ZARC archives",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	def := defaultConfig()
	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default: user config dir zarc/config.ini)")
	pf.StringVar(&c.logLevel, "log-level", def.LogLevel, "log level: trace, debug, info, warn, error, disabled")
	pf.StringVar(&c.byteOrder, "byte-order", def.ByteOrder, "byte order of the archive: big or little")
	pf.StringVar(&c.cacheDir, "cache-dir", "", "directory for the decoded entry cache")
	pf.Uint64Var(&c.maxEntrySize, "max-entry-size", def.MaxEntrySize, "largest entry to decode in bytes (0 disables the limit)")
	pf.StringVar(&c.namesPath, "names", "", "file of entry names, one per line")

	root.AddCommand(
		c.infoCmd(),
		c.listCmd(),
		c.blocksCmd(),
		c.catCmd(),
		c.extractCmd(),
		c.hashCmd(),
		c.verifyCmd(),
	)
	return root
}

// setup loads the config file and lets explicitly set flags override it.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	path, required := c.configPath, true
	if path == "" {
		path, required = defaultConfigPath(), false
	}
	cfg, err := loadConfig(path, required)
	if err != nil {
		return err
	}

	if changed(cmd, "log-level") {
		cfg.LogLevel = c.logLevel
	}
	if changed(cmd, "byte-order") {
		cfg.ByteOrder = c.byteOrder
	}
	if changed(cmd, "cache-dir") {
		cfg.CacheDir = c.cacheDir
	}
	if changed(cmd, "max-entry-size") {
		cfg.MaxEntrySize = c.maxEntrySize
	}
	if changed(cmd, "names") {
		cfg.Names = c.namesPath
	}
	c.cfg = cfg

	level, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	c.log = newLogger(c.stderr, level)

	if c.order, err = zarc.ParseByteOrder(cfg.ByteOrder); err != nil {
		return err
	}

	if cfg.Names != "" {
		f, err := os.Open(cfg.Names)
		if err != nil {
			return err
		}
		defer f.Close()
		if c.names, err = zarc.ReadNames(f); err != nil {
			return fmt.Errorf("%s: %w", cfg.Names, err)
		}
		c.log.Debug().Str("path", cfg.Names).Int("names", len(c.names)).Msg("loaded names")
	}
	return nil
}

func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flag(name)
	return f != nil && f.Changed
}

// openArchive opens a local path or an http(s) URL.
func (c *cli) openArchive(ctx context.Context, target string) (*zarc.Archive, error) {
	opts := []zarc.Option{
		zarc.WithByteOrder(c.order),
		zarc.WithMaxEntrySize(c.cfg.MaxEntrySize),
		zarc.WithLogger(c.log),
	}
	if c.cfg.CacheDir != "" {
		dc, err := disk.New(c.cfg.CacheDir, disk.WithMaxBytes(c.cfg.CacheMaxBytes))
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		opts = append(opts, zarc.WithCache(dc))
	}

	if isURL(target) {
		src, err := zarchttp.NewSource(ctx, target, zarchttp.WithLogger(c.log))
		if err != nil {
			return nil, err
		}
		return zarc.New(src, opts...)
	}
	return zarc.Open(target, opts...)
}

func isURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// resolveEntry finds the entry an argument names. "#N" selects index N,
// "0x" followed by hex digits selects a filename hash, and anything else is
// hashed as a name.
func resolveEntry(a *zarc.Archive, arg string) (int, error) {
	switch {
	case strings.HasPrefix(arg, "#"):
		i, err := strconv.Atoi(arg[1:])
		if err != nil {
			return 0, fmt.Errorf("invalid entry index %q", arg)
		}
		if i < 0 || i >= a.Len() {
			return 0, fmt.Errorf("entry %d: %w", i, zarc.ErrIndex)
		}
		return i, nil
	case strings.HasPrefix(arg, "0x"):
		h, err := strconv.ParseUint(arg[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid entry hash %q", arg)
		}
		i, ok := a.LookupHash(h)
		if !ok {
			return 0, fmt.Errorf("%016x: %w", h, zarc.ErrNotFound)
		}
		return i, nil
	default:
		i, ok := a.Lookup(arg)
		if !ok {
			return 0, fmt.Errorf("%s (%016x): %w", arg, zarc.HashName(arg), zarc.ErrNotFound)
		}
		return i, nil
	}
}

func closeArchive(a *zarc.Archive, err *error) {
	if cerr := a.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}
