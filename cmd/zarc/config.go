package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-ini/ini"

	"github.com/PMArkive/zarc"
)

// Config holds the settings read from the INI config file.
//
//	[archive]
//	byte_order = big
//	max_entry_size = 268435456
//	names = /path/to/names.txt
//
//	[log]
//	level = warn
//
//	[cache]
//	dir = /var/cache/zarc
//	max_bytes = 0
//
//	[extract]
//	workers = 0
//	overwrite = false
type Config struct {
	ByteOrder    string
	MaxEntrySize uint64
	Names        string

	LogLevel string

	CacheDir      string
	CacheMaxBytes int64

	Workers   int
	Overwrite bool
}

func defaultConfig() Config {
	return Config{
		ByteOrder:    "big",
		MaxEntrySize: zarc.DefaultMaxEntrySize,
		LogLevel:     "warn",
	}
}

// defaultConfigPath returns the per-user config location.
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "zarc", "config.ini")
}

// loadConfig reads path over the defaults. A missing file is an error only
// when required is set.
func loadConfig(path string, required bool) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	f, err := ini.Load(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to load config file: %w", err)
	}

	archive := f.Section("archive")
	if archive.HasKey("byte_order") {
		cfg.ByteOrder = archive.Key("byte_order").String()
	}
	if archive.HasKey("max_entry_size") {
		if cfg.MaxEntrySize, err = archive.Key("max_entry_size").Uint64(); err != nil {
			return cfg, fmt.Errorf("archive.max_entry_size: %w", err)
		}
	}
	if archive.HasKey("names") {
		cfg.Names = archive.Key("names").String()
	}

	if s := f.Section("log"); s.HasKey("level") {
		cfg.LogLevel = s.Key("level").String()
	}

	c := f.Section("cache")
	if c.HasKey("dir") {
		cfg.CacheDir = c.Key("dir").String()
	}
	if c.HasKey("max_bytes") {
		if cfg.CacheMaxBytes, err = c.Key("max_bytes").Int64(); err != nil {
			return cfg, fmt.Errorf("cache.max_bytes: %w", err)
		}
		if cfg.CacheMaxBytes < 0 {
			return cfg, fmt.Errorf("cache.max_bytes: must be >= 0, got %d", cfg.CacheMaxBytes)
		}
	}

	x := f.Section("extract")
	if x.HasKey("workers") {
		if cfg.Workers, err = x.Key("workers").Int(); err != nil {
			return cfg, fmt.Errorf("extract.workers: %w", err)
		}
	}
	if x.HasKey("overwrite") {
		if cfg.Overwrite, err = x.Key("overwrite").Bool(); err != nil {
			return cfg, fmt.Errorf("extract.overwrite: %w", err)
		}
	}

	return cfg, nil
}
