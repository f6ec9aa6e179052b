package zarc

import (
	"context"
	"fmt"
	"strings"

	"github.com/PMArkive/zarc/internal/batch"
)

// ExtractStats summarizes an ExtractAll run.
type ExtractStats = batch.Stats

// ExtractAll writes every entry under destDir.
//
// Each entry is written to a temporary file and renamed into place once
// fully decoded. Existing files are skipped unless ExtractWithOverwrite is
// given. Extraction stops at the first failure.
func (a *Archive) ExtractAll(ctx context.Context, destDir string, opts ...ExtractOption) (ExtractStats, error) {
	var cfg extractConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	items := make([]batch.Item, 0, a.Len())
	for i, e := range a.Entries() {
		items = append(items, batch.Item{
			Index: i,
			Hash:  e.FilenameHash,
			Path:  EntryPath(e.FilenameHash, cfg.names),
			Size:  e.Size(),
		})
	}

	procOpts := []batch.ProcessorOption{
		batch.WithWorkers(cfg.workers),
		batch.WithLogger(a.logger),
	}
	if cfg.progress != nil {
		procOpts = append(procOpts, batch.WithProgress(func(done, total int, item *batch.Item) {
			cfg.progress(done, total, item.Path)
		}))
	}
	sink := batch.NewFileSink(destDir, batch.WithOverwrite(cfg.overwrite))

	stats, err := batch.NewProcessor(a, procOpts...).Process(ctx, items, sink)
	if err != nil {
		return stats, fmt.Errorf("extract all: %w", err)
	}
	a.logger.Info().
		Int("written", stats.Processed).
		Int("skipped", stats.Skipped).
		Uint64("bytes", stats.TotalBytes).
		Str("dest", destDir).
		Msg("extraction complete")
	return stats, nil
}

// EntryPath returns the slash-separated path an entry is extracted to: its
// name from names, or its hash as 16 hex digits.
func EntryPath(hash uint64, names map[uint64]string) string {
	name := strings.TrimLeft(strings.ReplaceAll(names[hash], "\\", "/"), "/")
	if name == "" {
		return fmt.Sprintf("%016x", hash)
	}
	return name
}
