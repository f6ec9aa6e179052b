package zarc

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Verify checks the tables and decodes every entry, returning the first
// failure. Entries are decoded in parallel with up to workers goroutines;
// workers <= 0 uses GOMAXPROCS. Decoded content is discarded and never cached.
func (a *Archive) Verify(ctx context.Context, workers int) error {
	if err := a.Check(); err != nil {
		return err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range a.Len() {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, err := a.reader.ReadAll(i)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	a.logger.Debug().Int("entries", a.Len()).Msg("archive verified")
	return nil
}
