package pipeline

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Batch imports paths with at most workers imports in flight. Results keep
// the order of paths. Without keepGoing the first failure cancels the rest;
// with it every failure is collected and returned together.
func (im *Importer) Batch(ctx context.Context, paths []string, workers int, keepGoing bool) ([]*Result, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]*Result, len(paths))
	var (
		mu     sync.Mutex
		failed error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := im.ImportFile(path)
			if err != nil {
				if !keepGoing {
					return err
				}
				im.log.Warn("import failed", zap.String("path", path), zap.Error(err))
				mu.Lock()
				failed = multierr.Append(failed, err)
				mu.Unlock()
				return nil
			}
			results[i] = res
			return nil
		})
	}
	err := multierr.Append(g.Wait(), failed)

	done := results[:0]
	for _, res := range results {
		if res != nil {
			done = append(done, res)
		}
	}
	return done, err
}
