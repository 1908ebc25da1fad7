package engine

import (
	"context"
	"fmt"

	"github.com/genricoloni/wallcycle/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// scanAll scans every source concurrently and concatenates the results in
// source order
func (e *Engine) scanAll(ctx context.Context, sources []domain.ImageSource) ([]domain.FileID, error) {
	results := make([][]domain.FileID, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			ids, err := e.scanSource(gctx, src)
			if err != nil {
				return err
			}
			results[i] = ids
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var pool []domain.FileID
	for _, ids := range results {
		pool = append(pool, ids...)
	}
	e.logger.Info("Candidate pool rebuilt", zap.Int("sources", len(sources)), zap.Int("images", len(pool)))
	return pool, nil
}

// scanSource scans one source, retrying while it reports no images
func (e *Engine) scanSource(ctx context.Context, src domain.ImageSource) ([]domain.FileID, error) {
	for try := 1; ; try++ {
		locators, err := src.Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", src.Name(), err)
		}
		if len(locators) > 0 {
			ids := make([]domain.FileID, len(locators))
			for i, loc := range locators {
				ids[i] = domain.FileID{Source: src, Locator: loc}
			}
			return ids, nil
		}
		if try >= e.scanTries {
			return nil, &EmptySourceError{Source: src.Name(), Tries: try}
		}

		e.logger.Warn("Image source is empty, retrying",
			zap.String("source", src.Name()),
			zap.Int("try", try),
			zap.Duration("wait", e.scanWait),
		)
		if err := e.sleep(ctx); err != nil {
			return nil, err
		}
	}
}

// sleep waits scanWait on the engine clock or until ctx is done
func (e *Engine) sleep(ctx context.Context) error {
	if e.scanWait <= 0 {
		return nil
	}
	timer := e.clock.NewTimer(e.scanWait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C():
		return nil
	}
}
