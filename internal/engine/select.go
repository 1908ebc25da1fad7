package engine

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"slices"

	"github.com/genricoloni/wallcycle/internal/domain"
	"go.uber.org/zap"
)

// advanceLocked moves st one step forward and shows the resulting image.
// Must be called with opMu held; st is only meaningful when err is nil.
func (e *Engine) advanceLocked(ctx context.Context, st *state) (domain.FileID, error) {
	// Stepping forward after a retreat replays the recorded entry.
	if st.index+1 < len(st.history) {
		st.index++
		id := st.history[st.index]
		img, err := id.Source.ReadImage(id.Locator)
		if err != nil {
			return id, fmt.Errorf("failed to read %s: %w", id, err)
		}
		return id, e.render(ctx, id, img)
	}

	id, err := e.draw(st.pool, previousOf(st.history, st.index+1), nil)
	if err != nil {
		return id, err
	}
	st.history = append(st.history, id)
	st.index = len(st.history) - 1

	id, img, err := e.ensureMinSize(st)
	if err != nil {
		return id, err
	}
	return id, e.render(ctx, id, img)
}

// ensureMinSize reads the current entry and replaces it in place with a fresh
// draw while either dimension is below the minimum
func (e *Engine) ensureMinSize(st *state) (domain.FileID, image.Image, error) {
	var rejected []domain.FileID
	for redraws := 0; ; redraws++ {
		id := st.history[st.index]
		img, err := id.Source.ReadImage(id.Locator)
		if err != nil {
			return id, nil, fmt.Errorf("failed to read %s: %w", id, err)
		}
		b := img.Bounds()
		if b.Dx() >= e.minSize && b.Dy() >= e.minSize {
			return id, img, nil
		}
		if redraws >= e.maxRedraws {
			return id, nil, fmt.Errorf("%w: gave up after %d draws", ErrNoSuitableImage, redraws+1)
		}

		e.logger.Debug("Image below minimum size, drawing again",
			zap.Stringer("file", id),
			zap.Int("width", b.Dx()),
			zap.Int("height", b.Dy()),
		)
		rejected = append(rejected, id)
		next, err := e.draw(st.pool, previousOf(st.history, st.index), rejected)
		if err != nil {
			return id, nil, err
		}
		st.history[st.index] = next
	}
}

// previousOf returns the entry right before position i, zero if there is none
func previousOf(history []domain.FileID, i int) domain.FileID {
	if i <= 0 || i > len(history) {
		return domain.FileID{}
	}
	return history[i-1]
}

// draw picks a candidate uniformly at random from the eligible part of the pool.
// The staging file, previous and rejected entries are skipped, loosening the
// filter step by step while it leaves nothing to pick.
func (e *Engine) draw(pool []domain.FileID, previous domain.FileID, rejected []domain.FileID) (domain.FileID, error) {
	if len(pool) == 0 {
		return domain.FileID{}, ErrEmptyPool
	}

	isPrevious := func(id domain.FileID) bool {
		return !previous.IsZero() && id.Equal(previous)
	}
	isRejected := func(id domain.FileID) bool {
		return slices.ContainsFunc(rejected, id.Equal)
	}

	filters := [][]func(domain.FileID) bool{
		{isStaging, isPrevious, isRejected},
		{isStaging, isRejected},
		{isStaging},
	}
	for _, skip := range filters {
		eligible := filterPool(pool, skip)
		if len(eligible) > 0 {
			return eligible[e.rng.IntN(len(eligible))], nil
		}
	}
	return pool[e.rng.IntN(len(pool))], nil
}

func filterPool(pool []domain.FileID, skip []func(domain.FileID) bool) []domain.FileID {
	eligible := make([]domain.FileID, 0, len(pool))
	for _, id := range pool {
		if !slices.ContainsFunc(skip, func(f func(domain.FileID) bool) bool { return f(id) }) {
			eligible = append(eligible, id)
		}
	}
	return eligible
}

func isStaging(id domain.FileID) bool {
	return filepath.Base(id.Locator) == domain.StagingFilename
}
