package engine

import (
	"math/rand/v2"
	"time"

	"github.com/zoobzio/clockz"
)

const (
	defaultScanTries      = 3
	defaultScanWait       = time.Second
	defaultMinSize        = 100
	defaultMaxSizeRedraws = 64
)

// Option customizes an Engine
type Option func(*Engine)

// WithClock sets the clock used for scan backoff.
// Use this with clockz.FakeClock for deterministic tests.
func WithClock(clock clockz.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithRand sets the random source used to draw candidates
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithScanRetry sets how many times an empty source is scanned and the wait in between
func WithScanRetry(tries int, wait time.Duration) Option {
	return func(e *Engine) {
		if tries > 0 {
			e.scanTries = tries
		}
		e.scanWait = wait
	}
}

// WithMinSize sets the smallest accepted width and height in pixels
func WithMinSize(pixels int) Option {
	return func(e *Engine) {
		e.minSize = pixels
	}
}

// WithMaxSizeRedraws caps how often a too small image is replaced by a new draw
func WithMaxSizeRedraws(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxRedraws = n
		}
	}
}
