// Package watcher reloads the configuration document when it changes on disk.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/genricoloni/wallcycle/internal/domain"
	"github.com/zoobzio/clockz"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const defaultDebounce = 500 * time.Millisecond

// Reconfigurer re-reads the configuration document
type Reconfigurer interface {
	Reconfigure(ctx context.Context) error
}

// Watcher watches the directory holding the configuration document so that
// editors saving through a rename are noticed too. Bursts of events are
// coalesced into one Reconfigure call.
type Watcher struct {
	logger   *zap.Logger
	target   Reconfigurer
	path     string
	clock    clockz.Clock
	debounce time.Duration
	onError  func(error)

	fs     *fsnotify.Watcher
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option customizes a Watcher
type Option func(*Watcher)

// WithClock sets the clock used for debouncing.
// Use this with clockz.FakeClock for deterministic debounce testing.
func WithClock(clock clockz.Clock) Option {
	return func(w *Watcher) {
		w.clock = clock
	}
}

// WithDebounce sets how long the watcher waits for events to settle
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithErrorHandler sets a callback for failed reloads. Reloads are never retried.
func WithErrorHandler(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// NewWatcher creates a watcher for the configured document path
func NewWatcher(logger *zap.Logger, target Reconfigurer, cfg domain.Config, opts ...Option) *Watcher {
	w := &Watcher{
		logger:   logger,
		target:   target,
		path:     filepath.Clean(cfg.ConfigPath()),
		clock:    clockz.RealClock,
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. The watch outlives ctx and ends with Stop.
func (w *Watcher) Start(ctx context.Context) error {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return multierr.Append(fmt.Errorf("ensure dir %s: %w", dir, err), fs.Close())
	}
	if err := fs.Add(dir); err != nil {
		return multierr.Append(fmt.Errorf("failed to watch %s: %w", dir, err), fs.Close())
	}
	w.fs = fs

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.cancel = cancel
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(runCtx, fs.Events, fs.Errors)
	}()

	w.logger.Info("Watching configuration", zap.String("path", w.path))
	return nil
}

// Stop ends the watch and waits for a running reload to finish
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()

	var err error
	if w.fs != nil {
		err = multierr.Append(err, w.fs.Close())
		w.fs = nil
	}
	return err
}

// run processes events with debouncing until ctx is done or a channel closes
func (w *Watcher) run(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) {
	var (
		timer   clockz.Timer
		pending bool
	)

	for {
		// Get timer channel or nil if no timer
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("Configuration changed on disk", zap.String("op", event.Op.String()))
			pending = true

			// Reset or start debounce timer
			if timer == nil {
				timer = w.clock.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C():
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case err, ok := <-errs:
			if !ok {
				return
			}
			w.logger.Warn("Configuration watch error", zap.Error(err))

		case <-timerC:
			if pending {
				pending = false
				w.reload(ctx)
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create) != 0
}

func (w *Watcher) reload(ctx context.Context) {
	if err := w.target.Reconfigure(ctx); err != nil {
		w.logger.Error("Failed to apply configuration", zap.String("path", w.path), zap.Error(err))
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	w.logger.Info("Configuration reloaded", zap.String("path", w.path))
}
