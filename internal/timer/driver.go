// Package timer advances the wallpaper on a configurable interval.
package timer

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/genricoloni/wallcycle/internal/domain"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

// State is the driver lifecycle state
type State int

const (
	// StateStopped means the driver was never started or has been stopped
	StateStopped State = iota
	// StateRunning means a fire is pending
	StateRunning
	// StatePaused means the countdown is frozen
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	default:
		return "stopped"
	}
}

// defaultInterval replaces a non-positive interval at start
const defaultInterval = 30 * time.Second

var (
	// ErrNotRunning is returned by Pause when the driver is not running
	ErrNotRunning = errors.New("driver is not running")
	// ErrNotPaused is returned by Resume when the driver is not paused
	ErrNotPaused = errors.New("driver is not paused")
)

// Engine is the part of the rotation engine the driver needs
type Engine interface {
	Advance(ctx context.Context) error
	Config(field domain.Field) any
	Subscribe(o domain.Observer)
	Unsubscribe(o domain.Observer)
}

// Driver calls Engine.Advance every configured interval.
//
// Every arming gets a generation number. Pausing, stopping and re-arming bump
// the generation, and a fire only advances the engine when its generation is
// still current.
type Driver struct {
	logger *zap.Logger
	engine Engine
	clock  clockz.Clock

	// fireMu is held from the generation check until Advance returns, so
	// Pause and Stop never return while a stale fire can still advance.
	fireMu sync.Mutex

	mu        sync.Mutex
	ctx       context.Context
	cancelCtx context.CancelFunc
	state     State
	interval  time.Duration
	startedAt time.Time
	elapsed   time.Duration
	gen       uint64
	disarm    chan struct{}
	wg        sync.WaitGroup
}

// Option customizes a Driver
type Option func(*Driver)

// WithClock sets the clock used for the countdown.
// Use this with clockz.FakeClock for deterministic tests.
func WithClock(clock clockz.Clock) Option {
	return func(d *Driver) {
		d.clock = clock
	}
}

// NewDriver creates a stopped driver
func NewDriver(logger *zap.Logger, engine Engine, opts ...Option) *Driver {
	d := &Driver{
		logger: logger,
		engine: engine,
		clock:  clockz.RealClock,
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start subscribes to the engine and arms the full configured interval.
// The driver keeps the values of ctx but outlives its cancellation; it runs until Stop.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.state != StateStopped {
		d.mu.Unlock()
		return nil
	}
	d.ctx, d.cancelCtx = context.WithCancel(context.WithoutCancel(ctx))
	d.interval = seconds(d.engine.Config(domain.FieldChangeTime))
	if d.interval <= 0 {
		d.logger.Warn("Invalid transition interval, using the default",
			zap.Duration("interval", d.interval),
			zap.Duration("default", defaultInterval))
		d.interval = defaultInterval
	}
	d.state = StateRunning
	d.startedAt = d.clock.Now()
	d.armLocked(d.interval)
	interval := d.interval
	d.mu.Unlock()

	d.engine.Subscribe(d)
	d.logger.Info("Driver started", zap.Duration("interval", interval))
	return nil
}

// Stop disarms the driver, unsubscribes and waits for pending fires to exit
func (d *Driver) Stop() error {
	d.fireMu.Lock()
	d.mu.Lock()
	wasStopped := d.state == StateStopped
	d.state = StateStopped
	d.elapsed = 0
	d.cancelLocked()
	if d.cancelCtx != nil {
		d.cancelCtx()
	}
	d.mu.Unlock()
	d.fireMu.Unlock()

	if !wasStopped {
		d.engine.Unsubscribe(d)
	}
	d.wg.Wait()
	d.logger.Info("Driver stopped")
	return nil
}

// Pause freezes the countdown. No Advance starts after Pause returns.
func (d *Driver) Pause() error {
	d.fireMu.Lock()
	defer d.fireMu.Unlock()
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateRunning {
		return ErrNotRunning
	}
	d.elapsed = d.clock.Since(d.startedAt)
	d.state = StatePaused
	d.cancelLocked()

	d.logger.Debug("Driver paused", zap.Duration("elapsed", d.elapsed))
	return nil
}

// Resume re-arms for the interval minus the time elapsed before the pause
func (d *Driver) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StatePaused {
		return ErrNotPaused
	}
	d.state = StateRunning
	d.startedAt = d.clock.Now().Add(-d.elapsed)
	d.armLocked(d.interval - d.elapsed)

	d.logger.Debug("Driver resumed", zap.Duration("remaining", d.interval-d.elapsed))
	return nil
}

// State returns the current lifecycle state
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Interval returns the configured interval
func (d *Driver) Interval() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.interval
}

// Elapsed returns how much of the current interval has passed
func (d *Driver) Elapsed() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.elapsedLocked()
}

func (d *Driver) elapsedLocked() time.Duration {
	switch d.state {
	case StateRunning:
		return d.clock.Since(d.startedAt)
	case StatePaused:
		return d.elapsed
	default:
		return 0
	}
}

// OnWallpaperChange restarts the countdown for the full interval
func (d *Driver) OnWallpaperChange(domain.FileID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateRunning {
		return
	}
	d.startedAt = d.clock.Now()
	d.armLocked(d.interval)
}

// OnConfigChange applies a new interval, keeping the progress already made
func (d *Driver) OnConfigChange(field domain.Field, value any) {
	if field != domain.FieldChangeTime {
		return
	}

	interval := seconds(value)
	if interval <= 0 {
		d.logger.Warn("Ignoring invalid transition interval", zap.Any("value", value))
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.interval = interval
	d.logger.Info("Transition interval changed", zap.Duration("interval", d.interval))
	if d.state != StateRunning {
		return
	}
	d.armLocked(d.interval - d.clock.Since(d.startedAt))
}

// armLocked cancels any pending fire and schedules a new one after wait.
// A non-positive wait fires right away.
func (d *Driver) armLocked(wait time.Duration) {
	d.cancelLocked()
	gen := d.gen
	disarm := make(chan struct{})
	d.disarm = disarm

	d.wg.Add(1)
	if wait <= 0 {
		go func() {
			defer d.wg.Done()
			d.fire(gen)
		}()
		return
	}

	ctx := d.ctx
	timer := d.clock.NewTimer(wait)
	go func() {
		defer d.wg.Done()
		defer timer.Stop()
		select {
		case <-disarm:
		case <-ctx.Done():
		case <-timer.C():
			d.fire(gen)
		}
	}()
}

// cancelLocked invalidates the pending fire
func (d *Driver) cancelLocked() {
	d.gen++
	if d.disarm != nil {
		close(d.disarm)
		d.disarm = nil
	}
}

// fire advances the engine if gen is still the current arming
func (d *Driver) fire(gen uint64) {
	d.fireMu.Lock()
	d.mu.Lock()
	if gen != d.gen || d.state != StateRunning {
		d.mu.Unlock()
		d.fireMu.Unlock()
		return
	}
	ctx := d.ctx
	d.mu.Unlock()

	err := d.engine.Advance(ctx)
	d.fireMu.Unlock()
	if err != nil {
		d.logger.Error("Timed advance failed", zap.Error(err))
	}

	// A successful advance re-arms through OnWallpaperChange.
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen == d.gen && d.state == StateRunning {
		d.startedAt = d.clock.Now()
		d.armLocked(d.interval)
	}
}

// seconds converts a seconds_per_transition value to a duration.
// Anything that is not a finite number yields zero.
func seconds(value any) time.Duration {
	var s float64
	switch v := value.(type) {
	case float64:
		s = v
	case int:
		s = float64(v)
	}
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}
