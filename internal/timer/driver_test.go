package timer

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/genricoloni/wallcycle/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

// fakeEngine notifies its observers on every successful advance, like the
// rotation engine does
type fakeEngine struct {
	mu        sync.Mutex
	interval  float64
	observers []domain.Observer
	err       error
	advances  chan struct{}
}

func newFakeEngine(interval float64) *fakeEngine {
	return &fakeEngine{interval: interval, advances: make(chan struct{}, 16)}
}

func (f *fakeEngine) Advance(context.Context) error {
	f.mu.Lock()
	err := f.err
	observers := append([]domain.Observer(nil), f.observers...)
	f.mu.Unlock()

	if err == nil {
		for _, o := range observers {
			o.OnWallpaperChange(domain.FileID{Locator: "next.jpg"})
		}
	}
	f.advances <- struct{}{}
	return err
}

func (f *fakeEngine) Config(domain.Field) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.interval
}

func (f *fakeEngine) Subscribe(o domain.Observer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observers = append(f.observers, o)
}

func (f *fakeEngine) Unsubscribe(o domain.Observer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, obs := range f.observers {
		if obs == o {
			f.observers = append(f.observers[:i], f.observers[i+1:]...)
			return
		}
	}
}

func (f *fakeEngine) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// fakeClock is the part of the clockz fake clock the tests drive
type fakeClock interface {
	clockz.Clock
	Advance(d time.Duration)
	BlockUntilReady()
}

func newTestDriver(t *testing.T, interval float64) (*Driver, *fakeEngine, fakeClock) {
	t.Helper()
	clock := clockz.NewFakeClock()
	engine := newFakeEngine(interval)
	d := NewDriver(zap.NewNop(), engine, WithClock(clock))
	require.NoError(t, d.Start(context.Background()))
	t.Cleanup(func() { _ = d.Stop() })
	return d, engine, clock
}

func advance(clock fakeClock, by time.Duration) {
	clock.Advance(by)
	clock.BlockUntilReady()
}

func expectAdvance(t *testing.T, engine *fakeEngine) {
	t.Helper()
	select {
	case <-engine.advances:
	case <-time.After(time.Second):
		t.Fatal("expected the driver to advance the engine")
	}
}

func expectNoAdvance(t *testing.T, engine *fakeEngine) {
	t.Helper()
	select {
	case <-engine.advances:
		t.Fatal("unexpected advance")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDriver_FiresEveryInterval(t *testing.T) {
	d, engine, clock := newTestDriver(t, 30)
	assert.Equal(t, StateRunning, d.State())
	assert.Equal(t, 30*time.Second, d.Interval())

	advance(clock, 29*time.Second)
	expectNoAdvance(t, engine)

	advance(clock, time.Second)
	expectAdvance(t, engine)

	advance(clock, 30*time.Second)
	expectAdvance(t, engine)
}

func TestDriver_WallpaperChangeRestartsCountdown(t *testing.T) {
	d, engine, clock := newTestDriver(t, 30)

	advance(clock, 20*time.Second)
	d.OnWallpaperChange(domain.FileID{Locator: "manual.jpg"})

	advance(clock, 20*time.Second)
	expectNoAdvance(t, engine)

	advance(clock, 10*time.Second)
	expectAdvance(t, engine)
}

func TestDriver_IntervalChange(t *testing.T) {
	tests := []struct {
		name        string
		newInterval float64
		wait        time.Duration // after the change, before the fire
	}{
		{name: "shorter than elapsed fires immediately", newInterval: 10, wait: 0},
		{name: "longer keeps progress", newInterval: 60, wait: 35 * time.Second},
		{name: "shorter but not yet elapsed", newInterval: 27, wait: 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, engine, clock := newTestDriver(t, 30)

			advance(clock, 25*time.Second)
			d.OnConfigChange(domain.FieldChangeTime, tt.newInterval)
			assert.Equal(t, time.Duration(tt.newInterval*float64(time.Second)), d.Interval())

			if tt.wait > 0 {
				advance(clock, tt.wait-time.Second)
				expectNoAdvance(t, engine)
				advance(clock, time.Second)
			}
			expectAdvance(t, engine)
		})
	}
}

func TestDriver_IgnoresOtherFields(t *testing.T) {
	d, engine, clock := newTestDriver(t, 30)

	advance(clock, 25*time.Second)
	d.OnConfigChange(domain.FieldLabelSize, 10.0)
	assert.Equal(t, 30*time.Second, d.Interval())
	expectNoAdvance(t, engine)

	advance(clock, 5*time.Second)
	expectAdvance(t, engine)
}

func TestDriver_PauseResume(t *testing.T) {
	d, engine, clock := newTestDriver(t, 30)

	advance(clock, 10*time.Second)
	require.NoError(t, d.Pause())
	assert.Equal(t, StatePaused, d.State())
	assert.Equal(t, 10*time.Second, d.Elapsed())

	advance(clock, 100*time.Second)
	expectNoAdvance(t, engine)
	assert.Equal(t, 10*time.Second, d.Elapsed())

	// Notifications while paused do not re-arm.
	d.OnWallpaperChange(domain.FileID{Locator: "manual.jpg"})
	d.OnConfigChange(domain.FieldChangeTime, 40.0)
	expectNoAdvance(t, engine)

	require.NoError(t, d.Resume())
	advance(clock, 20*time.Second)
	require.NoError(t, d.Pause())
	assert.Equal(t, 30*time.Second, d.Elapsed())
	require.NoError(t, d.Resume())

	advance(clock, 9*time.Second)
	expectNoAdvance(t, engine)
	advance(clock, time.Second)
	expectAdvance(t, engine)
}

func TestDriver_InvalidTransitions(t *testing.T) {
	d, _, _ := newTestDriver(t, 30)

	assert.ErrorIs(t, d.Resume(), ErrNotPaused)
	require.NoError(t, d.Pause())
	assert.ErrorIs(t, d.Pause(), ErrNotRunning)

	require.NoError(t, d.Stop())
	assert.Equal(t, StateStopped, d.State())
	assert.ErrorIs(t, d.Pause(), ErrNotRunning)
	assert.ErrorIs(t, d.Resume(), ErrNotPaused)
}

func TestDriver_StopPreventsFire(t *testing.T) {
	d, engine, clock := newTestDriver(t, 30)

	require.NoError(t, d.Stop())
	advance(clock, time.Minute)
	expectNoAdvance(t, engine)

	engine.mu.Lock()
	assert.Empty(t, engine.observers)
	engine.mu.Unlock()
}

func TestDriver_FailedAdvanceRearms(t *testing.T) {
	_, engine, clock := newTestDriver(t, 30)
	engine.setErr(errors.New("no candidate images available"))

	advance(clock, 30*time.Second)
	expectAdvance(t, engine)

	// Give the fire goroutine time to re-arm before moving the clock.
	time.Sleep(20 * time.Millisecond)
	engine.setErr(nil)
	advance(clock, 30*time.Second)
	expectAdvance(t, engine)
}

func TestDriver_NonPositiveInterval(t *testing.T) {
	tests := []struct {
		name     string
		start    float64
		change   any
		expected time.Duration
	}{
		{name: "zero at start uses the default", start: 0, expected: defaultInterval},
		{name: "negative at start uses the default", start: -3, expected: defaultInterval},
		{name: "zero change is ignored", start: 20, change: 0.0, expected: 20 * time.Second},
		{name: "negative change is ignored", start: 20, change: -1.0, expected: 20 * time.Second},
		{name: "nan change is ignored", start: 20, change: math.NaN(), expected: 20 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, engine, clock := newTestDriver(t, tt.start)
			if tt.change != nil {
				d.OnConfigChange(domain.FieldChangeTime, tt.change)
			}
			assert.Equal(t, tt.expected, d.Interval())
			expectNoAdvance(t, engine)

			advance(clock, tt.expected)
			expectAdvance(t, engine)
			expectNoAdvance(t, engine)
		})
	}
}

// gatedEngine holds every Advance until released and counts the advances that
// begin after the driver reported it was halted
type gatedEngine struct {
	*fakeEngine
	entered chan struct{}
	release chan struct{}
	halted  atomic.Bool
	late    atomic.Int32
}

func (g *gatedEngine) Advance(ctx context.Context) error {
	if g.halted.Load() {
		g.late.Add(1)
	}
	g.entered <- struct{}{}
	<-g.release
	return g.fakeEngine.Advance(ctx)
}

func TestDriver_HaltDuringFire(t *testing.T) {
	tests := []struct {
		name  string
		halt  func(d *Driver) error
		state State
	}{
		{name: "pause", halt: (*Driver).Pause, state: StatePaused},
		{name: "stop", halt: (*Driver).Stop, state: StateStopped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := clockz.NewFakeClock()
			engine := &gatedEngine{
				fakeEngine: newFakeEngine(30),
				entered:    make(chan struct{}, 16),
				release:    make(chan struct{}),
			}
			// Failed advances do not re-arm through the observer.
			engine.setErr(errors.New("busy"))

			d := NewDriver(zap.NewNop(), engine, WithClock(clock))
			require.NoError(t, d.Start(context.Background()))
			t.Cleanup(func() { _ = d.Stop() })
			release := sync.OnceFunc(func() { close(engine.release) })
			t.Cleanup(release)

			advance(clock, 30*time.Second)
			select {
			case <-engine.entered:
			case <-time.After(time.Second):
				t.Fatal("expected the timer to fire")
			}

			// A shorter interval queues a second fire behind the one in flight.
			d.OnConfigChange(domain.FieldChangeTime, 1.0)

			halted := make(chan error, 1)
			go func() {
				err := tt.halt(d)
				engine.halted.Store(true)
				halted <- err
			}()

			select {
			case <-halted:
				t.Fatal("halt returned while an advance was still running")
			case <-time.After(50 * time.Millisecond):
			}

			release()
			select {
			case err := <-halted:
				require.NoError(t, err)
			case <-time.After(time.Second):
				t.Fatal("halt did not return after the advance finished")
			}

			advance(clock, 10*time.Minute)
			time.Sleep(50 * time.Millisecond)
			assert.Zero(t, engine.late.Load(), "advance started after halt returned")
			assert.Equal(t, tt.state, d.State())
		})
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "paused", StatePaused.String())
}
