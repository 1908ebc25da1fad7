package engine

import (
	"context"
	"fmt"
	"image"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/genricoloni/wallcycle/internal/domain"
	"github.com/genricoloni/wallcycle/internal/notify"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

// ConfigStore is the part of the configuration store the engine relies on
type ConfigStore interface {
	Read(path string) ([]domain.Field, error)
	Get(field domain.Field) any
	Int(field domain.Field) int
	Float(field domain.Field) float64
	Sources() []domain.ImageSource
}

// Engine owns the wallpaper history, the candidate pool and the current image.
//
// Mutating operations are serialized by opMu and work on a copy of the state
// that is committed only once the operation succeeded. Readers take stateMu and
// never see a half updated history. Observers are notified after opMu is
// released, so they may call back into the engine.
type Engine struct {
	logger     *zap.Logger
	store      ConfigStore
	executor   domain.Executor
	compositor domain.Compositor
	hub        *notify.Hub
	cfg        domain.Config

	clock      clockz.Clock
	rng        *rand.Rand
	scanTries  int
	scanWait   time.Duration
	minSize    int
	maxRedraws int

	opMu sync.Mutex

	stateMu sync.RWMutex
	history []domain.FileID
	index   int
	pool    []domain.FileID
}

// state is a working copy of the engine's mutable fields
type state struct {
	history []domain.FileID
	index   int
	pool    []domain.FileID
}

func (s state) clone() state {
	return state{history: slices.Clone(s.history), index: s.index, pool: slices.Clone(s.pool)}
}

// event is a notification queued during an operation
type event struct {
	wallpaper *domain.FileID
	field     domain.Field
	value     any
}

// NewEngine creates a new rotation engine
func NewEngine(
	logger *zap.Logger,
	store ConfigStore,
	exec domain.Executor,
	comp domain.Compositor,
	hub *notify.Hub,
	cfg domain.Config,
	opts ...Option,
) *Engine {
	e := &Engine{
		logger:     logger,
		store:      store,
		executor:   exec,
		compositor: comp,
		hub:        hub,
		cfg:        cfg,
		clock:      clockz.RealClock,
		rng:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		scanTries:  defaultScanTries,
		scanWait:   defaultScanWait,
		minSize:    defaultMinSize,
		maxRedraws: defaultMaxSizeRedraws,
		index:      -1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start loads the configuration, scans every source and shows a first wallpaper
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info("Engine starting...")

	e.opMu.Lock()
	events, err := e.reconfigureLocked(ctx)
	if err == nil && e.currentIndex() < 0 {
		st := e.snapshot()
		if len(st.pool) == 0 {
			st.pool, err = e.scanAll(ctx, e.store.Sources())
		}
		if err == nil {
			var id domain.FileID
			id, err = e.advanceLocked(ctx, &st)
			if err == nil {
				e.commit(st)
				events = append(events, event{wallpaper: &id})
			}
		}
	}
	e.opMu.Unlock()

	e.publish(events)
	if err != nil {
		return fmt.Errorf("engine start failed: %w", err)
	}
	return nil
}

// Subscribe registers an observer for engine notifications
func (e *Engine) Subscribe(o domain.Observer) {
	e.hub.Subscribe(o)
}

// Unsubscribe removes an observer
func (e *Engine) Unsubscribe(o domain.Observer) {
	e.hub.Unsubscribe(o)
}

// Config returns the current value of a configuration field
func (e *Engine) Config(field domain.Field) any {
	return e.store.Get(field)
}

// Current returns the image on screen, false before the first wallpaper
func (e *Engine) Current() (domain.FileID, bool) {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()

	if e.index < 0 || e.index >= len(e.history) {
		return domain.FileID{}, false
	}
	return e.history[e.index], true
}

// CurrentPath returns the locator of the image on screen
func (e *Engine) CurrentPath() string {
	id, _ := e.Current()
	return id.Locator
}

// History returns a copy of the history and the current position
func (e *Engine) History() ([]domain.FileID, int) {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return slices.Clone(e.history), e.index
}

// PoolSize returns the number of scanned candidates
func (e *Engine) PoolSize() int {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return len(e.pool)
}

// Advance moves to the next wallpaper, replaying history when possible
func (e *Engine) Advance(ctx context.Context) error {
	e.opMu.Lock()
	st := e.snapshot()
	id, err := e.advanceLocked(ctx, &st)
	if err == nil {
		e.commit(st)
	}
	e.opMu.Unlock()

	if err != nil {
		return err
	}
	e.publish([]event{{wallpaper: &id}})
	return nil
}

// Retreat moves back to the previous wallpaper. It is a no-op at the start of history.
func (e *Engine) Retreat(ctx context.Context) error {
	e.opMu.Lock()
	st := e.snapshot()
	if st.index <= 0 {
		e.opMu.Unlock()
		return nil
	}

	st.index--
	id := st.history[st.index]
	img, err := id.Source.ReadImage(id.Locator)
	if err == nil {
		err = e.render(ctx, id, img)
	}
	if err == nil {
		e.commit(st)
	}
	e.opMu.Unlock()

	if err != nil {
		return err
	}
	e.publish([]event{{wallpaper: &id}})
	return nil
}

// RotateLeft turns the current image 90 degrees counter-clockwise and saves it
func (e *Engine) RotateLeft(ctx context.Context) error {
	return e.rotate(ctx, "left", func(img image.Image) image.Image { return imaging.Rotate90(img) })
}

// RotateRight turns the current image 90 degrees clockwise and saves it
func (e *Engine) RotateRight(ctx context.Context) error {
	return e.rotate(ctx, "right", func(img image.Image) image.Image { return imaging.Rotate270(img) })
}

func (e *Engine) rotate(ctx context.Context, direction string, transform func(image.Image) image.Image) error {
	e.opMu.Lock()
	id, err := e.rotateLocked(ctx, transform)
	e.opMu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to rotate %s: %w", direction, err)
	}
	e.logger.Info("Image rotated", zap.String("direction", direction), zap.Stringer("file", id))
	e.publish([]event{{wallpaper: &id}})
	return nil
}

func (e *Engine) rotateLocked(ctx context.Context, transform func(image.Image) image.Image) (domain.FileID, error) {
	id, ok := e.Current()
	if !ok {
		return id, ErrNoCurrent
	}
	img, err := id.Source.ReadImage(id.Locator)
	if err != nil {
		return id, err
	}
	img = transform(img)
	if err := id.Source.WriteImage(id.Locator, img); err != nil {
		return id, err
	}
	return id, e.render(ctx, id, img)
}

// DeleteCurrent deletes the current image from its source, forgets it and
// shows a replacement
func (e *Engine) DeleteCurrent(ctx context.Context) error {
	e.opMu.Lock()
	st := e.snapshot()
	if st.index < 0 || st.index >= len(st.history) {
		e.opMu.Unlock()
		return ErrNoCurrent
	}

	id := st.history[st.index]
	if err := id.Source.DeleteImage(id.Locator); err != nil {
		e.opMu.Unlock()
		return err
	}

	// Every occurrence goes, so the index moves back past the ones at or before it.
	removed := 0
	for i := 0; i <= st.index; i++ {
		if st.history[i].Equal(id) {
			removed++
		}
	}
	st.history = slices.DeleteFunc(st.history, id.Equal)
	st.pool = slices.DeleteFunc(st.pool, id.Equal)
	st.index -= removed
	e.logger.Info("Image removed from rotation", zap.Stringer("file", id))

	// The file is gone either way; a failed advance still commits the removal.
	removedState := st.clone()
	next, err := e.advanceLocked(ctx, &st)
	if err != nil {
		e.commit(removedState)
	} else {
		e.commit(st)
	}
	e.opMu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to advance after delete: %w", err)
	}
	e.publish([]event{{wallpaper: &next}})
	return nil
}

// ShowSourceOfCurrent reveals the current image through its source
func (e *Engine) ShowSourceOfCurrent(ctx context.Context) error {
	id, ok := e.Current()
	if !ok {
		return ErrNoCurrent
	}
	return id.Source.Reveal(ctx, id.Locator)
}

// OpenConfig opens the configuration document with the default application
func (e *Engine) OpenConfig(ctx context.Context) error {
	return e.executor.OpenWithDefaultApp(ctx, e.cfg.ConfigPath())
}

// Reconfigure re-reads the configuration document. A changed source list
// rebuilds the pool and shows a new wallpaper; other changed fields are
// forwarded to observers.
func (e *Engine) Reconfigure(ctx context.Context) error {
	e.opMu.Lock()
	events, err := e.reconfigureLocked(ctx)
	e.opMu.Unlock()

	e.publish(events)
	return err
}

func (e *Engine) reconfigureLocked(ctx context.Context) ([]event, error) {
	e.logger.Info("Reading config", zap.String("path", e.cfg.ConfigPath()))
	changed, err := e.store.Read(e.cfg.ConfigPath())
	if err != nil {
		return nil, err
	}

	// The store already holds the new values, so they are announced even when
	// the source list turns out to be unusable.
	var events []event
	for _, field := range changed {
		if field == domain.FieldSources {
			continue
		}
		events = append(events, event{field: field, value: e.store.Get(field)})
	}

	sources := e.store.Sources()
	if len(sources) == 0 {
		return events, ErrNoSources
	}
	if !slices.Contains(changed, domain.FieldSources) {
		return events, nil
	}

	pool, err := e.scanAll(ctx, sources)
	if err != nil {
		return events, err
	}
	st := state{pool: pool, index: -1}
	id, err := e.advanceLocked(ctx, &st)
	if err != nil {
		// The old history belongs to the old sources; keep only the new pool.
		e.commit(state{pool: pool, index: -1})
		return events, err
	}
	e.commit(st)
	return append([]event{{wallpaper: &id}}, events...), nil
}

// snapshot copies the mutable state
func (e *Engine) snapshot() state {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return state{history: e.history, index: e.index, pool: e.pool}.clone()
}

// commit publishes a working copy to readers
func (e *Engine) commit(st state) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	e.history = slices.Clone(st.history)
	e.index = st.index
	e.pool = slices.Clone(st.pool)
}

func (e *Engine) currentIndex() int {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.index
}

// publish delivers queued events; must be called without opMu held
func (e *Engine) publish(events []event) {
	for _, ev := range events {
		if ev.wallpaper != nil {
			e.hub.WallpaperChanged(*ev.wallpaper)
			continue
		}
		e.hub.ConfigChanged(ev.field, ev.value)
	}
}

// render composites the image and applies it as wallpaper
func (e *Engine) render(ctx context.Context, id domain.FileID, img image.Image) error {
	e.logger.Info("Setting background", zap.Stringer("file", id))

	path, err := e.compositor.Generate(img, id.Source.Label(id.Locator), e.layout())
	if err != nil {
		return fmt.Errorf("failed to generate wallpaper: %w", err)
	}
	if err := e.executor.SetWallpaper(ctx, path); err != nil {
		return fmt.Errorf("failed to set wallpaper: %w", err)
	}
	return nil
}

func (e *Engine) layout() domain.Layout {
	return domain.Layout{
		Width:        e.store.Int(domain.FieldHorizontalResolution),
		Height:       e.store.Int(domain.FieldVerticalResolution),
		LabelSize:    e.store.Float(domain.FieldLabelSize),
		RightMargin:  e.store.Int(domain.FieldRightLabelMargin),
		BottomMargin: e.store.Int(domain.FieldBottomLabelMargin),
	}
}
