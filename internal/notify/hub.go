// Package notify fans engine changes out to subscribed observers.
package notify

import (
	"slices"
	"sync"

	"github.com/genricoloni/wallcycle/internal/domain"
	"go.uber.org/zap"
)

// Hub keeps the ordered observer list.
// Delivery is synchronous, in subscription order, on the caller's goroutine.
// The list is copied before each delivery so observers may (un)subscribe or
// call back into the publisher from a callback.
type Hub struct {
	logger    *zap.Logger
	mu        sync.RWMutex
	observers []domain.Observer
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{logger: logger}
}

// Subscribe appends an observer. Subscribing twice delivers twice.
func (h *Hub) Subscribe(o domain.Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observers = append(h.observers, o)
}

// Unsubscribe removes the first registration of o, if any
func (h *Hub) Unsubscribe(o domain.Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if i := slices.Index(h.observers, o); i >= 0 {
		h.observers = slices.Delete(h.observers, i, i+1)
	}
}

// Len returns the number of registrations
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}

func (h *Hub) snapshot() []domain.Observer {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.observers)
}

// WallpaperChanged notifies every observer of a new wallpaper
func (h *Hub) WallpaperChanged(id domain.FileID) {
	for _, o := range h.snapshot() {
		h.deliver(func() { o.OnWallpaperChange(id) })
	}
}

// ConfigChanged notifies every observer of a changed field
func (h *Hub) ConfigChanged(field domain.Field, value any) {
	for _, o := range h.snapshot() {
		h.deliver(func() { o.OnConfigChange(field, value) })
	}
}

// deliver runs one callback, recovering from observer panics
func (h *Hub) deliver(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Observer panicked", zap.Any("panic", r))
		}
	}()
	fn()
}
