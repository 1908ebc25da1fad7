package engine

import (
	"errors"
	"fmt"

	"github.com/genricoloni/wallcycle/internal/config"
)

var (
	// ErrNoSources is returned when the configuration lists no image source
	ErrNoSources = fmt.Errorf("%w: no image sources provided", config.ErrInvalidConfig)

	// ErrEmptyPool is returned when there is nothing left to draw from
	ErrEmptyPool = errors.New("no candidate images available")

	// ErrNoCurrent is returned by operations on the current image before one is shown
	ErrNoCurrent = errors.New("no current wallpaper")

	// ErrNoSuitableImage is returned when every re-draw produced an image below the minimum size
	ErrNoSuitableImage = errors.New("no image meets the minimum size")
)

// EmptySourceError reports a source that kept returning no images
type EmptySourceError struct {
	Source string
	Tries  int
}

func (e *EmptySourceError) Error() string {
	return fmt.Sprintf("tried to read %d times from image source %q: no images found", e.Tries, e.Source)
}
