package domain

import (
	"context"
	"image"
)

// ImageSource is a pluggable origin of candidate images.
// Implementations are registered in the configuration store by type name.
//
//go:generate mockgen -destination=mocks/image_source_mock.go -package=mocks github.com/genricoloni/wallcycle/internal/domain ImageSource
type ImageSource interface {
	// Name is the stable name of the source, used as its config section key
	Name() string

	// Type is the tag that selects the parser and serializer on config I/O
	Type() string

	// Scan lists the locators of every candidate image
	Scan(ctx context.Context) ([]string, error)

	// ReadImage decodes the image behind a locator
	ReadImage(locator string) (image.Image, error)

	// WriteImage replaces the image behind a locator
	WriteImage(locator string, img image.Image) error

	// DeleteImage removes the image behind a locator
	DeleteImage(locator string) error

	// Label returns the human readable caption drawn on the wallpaper
	Label(locator string) string

	// Reveal shows the backing file to the user (e.g. in a file manager)
	Reveal(ctx context.Context, locator string) error

	// Equal compares the defining attributes of two sources
	Equal(other ImageSource) bool
}

// Observer receives engine notifications.
// Calls are synchronous and happen on the goroutine that caused the change.
type Observer interface {
	// OnConfigChange is called once per changed field after a reconfiguration
	OnConfigChange(field Field, value any)

	// OnWallpaperChange is called after a new wallpaper has been applied
	OnWallpaperChange(id FileID)
}

// ObserverFuncs adapts plain functions to the Observer interface.
// Nil functions are skipped.
type ObserverFuncs struct {
	ConfigChange    func(field Field, value any)
	WallpaperChange func(id FileID)
}

// OnConfigChange implements Observer
func (o *ObserverFuncs) OnConfigChange(field Field, value any) {
	if o.ConfigChange != nil {
		o.ConfigChange(field, value)
	}
}

// OnWallpaperChange implements Observer
func (o *ObserverFuncs) OnWallpaperChange(id FileID) {
	if o.WallpaperChange != nil {
		o.WallpaperChange(id)
	}
}

// Compositor turns a source image into a wallpaper file
//
//go:generate mockgen -destination=mocks/compositor_mock.go -package=mocks github.com/genricoloni/wallcycle/internal/domain Compositor
type Compositor interface {
	// Generate composites src with its label and writes the result to the staging file.
	// Returns the path of the written wallpaper.
	Generate(src image.Image, label string, layout Layout) (string, error)
}

// Executor defines the platform capability used by the engine
//
//go:generate mockgen -destination=mocks/executor_mock.go -package=mocks github.com/genricoloni/wallcycle/internal/domain Executor
type Executor interface {
	// SetWallpaper sets the desktop wallpaper to the specified image path
	SetWallpaper(ctx context.Context, imagePath string) error

	// RevealInFileManager opens a file manager showing the given path
	RevealInFileManager(ctx context.Context, path string) error

	// OpenWithDefaultApp opens the path with the application registered for it
	OpenWithDefaultApp(ctx context.Context, path string) error
}

// Config defines the interface for application configuration
type Config interface {
	// ConfigPath returns the location of the configuration document
	ConfigPath() string

	// TempDir returns the directory for generated wallpapers
	TempDir() string

	// FontPath returns the TTF used for labels, empty for the embedded font
	FontPath() string
}
