//go:build !linux && !windows
// +build !linux,!windows

package executor

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrUnsupportedPlatform is returned by every StubExecutor operation
var ErrUnsupportedPlatform = errors.New("not implemented for this platform")

// StubExecutor is a placeholder for unsupported platforms (macOS, BSD, etc.)
type StubExecutor struct {
	logger *zap.Logger
}

// NewExecutor creates a stub executor for unsupported platforms
func NewExecutor(logger *zap.Logger) (*StubExecutor, error) {
	logger.Warn("Wallpaper setting is not yet implemented for this platform")
	return &StubExecutor{logger: logger}, nil
}

// SetWallpaper returns ErrUnsupportedPlatform
func (e *StubExecutor) SetWallpaper(ctx context.Context, imagePath string) error {
	return ErrUnsupportedPlatform
}

// RevealInFileManager returns ErrUnsupportedPlatform
func (e *StubExecutor) RevealInFileManager(ctx context.Context, path string) error {
	return ErrUnsupportedPlatform
}

// OpenWithDefaultApp returns ErrUnsupportedPlatform
func (e *StubExecutor) OpenWithDefaultApp(ctx context.Context, path string) error {
	return ErrUnsupportedPlatform
}

// Close is a no-op
func (e *StubExecutor) Close() error {
	return nil
}
