//go:build windows
// +build windows

package executor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

const (
	spiSetDeskWallpaper = 0x0014
	spifUpdateIniFile   = 0x01
	spifSendChange      = 0x02
)

var (
	user32                    = windows.NewLazySystemDLL("user32.dll")
	procSystemParametersInfoW = user32.NewProc("SystemParametersInfoW")
)

// WindowsExecutor handles wallpaper setting and file opening on Windows systems
type WindowsExecutor struct {
	logger *zap.Logger
}

// NewExecutor creates a new platform-specific executor (Windows implementation)
func NewExecutor(logger *zap.Logger) (*WindowsExecutor, error) {
	if err := procSystemParametersInfoW.Find(); err != nil {
		return nil, fmt.Errorf("SystemParametersInfoW unavailable: %w", err)
	}
	logger.Info("Windows wallpaper setter initialized")
	return &WindowsExecutor{logger: logger}, nil
}

// SetWallpaper sets the desktop wallpaper using SystemParametersInfoW
func (e *WindowsExecutor) SetWallpaper(ctx context.Context, imagePath string) error {
	e.logger.Debug("Setting wallpaper", zap.String("path", imagePath))

	path, err := windows.UTF16PtrFromString(filepath.Clean(imagePath))
	if err != nil {
		return fmt.Errorf("invalid wallpaper path: %w", err)
	}

	ret, _, callErr := procSystemParametersInfoW.Call(
		spiSetDeskWallpaper,
		0,
		uintptr(unsafe.Pointer(path)),
		spifUpdateIniFile|spifSendChange,
	)
	if ret == 0 {
		return fmt.Errorf("failed to set wallpaper: %w", callErr)
	}

	e.logger.Info("Wallpaper set successfully", zap.String("path", imagePath))
	return nil
}

// RevealInFileManager opens Explorer with the file selected
func (e *WindowsExecutor) RevealInFileManager(ctx context.Context, path string) error {
	explorer := filepath.Join(os.Getenv("WINDIR"), "explorer.exe")
	// Explorer exits with status 1 even on success.
	if err := exec.CommandContext(ctx, explorer, "/select,", filepath.Clean(path)).Start(); err != nil {
		return fmt.Errorf("failed to reveal %s: %w", path, err)
	}
	return nil
}

// OpenWithDefaultApp opens the path with the registered application
func (e *WindowsExecutor) OpenWithDefaultApp(ctx context.Context, path string) error {
	verb, err := windows.UTF16PtrFromString("open")
	if err != nil {
		return err
	}
	file, err := windows.UTF16PtrFromString(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	if err := windows.ShellExecute(0, verb, file, nil, nil, windows.SW_SHOWNORMAL); err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	return nil
}

// Close is a no-op on Windows
func (e *WindowsExecutor) Close() error {
	return nil
}
