//go:build linux
// +build linux

package executor

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// WallpaperCommand represents a detected wallpaper setter command
type WallpaperCommand struct {
	Name    string
	Binary  string
	Args    []string // %s will be replaced with image path
	UsesURI bool     // If true, %s is replaced with a file:// URI
	Detach  bool     // If true, the command keeps running and is not waited for
}

var (
	// Ordered list of wallpaper commands to try (highest priority first)
	wallpaperCommands = []WallpaperCommand{
		// Hyprland - swww (recommended)
		{Name: "swww", Binary: "swww", Args: []string{"img", "%s"}},
		// Hyprland - hyprpaper
		{Name: "hyprpaper", Binary: "hyprctl", Args: []string{"hyprpaper", "wallpaper", ",%s"}},
		// swaybg (Sway/Wayland)
		{Name: "swaybg", Binary: "swaybg", Args: []string{"-i", "%s", "-m", "fit"}, Detach: true},
		// GNOME / Unity
		{Name: "gnome", Binary: "gsettings", Args: []string{"set", "org.gnome.desktop.background", "picture-uri", "%s"}, UsesURI: true},
		// Cinnamon
		{Name: "cinnamon", Binary: "gsettings", Args: []string{"set", "org.cinnamon.desktop.background", "picture-uri", "%s"}, UsesURI: true},
		// MATE
		{Name: "mate", Binary: "gsettings", Args: []string{"set", "org.mate.background", "picture-filename", "%s"}},
		// Generic X11 - feh
		{Name: "feh", Binary: "feh", Args: []string{"--bg-max", "%s"}},
		// Generic X11 - nitrogen
		{Name: "nitrogen", Binary: "nitrogen", Args: []string{"--set-auto", "%s"}},
	}

	// desktopCommands maps a desktop session name to its gsettings based setter
	desktopCommands = map[string]string{
		"gnome":      "gnome",
		"unity":      "gnome",
		"ubuntu":     "gnome",
		"cinnamon":   "cinnamon",
		"x-cinnamon": "cinnamon",
		"mate":       "mate",
	}

	lookPath = exec.LookPath
)

// runFunc executes a command and returns its combined output
type runFunc func(ctx context.Context, detach bool, name string, args ...string) ([]byte, error)

// LinuxExecutor handles wallpaper setting and file opening on Linux systems
type LinuxExecutor struct {
	logger  *zap.Logger
	command WallpaperCommand
	dbus    DBusClient
	run     runFunc
}

// NewExecutor creates a new platform-specific executor (Linux implementation)
func NewExecutor(logger *zap.Logger) (*LinuxExecutor, error) {
	cmd := detectCommand(logger)
	if cmd.Binary == "" {
		return nil, fmt.Errorf("no supported wallpaper command found on this system")
	}

	logger.Info("Wallpaper setter detected",
		zap.String("name", cmd.Name),
		zap.String("binary", cmd.Binary))

	// Revealing falls back to xdg-open without a session bus.
	var client DBusClient
	if c, err := NewStdDBusClient(); err != nil {
		logger.Warn("D-Bus session bus unavailable, file manager reveal uses xdg-open", zap.Error(err))
	} else {
		client = c
	}

	return newLinuxExecutor(logger, cmd, client, newRunner()), nil
}

func newLinuxExecutor(logger *zap.Logger, cmd WallpaperCommand, client DBusClient, run runFunc) *LinuxExecutor {
	return &LinuxExecutor{
		logger:  logger,
		command: cmd,
		dbus:    client,
		run:     run,
	}
}

// detectCommand analyzes the environment to choose the best wallpaper command
func detectCommand(logger *zap.Logger) WallpaperCommand {
	// Check environment variables for hints
	desktop := strings.ToLower(os.Getenv("XDG_CURRENT_DESKTOP"))
	desktopSession := strings.ToLower(os.Getenv("DESKTOP_SESSION"))
	session := os.Getenv("XDG_SESSION_TYPE")
	wayland := os.Getenv("WAYLAND_DISPLAY")
	hyprland := os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")

	logger.Debug("Detecting wallpaper command",
		zap.String("desktop", desktop),
		zap.String("desktopSession", desktopSession),
		zap.String("session", session),
		zap.String("wayland", wayland),
		zap.String("hyprland", hyprland))

	// Priority-based detection
	if hyprland != "" {
		if cmd, ok := findCommand("swww", "hyprpaper"); ok {
			return cmd
		}
	}

	// XDG_CURRENT_DESKTOP may list several names, e.g. "ubuntu:GNOME"
	names := append(strings.Split(desktop, ":"), desktopSession)
	for _, name := range names {
		if setter, ok := desktopCommands[name]; ok {
			if cmd, ok := findCommand(setter); ok {
				return cmd
			}
		}
	}

	if wayland != "" || session == "wayland" {
		if cmd, ok := findCommand("swww", "swaybg"); ok {
			return cmd
		}
	}

	// Fallback: try all commands in order
	for _, cmd := range wallpaperCommands {
		if commandExists(cmd.Binary) {
			logger.Info("Using fallback wallpaper command", zap.String("name", cmd.Name))
			return cmd
		}
	}

	return WallpaperCommand{} // No command found
}

// findCommand returns the first installed command among names, in table order
func findCommand(names ...string) (WallpaperCommand, bool) {
	for _, cmd := range wallpaperCommands {
		for _, name := range names {
			if cmd.Name == name && commandExists(cmd.Binary) {
				return cmd, true
			}
		}
	}
	return WallpaperCommand{}, false
}

// commandExists checks if a binary exists in PATH
func commandExists(binary string) bool {
	_, err := lookPath(binary)
	return err == nil
}

// newRunner returns a runFunc that waits for commands to complete. Detached
// commands outlive the request context; starting one kills the previous one.
func newRunner() runFunc {
	var (
		mu       sync.Mutex
		detached *os.Process
	)
	return func(ctx context.Context, detach bool, name string, args ...string) ([]byte, error) {
		if !detach {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		}

		cmd := exec.Command(name, args...)
		if err := cmd.Start(); err != nil {
			return nil, err
		}
		go func() { _ = cmd.Wait() }()

		mu.Lock()
		defer mu.Unlock()
		if detached != nil {
			_ = detached.Kill()
		}
		detached = cmd.Process
		return nil, nil
	}
}

// fileURI converts a local path to a file:// URI
func fileURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: abs}).String()
}

// SetWallpaper sets the desktop wallpaper to the specified image
func (e *LinuxExecutor) SetWallpaper(ctx context.Context, imagePath string) error {
	target := imagePath
	if e.command.UsesURI {
		target = fileURI(imagePath)
	}

	// Build command arguments
	args := make([]string, len(e.command.Args))
	for i, arg := range e.command.Args {
		args[i] = strings.ReplaceAll(arg, "%s", target)
	}

	e.logger.Debug("Setting wallpaper",
		zap.String("command", e.command.Binary),
		zap.Strings("args", args),
		zap.String("path", imagePath))

	output, err := e.run(ctx, e.command.Detach, e.command.Binary, args...)
	if err != nil {
		return fmt.Errorf("failed to set wallpaper with %s: %w (output: %s)",
			e.command.Name, err, string(output))
	}

	e.logger.Info("Wallpaper set successfully",
		zap.String("command", e.command.Name),
		zap.String("path", imagePath))

	return nil
}

// RevealInFileManager selects the file in the desktop file manager.
// Without a FileManager1 service the containing directory is opened instead.
func (e *LinuxExecutor) RevealInFileManager(ctx context.Context, path string) error {
	if e.dbus != nil {
		err := e.dbus.ShowItems(ctx, []string{fileURI(path)})
		if err == nil {
			return nil
		}
		e.logger.Debug("FileManager1.ShowItems failed, opening directory", zap.Error(err))
	}
	return e.open(ctx, filepath.Dir(filepath.Clean(path)))
}

// OpenWithDefaultApp opens the path with xdg-open
func (e *LinuxExecutor) OpenWithDefaultApp(ctx context.Context, path string) error {
	return e.open(ctx, filepath.Clean(path))
}

func (e *LinuxExecutor) open(ctx context.Context, path string) error {
	output, err := e.run(ctx, false, "xdg-open", path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w (output: %s)", path, err, string(output))
	}
	return nil
}

// Close releases the D-Bus connection
func (e *LinuxExecutor) Close() error {
	if e.dbus == nil {
		return nil
	}
	return e.dbus.Close()
}
