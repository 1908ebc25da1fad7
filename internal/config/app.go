package config

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	appName           = "wallcycle"
	defaultConfigName = "config.yaml"
	configPathEnv     = "WALLCYCLE_CONFIG"
	tempDirEnv        = "WALLCYCLE_TEMP_DIR"
	fontPathEnv       = "WALLCYCLE_FONT"
)

// AppConfig holds process level settings read from the environment
type AppConfig struct {
	logger     *zap.Logger
	configPath string
	tempDir    string
	fontPath   string
}

// NewAppConfig creates a new application configuration instance
func NewAppConfig(logger *zap.Logger) *AppConfig {
	// Read from environment variables or use defaults
	configPath := expandPath(os.Getenv(configPathEnv))
	if configPath == "" {
		configPath = defaultConfigPath()
	}

	tempDir := expandPath(os.Getenv(tempDirEnv))
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), appName)
	}

	fontPath := expandPath(os.Getenv(fontPathEnv))

	logger.Info("Configuration loaded",
		zap.String("configPath", configPath),
		zap.String("tempDir", tempDir),
		zap.String("fontPath", fontPath))

	return &AppConfig{
		logger:     logger,
		configPath: configPath,
		tempDir:    tempDir,
		fontPath:   fontPath,
	}
}

// ConfigPath returns the location of the configuration document
func (c *AppConfig) ConfigPath() string {
	return c.configPath
}

// TempDir returns the directory for generated wallpapers
func (c *AppConfig) TempDir() string {
	return c.tempDir
}

// FontPath returns the TTF used for labels, empty for the embedded font
func (c *AppConfig) FontPath() string {
	return c.fontPath
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(dir, appName, defaultConfigName)
}

// expandPath resolves environment variables and a leading ~
func expandPath(p string) string {
	p = os.ExpandEnv(strings.TrimSpace(p))
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	return p
}
