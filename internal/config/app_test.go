package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewAppConfig(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		name       string
		env        map[string]string
		configPath string
		tempDir    string
		fontPath   string
	}{
		{
			name:       "explicit paths",
			env:        map[string]string{configPathEnv: "/etc/wallcycle.yaml", tempDirEnv: "/var/tmp/wc", fontPathEnv: "/usr/share/fonts/label.ttf"},
			configPath: "/etc/wallcycle.yaml",
			tempDir:    "/var/tmp/wc",
			fontPath:   "/usr/share/fonts/label.ttf",
		},
		{
			name:       "home and variables are expanded",
			env:        map[string]string{configPathEnv: "~/wallcycle/config.yaml", tempDirEnv: "$WC_TEST_ROOT/tmp", "WC_TEST_ROOT": "/srv"},
			configPath: filepath.Join(home, "wallcycle", "config.yaml"),
			tempDir:    "/srv/tmp",
		},
		{
			name:    "defaults",
			env:     map[string]string{},
			tempDir: filepath.Join(os.TempDir(), appName),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{configPathEnv, tempDirEnv, fontPathEnv} {
				t.Setenv(key, "")
			}
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			cfg := NewAppConfig(zap.NewNop())
			if tt.configPath != "" {
				assert.Equal(t, tt.configPath, cfg.ConfigPath())
			} else {
				assert.Equal(t, defaultConfigName, filepath.Base(cfg.ConfigPath()))
			}
			assert.Equal(t, tt.tempDir, cfg.TempDir())
			assert.Equal(t, tt.fontPath, cfg.FontPath())
		})
	}
}
