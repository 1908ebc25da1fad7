package monitor

import (
	"image"
	"testing"

	"github.com/genricoloni/wallcycle/internal/domain"
	"go.uber.org/zap"
)

func TestNewScreenResolution(t *testing.T) {
	tests := []struct {
		name     string
		bounds   []image.Rectangle
		expected domain.ScreenResolution
	}{
		{
			name:     "no displays",
			bounds:   nil,
			expected: domain.ScreenResolution{Width: 1920, Height: 1080},
		},
		{
			name:     "single display",
			bounds:   []image.Rectangle{image.Rect(0, 0, 2560, 1440)},
			expected: domain.ScreenResolution{Width: 2560, Height: 1440},
		},
		{
			name: "primary is the display at the origin",
			bounds: []image.Rectangle{
				image.Rect(-1280, 0, 0, 1024),
				image.Rect(0, 0, 3840, 2160),
			},
			expected: domain.ScreenResolution{Width: 3840, Height: 2160},
		},
		{
			name:     "empty area falls back",
			bounds:   []image.Rectangle{image.Rect(0, 0, 0, 0)},
			expected: domain.ScreenResolution{Width: 1920, Height: 1080},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := displays
			t.Cleanup(func() { displays = orig })
			displays = func() []image.Rectangle { return tt.bounds }

			res := NewScreenResolution(zap.NewNop())
			if res == nil {
				t.Fatal("expected a resolution, got nil")
			}
			if *res != tt.expected {
				t.Errorf("expected %dx%d, got %dx%d", tt.expected.Width, tt.expected.Height, res.Width, res.Height)
			}
		})
	}
}
