// Package monitor detects the attached displays.
package monitor

import (
	"image"

	"github.com/genricoloni/wallcycle/internal/domain"
	"github.com/kbinani/screenshot"
	"go.uber.org/zap"
)

var fallbackResolution = domain.ScreenResolution{Width: 1920, Height: 1080}

// displays is swapped in tests
var displays = func() []image.Rectangle {
	n := screenshot.NumActiveDisplays()
	bounds := make([]image.Rectangle, 0, n)
	for i := range n {
		bounds = append(bounds, screenshot.GetDisplayBounds(i))
	}
	return bounds
}

// NewScreenResolution detects the primary screen resolution at startup.
// The primary display is the one containing the origin, or the first one listed.
func NewScreenResolution(logger *zap.Logger) *domain.ScreenResolution {
	bounds := displays()
	if len(bounds) == 0 {
		logger.Warn("No active displays detected, using fallback resolution",
			zap.Int("width", fallbackResolution.Width),
			zap.Int("height", fallbackResolution.Height))
		res := fallbackResolution
		return &res
	}

	primary := bounds[0]
	for _, b := range bounds {
		if image.Pt(0, 0).In(b) {
			primary = b
			break
		}
	}

	if primary.Dx() <= 0 || primary.Dy() <= 0 {
		logger.Warn("Primary display reports an empty area, using fallback resolution")
		res := fallbackResolution
		return &res
	}

	res := &domain.ScreenResolution{
		Width:  primary.Dx(),
		Height: primary.Dy(),
	}
	logger.Info("Screen resolution detected",
		zap.Int("displays", len(bounds)),
		zap.Int("width", res.Width),
		zap.Int("height", res.Height))

	return res
}
