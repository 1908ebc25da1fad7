// Package processor turns source images into wallpapers.
package processor

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/genricoloni/wallcycle/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

const jpegQuality = 95

// LabelCompositor letterboxes a source image to the target resolution on its
// dominant colour and draws the label in the bottom right corner
type LabelCompositor struct {
	logger *zap.Logger
	appCfg domain.Config
	font   *opentype.Font
}

// NewLabelCompositor creates a compositor writing to the configured temp dir.
// The configured font is used when it parses, the embedded Go font otherwise.
func NewLabelCompositor(logger *zap.Logger, appCfg domain.Config) (*LabelCompositor, error) {
	f, err := loadFont(logger, appCfg.FontPath())
	if err != nil {
		return nil, err
	}
	return &LabelCompositor{
		logger: logger,
		appCfg: appCfg,
		font:   f,
	}, nil
}

func loadFont(logger *zap.Logger, path string) (*opentype.Font, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			var f *opentype.Font
			if f, err = opentype.Parse(data); err == nil {
				return f, nil
			}
		}
		logger.Warn("Cannot load label font, using embedded font", zap.String("path", path), zap.Error(err))
	}

	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded font: %w", err)
	}
	return f, nil
}

// Generate composites src with its label and writes the staging wallpaper.
// Returns the absolute path of the written file.
func (c *LabelCompositor) Generate(src image.Image, label string, layout domain.Layout) (string, error) {
	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return "", fmt.Errorf("invalid image dimensions: %dx%d", bounds.Dx(), bounds.Dy())
	}
	if layout.Width <= 0 || layout.Height <= 0 {
		return "", fmt.Errorf("invalid target resolution: %dx%d", layout.Width, layout.Height)
	}

	background := DominantColor(src)
	c.logger.Debug("Letterboxing image",
		zap.Int("w", layout.Width),
		zap.Int("h", layout.Height),
		zap.Any("background", background))
	wallpaper := Letterbox(src, layout.Width, layout.Height, background)

	if err := c.drawLabel(wallpaper, label, layout); err != nil {
		return "", err
	}

	outputDir := c.appCfg.TempDir()
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(outputDir, domain.StagingFilename)
	if err := imaging.Save(wallpaper, outputPath, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("failed to write wallpaper file: %w", err)
	}

	c.logger.Info("Wallpaper generated", zap.String("path", outputPath), zap.String("label", label))

	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		return outputPath, nil
	}
	return absPath, nil
}

// Letterbox scales img to fit inside width x height keeping its aspect ratio
// and centers it on a canvas filled with background
func Letterbox(img image.Image, width, height int, background color.Color) *image.NRGBA {
	b := img.Bounds()
	innerW, innerH := width, height
	if float64(width)/float64(b.Dx()) <= float64(height)/float64(b.Dy()) {
		innerH = max(1, b.Dy()*width/b.Dx())
	} else {
		innerW = max(1, b.Dx()*height/b.Dy())
	}

	canvas := imaging.New(width, height, background)
	inner := imaging.Resize(img, innerW, innerH, imaging.Lanczos)
	return imaging.Paste(canvas, inner, image.Pt((width-innerW)/2, (height-innerH)/2))
}
