package processor

import (
	"fmt"
	"image"
	"image/color"

	"github.com/genricoloni/wallcycle/internal/domain"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const minLabelSize = 1.0

var (
	labelBoxColor  = color.NRGBA{A: 100}
	labelTextColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// drawLabel writes text in the bottom right corner of dst on a translucent box.
// The preferred size shrinks so the text fits the width minus twice the right margin.
func (c *LabelCompositor) drawLabel(dst draw.Image, text string, layout domain.Layout) error {
	if text == "" || layout.LabelSize <= 0 {
		return nil
	}

	width := dst.Bounds().Dx()
	height := dst.Bounds().Dy()

	size := layout.LabelSize
	textW, err := c.measure(text, size)
	if err != nil {
		return err
	}
	if avail := width - 2*layout.RightMargin; avail > 0 && textW > avail {
		size = max(size*float64(avail)/float64(textW), minLabelSize)
	}

	face, err := c.face(size)
	if err != nil {
		return err
	}
	defer face.Close()
	textW = font.MeasureString(face, text).Ceil()

	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	textH := ascent + metrics.Descent.Ceil()

	x := width - textW - layout.RightMargin
	y := height - textH - layout.BottomMargin
	box := image.Rect(x, y, x+textW, y+textH)
	draw.Draw(dst, box, image.NewUniform(labelBoxColor), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(labelTextColor),
		Face: face,
		Dot:  fixed.P(x, y+ascent),
	}
	d.DrawString(text)
	return nil
}

func (c *LabelCompositor) measure(text string, size float64) (int, error) {
	face, err := c.face(size)
	if err != nil {
		return 0, err
	}
	defer face.Close()
	return font.MeasureString(face, text).Ceil(), nil
}

func (c *LabelCompositor) face(size float64) (font.Face, error) {
	face, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}
