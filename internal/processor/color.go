package processor

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

const (
	// sampleArea is the pixel count images are reduced to before counting colours
	sampleArea = 200 * 200
	// bucketShift drops the low bits of each channel so similar colours share a bucket
	bucketShift = 3
)

type bucket struct {
	count   int
	r, g, b int
}

// DominantColor returns the most frequent colour of img, averaged over its
// quantization bucket. Transparent pixels are ignored.
func DominantColor(img image.Image) color.NRGBA {
	b := img.Bounds()
	if f := float64(b.Dx()*b.Dy()) / sampleArea; f > 1 {
		scale := math.Sqrt(f)
		img = imaging.Resize(img, max(1, int(float64(b.Dx())/scale)), max(1, int(float64(b.Dy())/scale)), imaging.NearestNeighbor)
	}
	sample := imaging.Clone(img)

	buckets := make(map[uint32]*bucket)
	var best *bucket
	pix := sample.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		if pix[i+3] < 128 {
			continue
		}
		r, g, bl := int(pix[i]), int(pix[i+1]), int(pix[i+2])
		key := uint32(r>>bucketShift)<<16 | uint32(g>>bucketShift)<<8 | uint32(bl>>bucketShift)
		bk, ok := buckets[key]
		if !ok {
			bk = &bucket{}
			buckets[key] = bk
		}
		bk.count++
		bk.r += r
		bk.g += g
		bk.b += bl
		if best == nil || bk.count > best.count {
			best = bk
		}
	}

	if best == nil {
		return color.NRGBA{A: 255}
	}
	return color.NRGBA{
		R: uint8(best.r / best.count),
		G: uint8(best.g / best.count),
		B: uint8(best.b / best.count),
		A: 255,
	}
}
