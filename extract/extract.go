// Package extract derives a target color from an image with libvips.
// Callers must run vips.Startup before use.
package extract

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/davidbyttow/govips/v2/vips"

	"github.com/b-clawson/pms-finder/colorutils"
)

// Region is a pixel rectangle. The zero Region means the whole image.
type Region struct {
	Left, Top, Width, Height int
}

func (r Region) empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// AverageColorFile is AverageColor of an image file.
func AverageColorFile(filename string, region Region) (colorutils.RGB, error) {
	ref, err := vips.LoadImageFromFile(filename, nil)
	if err != nil {
		return colorutils.RGB{}, err
	}
	defer ref.Close()
	return AverageColor(ref, region)
}

// AverageColorBuffer is AverageColor of an encoded image.
func AverageColorBuffer(buf []byte, region Region) (colorutils.RGB, error) {
	ref, err := vips.NewImageFromBuffer(buf)
	if err != nil {
		return colorutils.RGB{}, err
	}
	defer ref.Close()
	return AverageColor(ref, region)
}

// AverageColor is the per-channel sRGB mean of ref, or of region within it.
// Transparent pixels are flattened onto white. ref is modified.
func AverageColor(ref *vips.ImageRef, region Region) (colorutils.RGB, error) {
	st := time.Now()
	defer func() {
		log.Printf("[<] Average color of %dx%d image, at %s", ref.Width(), ref.Height(), time.Since(st))
	}()

	if !region.empty() {
		if region.Left < 0 || region.Top < 0 ||
			region.Left+region.Width > ref.Width() || region.Top+region.Height > ref.Height() {
			return colorutils.RGB{}, fmt.Errorf("region %+v is outside the %dx%d image", region, ref.Width(), ref.Height())
		}
		if err := ref.ExtractArea(region.Left, region.Top, region.Width, region.Height); err != nil {
			return colorutils.RGB{}, err
		}
	}

	switch ref.ColorSpace() {
	case vips.InterpretationSRGB, vips.InterpretationRGB, vips.InterpretationRGB16,
		vips.InterpretationCMYK, vips.InterpretationBW, vips.InterpretationGrey16:
		if err := ref.ToColorSpace(vips.InterpretationSRGB); err != nil {
			return colorutils.RGB{}, err
		}
	default:
		return colorutils.RGB{}, errors.New("unsupported color space")
	}

	if ref.HasAlpha() {
		if err := ref.Flatten(&vips.Color{R: 255, G: 255, B: 255}); err != nil {
			return colorutils.RGB{}, err
		}
	}

	bands, err := ref.BandSplit()
	if err != nil {
		return colorutils.RGB{}, err
	}
	defer func() {
		for _, b := range bands {
			b.Close()
		}
	}()
	if len(bands) < 3 {
		return colorutils.RGB{}, fmt.Errorf("expected 3 bands, got %d", len(bands))
	}

	var channels [3]int
	for i := range channels {
		avg, err := bands[i].Average()
		if err != nil {
			return colorutils.RGB{}, err
		}
		channels[i] = int(math.Round(avg))
	}
	return colorutils.RGB{R: channels[0], G: channels[1], B: channels[2]}, nil
}
