// Package colorutils holds the pure color functions used for matching:
// hex normalization, RGB distance, percentage blending, CMYK and Lab
// conversion and the layered name resolver.
package colorutils

import (
	"math"
	"regexp"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// FallbackGray is returned by Blend when no component carries a usable hex.
// Formulas whose only color is this value are excluded from ranking.
const FallbackGray = "#888888"

// MaxDistance is the distance between black and white.
var MaxDistance = RGBDistance(RGB{}, RGB{255, 255, 255})

var hexRe = regexp.MustCompile(`^#?([0-9A-Fa-f]{6})$`)

// RGB is a color in 0..255 space.
type RGB struct {
	R, G, B int
}

// Hex formats the color as uppercase #RRGGBB.
func (c RGB) Hex() string {
	c = RGB{clamp(c.R), clamp(c.G), clamp(c.B)}
	return strings.ToUpper(colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hex())
}

func clamp(v int) int {
	return max(0, min(255, v))
}

// NormalizeHex returns the input as uppercase "#RRGGBB". Only six-digit
// values are accepted, with or without '#', after trimming whitespace.
func NormalizeHex(in string) (string, bool) {
	m := hexRe.FindStringSubmatch(strings.TrimSpace(in))
	if m == nil {
		return "", false
	}
	return "#" + strings.ToUpper(m[1]), true
}

// HexToRGB decomposes a six-digit hex value.
func HexToRGB(hex string) (RGB, bool) {
	norm, ok := NormalizeHex(hex)
	if !ok {
		return RGB{}, false
	}
	c, err := colorful.Hex(norm)
	if err != nil {
		return RGB{}, false
	}
	r, g, b := c.RGB255()
	return RGB{int(r), int(g), int(b)}, true
}

// RGBDistance is the Euclidean distance in 0..255 RGB space.
func RGBDistance(a, b RGB) float64 {
	dr := float64(a.R - b.R)
	dg := float64(a.G - b.G)
	db := float64(a.B - b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Weighted is one blend input.
type Weighted struct {
	Hex        string
	Percentage float64
}

// Blend averages the components per channel, weighted by percentage.
// Components without a valid hex are ignored.
func Blend(components []Weighted) string {
	var r, g, b, total float64
	for _, c := range components {
		rgb, ok := HexToRGB(c.Hex)
		if !ok {
			continue
		}
		r += float64(rgb.R) * c.Percentage
		g += float64(rgb.G) * c.Percentage
		b += float64(rgb.B) * c.Percentage
		total += c.Percentage
	}
	if total <= 0 {
		return FallbackGray
	}
	return RGB{
		R: int(math.Round(r / total)),
		G: int(math.Round(g / total)),
		B: int(math.Round(b / total)),
	}.Hex()
}

// Cmyk2rgb converts a CMYK color value (0..100 per channel) to RGB
func Cmyk2rgb(cmyk []float64) RGB {
	var r, g, b float64
	r = 255.0 * (1 - cmyk[0]/100) * (1 - cmyk[3]/100)
	g = 255.0 * (1 - cmyk[1]/100) * (1 - cmyk[3]/100)
	b = 255.0 * (1 - cmyk[2]/100) * (1 - cmyk[3]/100)
	return RGB{int(math.Ceil(r)), int(math.Ceil(g)), int(math.Ceil(b))}
}

// Lab2rgb converts a D65 CIELAB color value to RGB
func Lab2rgb(lab []float64) RGB {
	y := (lab[0] + 16) / 116
	x := lab[1]/500 + y
	z := y - lab[2]/200

	x = 0.95047 * labPivot(x)
	y = 1.00000 * labPivot(y)
	z = 1.08883 * labPivot(z)

	r := x*3.2406 + y*-1.5372 + z*-0.4986
	g := x*-0.9689 + y*1.8758 + z*0.0415
	b := x*0.0557 + y*-0.2040 + z*1.0570

	return RGB{gamma(r), gamma(g), gamma(b)}
}

func labPivot(v float64) float64 {
	if v*v*v > 0.008856 {
		return v * v * v
	}
	return (v - 16.0/116) / 7.787
}

func gamma(v float64) int {
	if v > 0.0031308 {
		v = 1.055*math.Pow(v, 1/2.4) - 0.055
	} else {
		v = 12.92 * v
	}
	return int(math.Ceil(math.Max(0, math.Min(1, v)) * 255))
}
