package colorutils_test

import (
	"testing"

	"github.com/b-clawson/pms-finder/colorutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHex(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		in   string
		want string
		ok   bool
	}{
		"with hash":          {in: "#ff8800", want: "#FF8800", ok: true},
		"without hash":       {in: "ff8800", want: "#FF8800", ok: true},
		"surrounding spaces": {in: "  #AbCdEf\t", want: "#ABCDEF", ok: true},
		"three digit":        {in: "#F80", ok: false},
		"seven digit":        {in: "#FF88001", ok: false},
		"non hex":            {in: "#GG0000", ok: false},
		"empty":              {in: "", ok: false},
		"double hash":        {in: "##FF0000", ok: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, ok := colorutils.NormalizeHex(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			if ok {
				again, ok2 := colorutils.NormalizeHex(got)
				assert.True(t, ok2)
				assert.Equal(t, got, again)
			}
		})
	}
}

func TestHexToRGB(t *testing.T) {
	t.Parallel()

	rgb, ok := colorutils.HexToRGB("#DA291C")
	require.True(t, ok)
	assert.Equal(t, colorutils.RGB{R: 218, G: 41, B: 28}, rgb)
	assert.Equal(t, "#DA291C", rgb.Hex())

	_, ok = colorutils.HexToRGB("nope")
	assert.False(t, ok)
}

func TestRGBDistance(t *testing.T) {
	t.Parallel()

	black := colorutils.RGB{}
	white := colorutils.RGB{R: 255, G: 255, B: 255}
	red := colorutils.RGB{R: 255}

	assert.Zero(t, colorutils.RGBDistance(red, red))
	assert.Equal(t, colorutils.RGBDistance(black, red), colorutils.RGBDistance(red, black))
	assert.InDelta(t, 441.67, colorutils.Round2(colorutils.RGBDistance(black, white)), 0.001)
	assert.InDelta(t, 441.67, colorutils.Round2(colorutils.MaxDistance), 0.001)
}

func TestBlend(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		in   []colorutils.Weighted
		want string
	}{
		"even red and blue": {
			in:   []colorutils.Weighted{{Hex: "#FF0000", Percentage: 50}, {Hex: "#0000FF", Percentage: 50}},
			want: "#800080",
		},
		"bare hex accepted": {
			in:   []colorutils.Weighted{{Hex: "FFFFFF", Percentage: 75}, {Hex: "000000", Percentage: 25}},
			want: "#BFBFBF",
		},
		"invalid components ignored": {
			in:   []colorutils.Weighted{{Hex: "", Percentage: 90}, {Hex: "#00FF00", Percentage: 10}},
			want: "#00FF00",
		},
		"empty": {
			in:   nil,
			want: colorutils.FallbackGray,
		},
		"zero weight": {
			in:   []colorutils.Weighted{{Hex: "#FF0000", Percentage: 0}},
			want: colorutils.FallbackGray,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, colorutils.Blend(tt.in))
		})
	}
}

func TestCmyk2rgb(t *testing.T) {
	t.Parallel()

	assert.Equal(t, colorutils.RGB{R: 255, G: 255, B: 255}, colorutils.Cmyk2rgb([]float64{0, 0, 0, 0}))
	assert.Equal(t, colorutils.RGB{}, colorutils.Cmyk2rgb([]float64{0, 0, 0, 100}))
	assert.Equal(t, colorutils.RGB{G: 255, B: 255}, colorutils.Cmyk2rgb([]float64{100, 0, 0, 0}))
}

func TestLab2rgb(t *testing.T) {
	t.Parallel()

	white := colorutils.Lab2rgb([]float64{100, 0, 0})
	assert.InDelta(t, 255, white.R, 1)
	assert.InDelta(t, 255, white.G, 1)
	assert.InDelta(t, 255, white.B, 1)

	assert.Equal(t, colorutils.RGB{}, colorutils.Lab2rgb([]float64{0, 0, 0}))
}
