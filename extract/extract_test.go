package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegionEmpty(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		region Region
		want   bool
	}{
		"zero":        {region: Region{}, want: true},
		"no height":   {region: Region{Left: 5, Top: 5, Width: 10}, want: true},
		"negative":    {region: Region{Width: -1, Height: 4}, want: true},
		"single cell": {region: Region{Width: 1, Height: 1}, want: false},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.region.empty())
		})
	}
}
