package ingest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/b-clawson/pms-finder/ingest"
	"github.com/b-clawson/pms-finder/schema"
)

func TestDiscoverIDs(t *testing.T) {
	t.Parallel()

	html := `<select id="formula">
	  <option value="0">Choose</option>
	  <option value="42">485 C</option>
	  <option  value="7">Process Cyan C</option>
	  <option value="42">485 C</option>
	  <option value="abc">nope</option>
	</select>`
	assert.Equal(t, []int{7, 42}, ingest.DiscoverIDs(html))
	assert.Empty(t, ingest.DiscoverIDs("<html></html>"))
}

func TestExtractPage(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		html  string
		name  string
		lines []schema.ScrapedLine
	}{
		"embedded call": {
			html: `<script>ultramix.formulas.current({"name": "485 C", "lines": [
			  {"part_number": "7500-RD", "name": "Red", "percent": 62.5, "weight": 625, "category": "INK", "density": 1.1},
			  {"partNumber": "7500-CL", "component_name": "Clear", "percentage": "37.5", "grams": "375", "type": "Base"}
			]})</script>`,
			name: "485 C",
			lines: []schema.ScrapedLine{
				{PartNumber: "7500-RD", Name: "Red", Percent: 62.5, Weight: 625, Category: "INK", Density: 1.1},
				{PartNumber: "7500-CL", Name: "Clear", Percent: 37.5, Weight: 375, Category: "Base"},
			},
		},
		"relaxed assignment": {
			html: `<script>var formulaData = {'formula_name': 'Reflex Blue C', 'formula_lines': [{'part_number': 'BL', 'name': 'Blue', 'percent': 100,},],};</script>`,
			name: "Reflex Blue C",
			lines: []schema.ScrapedLine{
				{PartNumber: "BL", Name: "Blue", Percent: 100},
			},
		},
		"table fallback": {
			html: `<h2 class="title"> <b>113C - 6-2023</b> </h2>
			<table>
			  <tr><th>Part</th><th>Name</th><th>%</th></tr>
			  <tr><td>7500-YL</td><td>Yellow</td><td>80.5%</td><td>805</td><td>INK</td><td>1.05</td></tr>
			  <tr><td>7500-CL</td><td></td><td>19.5</td></tr>
			  <tr><td>7500-ZZ</td><td>Zero</td><td>0</td></tr>
			  <tr><td>only</td><td>two</td></tr>
			</table>`,
			name: "113C - 6-2023",
			lines: []schema.ScrapedLine{
				{PartNumber: "7500-YL", Name: "Yellow", Percent: 80.5, Weight: 805, Category: "INK", Density: 1.05},
				{PartNumber: "7500-CL", Name: "7500-CL", Percent: 19.5},
			},
		},
		"nothing usable": {
			html: `<p>Not found</p>`,
			name: "Formula 9",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			gotName, gotLines := ingest.ExtractPage(tt.html, 9)
			assert.Equal(t, tt.name, gotName)
			assert.Equal(t, tt.lines, gotLines)
		})
	}
}
