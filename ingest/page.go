package ingest

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/b-clawson/pms-finder/schema"
)

var (
	embeddedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`ultramix\.formulas\.current\((\{[\s\S]*?\})\)`),
		regexp.MustCompile(`formulaData\s*=\s*(\{[\s\S]*?\});`),
		regexp.MustCompile(`var\s+formula\s*=\s*(\{[\s\S]*?\});`),
	}
	trailingObjRe  = regexp.MustCompile(`,\s*}`)
	trailingArrRe  = regexp.MustCompile(`,\s*]`)
	optionRe       = regexp.MustCompile(`<option\s+value="(\d+)"`)
	headingRe      = regexp.MustCompile(`(?i)<h[1-4][^>]*>\s*(.*?)\s*</h[1-4]>`)
	rowRe          = regexp.MustCompile(`(?i)<tr[^>]*>([\s\S]*?)</tr>`)
	cellRe         = regexp.MustCompile(`(?i)<td[^>]*>([\s\S]*?)</td>`)
	tagRe          = regexp.MustCompile(`<[^>]+>`)
	leadingFloatRe = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// DiscoverIDs lists the positive formula ids of a listing page's options,
// deduplicated and sorted.
func DiscoverIDs(html string) []int {
	seen := make(map[int]bool)
	var ids []int
	for _, m := range optionRe.FindAllStringSubmatch(html, -1) {
		id, err := strconv.Atoi(m[1])
		if err != nil || id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// pageData is what a detail page yields before field aliases are applied.
type pageData map[string]any

// ExtractPage pulls formula data out of a detail page: embedded JSON first,
// then near-JSON with quotes and trailing commas repaired, then the rows of
// the ingredient table.
func ExtractPage(html string, id int) (name string, lines []schema.ScrapedLine) {
	data := extractEmbedded(html)
	if data == nil {
		data = extractTable(html, id)
	}
	name = firstString(data, "name", "formula_name")
	if name == "" {
		name = fmt.Sprintf("Formula %d", id)
	}
	raw, _ := firstValue(data, "lines", "formula_lines").([]any)
	for _, item := range raw {
		l, ok := item.(map[string]any)
		if !ok {
			continue
		}
		lines = append(lines, schema.ScrapedLine{
			PartNumber: firstString(l, "part_number", "partNumber"),
			Name:       firstString(l, "name", "component_name"),
			Percent:    parseFloat(firstValue(l, "percent", "percentage")),
			Weight:     parseFloat(firstValue(l, "weight", "grams")),
			Category:   firstString(l, "category", "type"),
			Density:    parseFloat(firstValue(l, "density")),
		})
	}
	return name, lines
}

func extractEmbedded(html string) pageData {
	for _, re := range embeddedPatterns {
		m := re.FindStringSubmatch(html)
		if m == nil {
			continue
		}
		var data pageData
		if json.Unmarshal([]byte(m[1]), &data) == nil {
			return data
		}
		relaxed := strings.ReplaceAll(m[1], "'", `"`)
		relaxed = trailingObjRe.ReplaceAllString(relaxed, "}")
		relaxed = trailingArrRe.ReplaceAllString(relaxed, "]")
		if json.Unmarshal([]byte(relaxed), &data) == nil {
			return data
		}
	}
	return nil
}

func extractTable(html string, id int) pageData {
	name := fmt.Sprintf("Formula %d", id)
	if m := headingRe.FindStringSubmatch(html); m != nil {
		name = stripTags(m[1])
	}
	var lines []any
	for _, row := range rowRe.FindAllStringSubmatch(html, -1) {
		var cells []string
		for _, c := range cellRe.FindAllStringSubmatch(row[1], -1) {
			cells = append(cells, stripTags(c[1]))
		}
		if len(cells) < 3 {
			continue
		}
		pct := parseFloat(cells[2])
		if pct == 0 {
			pct = parseFloat(cells[1])
		}
		if pct <= 0 {
			continue
		}
		lineName := cells[1]
		if lineName == "" {
			lineName = cells[0]
		}
		lines = append(lines, map[string]any{
			"part_number": cells[0],
			"name":        lineName,
			"percent":     pct,
			"weight":      parseFloat(cellAt(cells, 3)),
			"category":    cellAt(cells, 4),
			"density":     parseFloat(cellAt(cells, 5)),
		})
	}
	return pageData{"name": name, "lines": lines}
}

func cellAt(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}

func stripTags(s string) string {
	return strings.TrimSpace(tagRe.ReplaceAllString(s, ""))
}

// firstValue returns the first present, non-empty value among keys.
func firstValue(m map[string]any, keys ...string) any {
	for _, k := range keys {
		switch v := m[k].(type) {
		case nil:
		case string:
			if v != "" {
				return v
			}
		case float64:
			if v != 0 {
				return v
			}
		case bool:
			if v {
				return v
			}
		default:
			return v
		}
	}
	return nil
}

func firstString(m map[string]any, keys ...string) string {
	switch v := firstValue(m, keys...).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// parseFloat reads the leading number of a string or passes a number
// through. Anything else is 0.
func parseFloat(v any) float64 {
	switch v := v.(type) {
	case float64:
		return v
	case string:
		m := leadingFloatRe.FindString(strings.TrimSpace(v))
		if m == "" {
			return 0
		}
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}
