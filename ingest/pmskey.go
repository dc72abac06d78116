package ingest

import (
	"regexp"
	"strings"
)

var pmsKeyRegExp *regexp.Regexp

func init() {
	regExp, err := regexp.Compile(`\s+[CUcu](\s*\(\d+\))?$`)
	if err != nil {
		panic(err)
	}
	pmsKeyRegExp = regExp
}

// PMSKey turns a formula code into a reference swatch code: the trailing
// coating marker and an optional "(n)" variant are dropped, "485 C (2)"
// becomes "485".
func PMSKey(code string) string {
	return strings.ToLower(strings.TrimSpace(pmsKeyRegExp.ReplaceAllString(code, "")))
}
