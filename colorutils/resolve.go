package colorutils

import (
	"regexp"
	"strings"
)

// Lookup answers name -> hex queries against a reference index.
// Keys are compared uppercase.
type Lookup interface {
	Lookup(name string) (string, bool)
}

// Step identifies which layer of the resolver produced a color.
type Step string

const (
	StepSpecialty  Step = "specialty"
	StepDateSuffix Step = "date-suffix"
	StepReference  Step = "reference"
)

var (
	dateSuffixRe = regexp.MustCompile(`\s*-?\s*\d{1,2}-\d{1,2}-?\d{2,4}$`)
	coatingRe    = regexp.MustCompile(`(\d)([CU])$`)
)

type resolveFunc func(name string) (string, bool)

// Resolver maps free-form color names ("485C", "Cool Gray 7 C",
// "113C - 6-2023") to a reference hex. It never guesses a near color.
type Resolver struct {
	specialty map[string]string
	index     Lookup
}

// NewResolver builds a resolver. specialty keys must be uppercase.
// index may be nil, in which case only the specialty table is consulted.
func NewResolver(specialty map[string]string, index Lookup) *Resolver {
	return &Resolver{specialty: specialty, index: index}
}

// ResolveByName returns the hex for name, or false when nothing matched.
func (r *Resolver) ResolveByName(name string) (string, bool) {
	hex, _, ok := r.Resolve(name)
	return hex, ok
}

// Resolve is ResolveByName and also reports the layer that matched.
func (r *Resolver) Resolve(name string) (string, Step, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if upper == "" {
		return "", "", false
	}

	if hex, ok := r.specialtyHex(upper); ok {
		return hex, StepSpecialty, true
	}

	stripped := strings.TrimSpace(dateSuffixRe.ReplaceAllString(upper, ""))
	cleaned := coatingRe.ReplaceAllString(stripped, "$1 $2")
	if cleaned == "" {
		return "", "", false
	}

	step := StepReference
	if stripped != upper {
		step = StepDateSuffix
	}
	for _, try := range r.chain(cleaned) {
		if hex, ok := try(cleaned); ok {
			return hex, step, true
		}
	}
	return "", "", false
}

func (r *Resolver) specialtyHex(name string) (string, bool) {
	hex, ok := r.specialty[name]
	if !ok {
		return "", false
	}
	return NormalizeHex(hex)
}

func (r *Resolver) chain(cleaned string) []resolveFunc {
	if r.index == nil {
		return nil
	}
	steps := []resolveFunc{
		r.prefixed(""),
		r.prefixed("PMS "),
		r.prefixed("PANTONE "),
	}
	if !strings.HasSuffix(cleaned, " C") {
		steps = append(steps, r.coated(""), r.coated("PMS "))
	}
	return steps
}

func (r *Resolver) prefixed(prefix string) resolveFunc {
	return func(name string) (string, bool) {
		return r.lookup(prefix + name)
	}
}

func (r *Resolver) coated(prefix string) resolveFunc {
	return func(name string) (string, bool) {
		return r.lookup(prefix + name + " C")
	}
}

func (r *Resolver) lookup(key string) (string, bool) {
	hex, ok := r.index.Lookup(key)
	if !ok {
		return "", false
	}
	return NormalizeHex(hex)
}
