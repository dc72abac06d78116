package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/b-clawson/pms-finder/errs"
)

// MaxErrorDetails caps the per-record errors kept in a Result.
const MaxErrorDetails = 20

var (
	hexWithHashRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	bareHexRe     = regexp.MustCompile(`^([0-9A-Fa-f]{6})?$`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("rgbhex", func(fl validator.FieldLevel) bool {
		return hexWithHashRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("rgbhexbare", func(fl validator.FieldLevel) bool {
		return bareHexRe.MatchString(fl.Field().String())
	})
	return v
}

// Schema checks raw JSON records against a Go record type.
type Schema struct {
	Name string
	typ  reflect.Type
}

// NewSchema builds a schema for record type T. Every JSON field of T without
// omitempty must be present; pointer fields may be null.
func NewSchema[T any](name string) Schema {
	return Schema{Name: name, typ: reflect.TypeFor[T]()}
}

var (
	ScrapedFormulaSchema     = NewSchema[ScrapedFormula]("scraped-formula")
	SpreadsheetFormulaSchema = NewSchema[SpreadsheetFormula]("spreadsheet-formula")
	SwatchSchema             = NewSchema[Swatch]("reference-swatch")
	FormulaSchema            = NewSchema[Formula]("canonical-formula")
)

// Check returns the issues of one record, empty when it is valid.
func (s Schema) Check(raw json.RawMessage) []string {
	issues := presenceIssues(raw, s.typ, "")
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '{' {
		return issues
	}

	rec := reflect.New(s.typ)
	if err := json.Unmarshal(raw, rec.Interface()); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			issues = append(issues, fmt.Sprintf("%s: expected %s, received %s", typeErr.Field, typeErr.Type, typeErr.Value))
		} else {
			return append(issues, "record: "+err.Error())
		}
	}

	if err := validate.Struct(rec.Interface()); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return append(issues, "record: "+err.Error())
		}
		for _, fe := range fieldErrs {
			issues = append(issues, fmt.Sprintf("%s: %s", fieldPath(fe.Namespace()), message(fe)))
		}
	}
	return issues
}

func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return "must be >= " + fe.Param()
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "rgbhex":
		return "must be a #RRGGBB hex color"
	case "rgbhexbare":
		return "must be a 6-digit hex color without '#', or empty"
	default:
		return "failed " + fe.Tag()
	}
}

// presenceIssues walks the JSON alongside t and reports missing keys and
// nulls in non-nullable fields.
func presenceIssues(raw json.RawMessage, t reflect.Type, path string) []string {
	label := path
	if label == "" {
		label = "record"
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return []string{label + ": expected object"}
	}

	var issues []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		p := name
		if path != "" {
			p = path + "." + name
		}

		v, ok := obj[name]
		if !ok {
			if !strings.Contains(opts, "omitempty") {
				issues = append(issues, p+": required")
			}
			continue
		}
		if string(v) == "null" {
			if f.Type.Kind() != reflect.Pointer {
				issues = append(issues, fmt.Sprintf("%s: expected %s, received null", p, f.Type.Kind()))
			}
			continue
		}

		switch ft := f.Type; {
		case ft.Kind() == reflect.Struct:
			issues = append(issues, presenceIssues(v, ft, p)...)
		case ft.Kind() == reflect.Slice && ft.Elem().Kind() == reflect.Struct:
			var items []json.RawMessage
			if err := json.Unmarshal(v, &items); err != nil {
				continue
			}
			for j, item := range items {
				issues = append(issues, presenceIssues(item, ft.Elem(), fmt.Sprintf("%s[%d]", p, j))...)
			}
		}
	}
	return issues
}

// RecordError describes one invalid record.
type RecordError struct {
	Index  int      `json:"index"`
	ID     string   `json:"id"`
	Issues []string `json:"issues"`
}

// Result summarizes validation of an array of records.
type Result struct {
	Label   string        `json:"label"`
	Total   int           `json:"total"`
	Valid   int           `json:"valid"`
	Invalid int           `json:"invalid"`
	Errors  []RecordError `json:"errors"`
}

// Validate checks every record. It never fails: malformed records are
// counted and the first MaxErrorDetails of them are described.
func Validate(label string, records []json.RawMessage, s Schema) Result {
	res := Result{Label: label, Total: len(records), Errors: []RecordError{}}
	for i, raw := range records {
		issues := s.Check(raw)
		if len(issues) == 0 {
			res.Valid++
			continue
		}
		res.Invalid++
		if len(res.Errors) < MaxErrorDetails {
			res.Errors = append(res.Errors, RecordError{Index: i, ID: recordID(raw, i), Issues: issues})
		}
	}
	return res
}

// ValidateRecords validates typed records as they would be written.
func ValidateRecords[T any](label string, records []T, s Schema) Result {
	raws := make([]json.RawMessage, len(records))
	for i, r := range records {
		b, err := json.Marshal(r)
		if err != nil {
			b = []byte("null")
		}
		raws[i] = b
	}
	return Validate(label, raws, s)
}

var idKeys = []string{"id", "_id", "code", "formulaCode", "pms"}

func recordID(raw json.RawMessage, index int) string {
	var obj map[string]any
	if json.Unmarshal(raw, &obj) == nil {
		for _, k := range idKeys {
			if s, ok := obj[k].(string); ok && s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("index %d", index)
}

// Err returns a SchemaViolation error when any record failed.
func (r Result) Err() error {
	if r.Invalid == 0 {
		return nil
	}
	return errs.Newf(errs.SchemaViolation, r.Label, "%d/%d records failed schema check", r.Invalid, r.Total)
}

// Log writes an aggregate warning with up to n example records.
func (r Result) Log(n int) {
	if r.Invalid == 0 {
		return
	}
	log.Printf("[!] %s: %d/%d records failed validation", r.Label, r.Invalid, r.Total)
	for _, e := range r.Errors[:min(n, len(r.Errors))] {
		log.Printf("[!]   %s: %s", e.ID, strings.Join(e.Issues, "; "))
	}
}
