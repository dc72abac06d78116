package upstream

import (
	"encoding/json"

	"github.com/b-clawson/pms-finder/errs"
)

// ShapeCheck decides whether a response is fit for the cache.
type ShapeCheck func(json.RawMessage) error

func malformed(format string, args ...any) error {
	return errs.Newf(errs.MalformedUpstreamShape, "shape check", format, args...)
}

// ObjectOrArray accepts any JSON object or array.
func ObjectOrArray(data json.RawMessage) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return malformed("response is not JSON")
	}
	switch v.(type) {
	case map[string]any, []any:
		return nil
	}
	return malformed("expected object or array, got %T", v)
}

// ArrayOf accepts an array whose first element, if any, is an object
// carrying all the given fields.
func ArrayOf(fields ...string) ShapeCheck {
	return func(data json.RawMessage) error {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return malformed("expected array")
		}
		if len(items) == 0 {
			return nil
		}
		return hasFields(items[0], fields)
	}
}

func hasFields(raw json.RawMessage, fields []string) error {
	var first map[string]json.RawMessage
	if err := json.Unmarshal(raw, &first); err != nil {
		return malformed("expected object elements")
	}
	for _, f := range fields {
		if _, ok := first[f]; !ok {
			return malformed("first element has no %q", f)
		}
	}
	return nil
}

// GraphQLField accepts an envelope {"data": {field: [...]}} without errors.
// When stringField is set, the first element must carry it as a string.
func GraphQLField(field, stringField string) ShapeCheck {
	return func(data json.RawMessage) error {
		var env graphQLEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return malformed("expected GraphQL envelope")
		}
		if len(env.Errors) > 0 {
			return malformed("GraphQL errors present")
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(env.Data, &obj); err != nil || obj == nil {
			return malformed("data is not an object")
		}
		var items []map[string]any
		if raw := obj[field]; raw == nil || string(raw) == "null" || json.Unmarshal(raw, &items) != nil {
			return malformed("%s is not an array", field)
		}
		if stringField != "" && len(items) > 0 {
			if _, ok := items[0][stringField].(string); !ok {
				return malformed("%s[0].%s is not a string", field, stringField)
			}
		}
		return nil
	}
}
