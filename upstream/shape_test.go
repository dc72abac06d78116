package upstream_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/b-clawson/pms-finder/errs"
	"github.com/b-clawson/pms-finder/upstream"
	"github.com/stretchr/testify/assert"
)

func TestShapeChecks(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		check upstream.ShapeCheck
		in    string
		ok    bool
	}{
		"object":                 {upstream.ObjectOrArray, `{"a": 1}`, true},
		"array":                  {upstream.ObjectOrArray, `[]`, true},
		"string":                 {upstream.ObjectOrArray, `"x"`, false},
		"empty array of":         {upstream.ArrayOf("code"), `[]`, true},
		"first element has code": {upstream.ArrayOf("code", "hex"), `[{"code": "A", "hex": "#000000"}, {}]`, true},
		"first element missing":  {upstream.ArrayOf("code"), `[{"hex": "#000000"}]`, false},
		"object instead":         {upstream.ArrayOf("code"), `{"code": "A"}`, false},
		"graphql colors":         {upstream.GraphQLField("colors", "code"), `{"data": {"colors": [{"code": "FN-1"}]}}`, true},
		"graphql numeric code":   {upstream.GraphQLField("colors", "code"), `{"data": {"colors": [{"code": 1}]}}`, false},
		"graphql null list":      {upstream.GraphQLField("colors", "code"), `{"data": {"colors": null}}`, false},
		"graphql null data":      {upstream.GraphQLField("materials", ""), `{"data": null}`, false},
		"graphql errors":         {upstream.GraphQLField("materials", ""), `{"data": {"materials": []}, "errors": [{"message": "boom"}]}`, false},
		"graphql materials":      {upstream.GraphQLField("materials", ""), `{"data": {"materials": [{"id": "1"}]}}`, true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			err := tt.check(json.RawMessage(tt.in))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, errs.MalformedUpstreamShape))
		})
	}
}

func TestJsonScan(t *testing.T) {
	t.Parallel()

	var out []upstream.MatsuiSeries
	assert.NoError(t, upstream.JsonScan("matsui", []byte(`[{"_id": "1", "seriesName": "OW Stretch"}]`), &out))
	assert.Equal(t, []upstream.MatsuiSeries{{ID: "1", SeriesName: "OW Stretch"}}, out)

	out = nil
	assert.NoError(t, upstream.JsonScan("matsui", "null", &out))
	assert.Nil(t, out)

	err := upstream.JsonScan("matsui", json.RawMessage(`{"seriesName": 3}`), &out)
	assert.True(t, errors.Is(err, errs.MalformedUpstreamShape))

	assert.Error(t, upstream.JsonScan("matsui", 42, &out))
}
