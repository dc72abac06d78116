package upstream

import (
	"encoding/json"
	"fmt"

	"github.com/b-clawson/pms-finder/errs"
)

// JsonScan decodes a vendor payload into dst. A JSON null decodes as the
// zero value; any mismatch is a MalformedUpstreamShape.
func JsonScan[T any](vendor string, src any, dst *T) error {
	var b []byte
	switch v := src.(type) {
	case json.RawMessage:
		b = v
	case []byte:
		b = v
	case string:
		b = []byte(v)
	case nil:
		return nil
	default:
		return fmt.Errorf("cannot convert %T", src)
	}
	if string(b) == "null" {
		return nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return errs.New(errs.MalformedUpstreamShape, vendor, fmt.Sprintf("unexpected %s API response", vendor), err)
	}
	return nil
}
