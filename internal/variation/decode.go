package variation

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

type rawState struct {
	Selections         map[string]json.RawMessage `json:"selections"`
	SelectedAttributes map[string]json.RawMessage `json:"selected_attributes"`
	VariationID        json.RawMessage            `json:"variation_id"`
	Quantity           json.RawMessage            `json:"quantity"`
}

// DecodeState reads a stored selection state without failing. Quantities may be
// numbers or numeric strings, numeric attribute values are kept as text, and
// anything else that does not fit is dropped. Resolution repairs the rest.
func DecodeState(data json.RawMessage) State {
	var raw rawState
	if len(bytes.TrimSpace(data)) == 0 || json.Unmarshal(data, &raw) != nil {
		return State{}
	}
	st := State{
		Selections:         looseStrings(raw.Selections),
		SelectedAttributes: looseStrings(raw.SelectedAttributes),
		VariationID:        looseString(raw.VariationID),
	}
	text := strings.TrimSpace(string(bytes.Trim(bytes.TrimSpace(raw.Quantity), `"`)))
	if d, err := decimal.NewFromString(text); err == nil {
		st.Quantity = int(d.IntPart())
	}
	return st
}

func looseStrings(in map[string]json.RawMessage) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		if s := looseString(v); s != "" {
			out[k] = s
		}
	}
	return out
}

func looseString(data json.RawMessage) string {
	var s string
	if json.Unmarshal(data, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(data, &n) == nil {
		return n.String()
	}
	return ""
}
