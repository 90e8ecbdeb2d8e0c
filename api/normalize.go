package api

import (
	"encoding/json"
	"unicode"
	"unicode/utf8"
)

// Magnus servers emit PascalCase JSON keys. decodeJSON lowercases the
// leading character of every object key (recursing through nested objects
// and array elements) before unmarshalling into v, so struct tags on the
// Go side stay camelCase. Keys that don't start with an uppercase letter
// are left alone, which also makes the rewrite idempotent.

func decodeJSON(data []byte, v any) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	normalized, err := json.Marshal(normalizeKeys(raw))
	if err != nil {
		return err
	}
	return json.Unmarshal(normalized, v)
}

// normalizeKeys rewrites object key casing in place where possible and
// returns the normalized value. Array elements keep their structural shape;
// only object key casing changes.
func normalizeKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[lowerFirst(k)] = normalizeKeys(val)
		}
		return out
	case []any:
		for i, e := range t {
			t[i] = normalizeKeys(e)
		}
		return t
	default:
		return v
	}
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || !unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
