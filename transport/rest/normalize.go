package rest

import "encoding/json"

// normalizeKeys rewrites every object key in a JSON document from
// snake_case to camelCase, recursively, leaving already-camelCase keys
// untouched (snake_to_camel on a key with no underscore is a no-op). No
// library in the example corpus offers a generic JSON-tree key
// transform; this is small enough, and specific enough to the REST
// layer's dual-case input rule, that hand-rolling it keeps the engine
// free of a whole-tree dependency for one boundary concern.
func normalizeKeys(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		return raw, nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	normalized := normalizeValue(v)
	return json.Marshal(normalized)
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, inner := range val {
			out[snakeToCamel(k)] = normalizeValue(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, inner := range val {
			out[i] = normalizeValue(inner)
		}
		return out
	default:
		return val
	}
}

// snakeToCamel converts "message_id" to "messageId". A key with no
// underscore is returned unchanged.
func snakeToCamel(key string) string {
	out := make([]byte, 0, len(key))
	upperNext := false
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c == '_' {
			upperNext = true
			continue
		}
		if upperNext && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upperNext = false
		out = append(out, c)
	}
	return string(out)
}
