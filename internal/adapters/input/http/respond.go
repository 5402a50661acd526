package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeHueError writes the literal Hue error envelope: field names and
// casing are bit-exact because Echo validates them (spec.md §6).
func writeHueError(w http.ResponseWriter, status, errType int, address, description string) {
	writeJSON(w, status, []map[string]interface{}{
		{"error": map[string]interface{}{
			"type":        errType,
			"address":     address,
			"description": description,
		}},
	})
}

// decodeOrderedObject decodes a single JSON object body while preserving
// the order its keys appeared in, which the Hue PUT success response must
// echo (spec.md §4.D). encoding/json's map decoding loses key order, so
// this walks the token stream directly; no ordered-JSON library appears in
// the example pack.
func decodeOrderedObject(r io.Reader) (order []string, values map[string]interface{}, err error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected a json object")
	}

	values = make(map[string]interface{})
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected a string key")
		}
		var val interface{}
		if err := dec.Decode(&val); err != nil {
			return nil, nil, err
		}
		order = append(order, key)
		values[key] = val
	}
	return order, values, nil
}
