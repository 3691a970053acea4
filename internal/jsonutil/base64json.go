package jsonutil

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Base64JSONEncode marshals v to JSON and encodes the result as standard
// base64. Used for opaque wire payloads (e.g. remote file upload bodies).
func Base64JSONEncode[T any](v T) string {
	b, err := json.Marshal(v)
	if err != nil {
		// Marshalling plain data structs cannot fail; an empty token is the
		// least surprising fallback if it ever does.
		return ""
	}
	return base64.StdEncoding.EncodeToString(b)
}

// Base64JSONDecode reverses Base64JSONEncode.
func Base64JSONDecode[T any](s string) (T, error) {
	var out T
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("base64 decode: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("json decode: %w", err)
	}
	return out, nil
}
