// Package transport converts ciphertexts to and from their JSON wire form
// and talks to the scoring service over HTTP.
package transport

import (
	"encoding/base64"
	"fmt"

	"assessment-backend/models"
)

// Encode returns the standard base64 form of b.
func Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Decode parses standard base64. Decode(Encode(b)) == b for every b,
// including the empty slice.
func Decode(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, &models.TransportError{Op: "decode base64", Err: err}
	}
	if b == nil {
		b = []byte{}
	}
	return b, nil
}

// EncodeAll encodes each element of bs.
func EncodeAll(bs [][]byte) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = Encode(b)
	}
	return out
}

// DecodeAll decodes each element of ss, reporting the index of the first
// malformed entry.
func DecodeAll(ss []string) ([][]byte, error) {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		b, err := Decode(s)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}
