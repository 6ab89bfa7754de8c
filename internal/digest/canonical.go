// Package digest computes canonical JSON forms and the SHA-256 digests
// defined in spec.md §4.5: EP content digests, EPT digests, constraint
// payload/family/envelope digests, manifest digests (full and semantic),
// and seed digests.
//
// Canonical JSON here means UTF-8, object keys sorted alphabetically, no
// insignificant whitespace, arrays preserving semantic order. Go's
// encoding/json already serializes map[string]any with keys sorted
// alphabetically and struct fields are serialized in declaration order, so
// canonicalization is: normalize every value to maps/slices/scalars first
// (never leave a struct for json.Marshal to walk field-order-first), then
// marshal. No third-party canonical-JSON library in the retrieval pack
// offers anything encoding/json doesn't already provide for this shape, so
// this component is standard-library only — see DESIGN.md.
package digest

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// Canonicalize normalizes v (expected to be JSON-shaped: maps, slices,
// strings, numbers, bools, nil) into a byte-identical-on-repeat canonical
// JSON encoding.
func Canonicalize(v any) ([]byte, error) {
	normalized, err := normalize(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, fmt.Errorf("canonicalize: encode: %w", err)
	}
	// json.Encoder.Encode appends a trailing newline; strip it so the
	// canonical form has no insignificant whitespace at all.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// normalize converts a Go value (including structs, via a JSON
// marshal/unmarshal round trip) into maps/slices/scalars so that key
// ordering is entirely governed by encoding/json's map-key sort, never by
// struct field declaration order.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize: marshal: %w", err)
	}
	var out any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("normalize: decode: %w", err)
	}
	return out, nil
}

// SHA256Hex computes the SHA-256 digest of data as lowercase hex.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)
}

// CanonicalDigest canonicalizes v and returns its SHA-256 hex digest.
func CanonicalDigest(v any) (string, error) {
	b, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	return SHA256Hex(b), nil
}
