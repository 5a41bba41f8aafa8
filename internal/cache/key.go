package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Key builds a deterministic cache key from a tool name and its parameter
// object. Parameters are canonicalized (map keys sorted recursively) before
// hashing so that logically identical calls hash to the same key regardless
// of property insertion order.
func Key(tool string, params any) (string, error) {
	canonical, err := canonicalize(params)
	if err != nil {
		return "", fmt.Errorf("canonicalizing params: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return tool + ":" + hex.EncodeToString(sum[:8]), nil
}

// canonicalize produces a deterministic JSON representation of v.
// Structs round-trip through encoding/json first so their map form is what
// gets sorted, making struct and map inputs with the same fields equivalent.
func canonicalize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	case string, bool, float64, int, int64, uint64, json.Number:
		return json.Marshal(val)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		var generic any
		if err := json.Unmarshal(b, &generic); err != nil {
			return nil, err
		}
		if _, isMap := generic.(map[string]any); !isMap {
			if _, isSlice := generic.([]any); !isSlice {
				return b, nil
			}
		}
		return canonicalize(generic)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := []byte("{")
	for i, k := range keys {
		if i > 0 {
			out = append(out, ',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		out = append(out, kb...)
		out = append(out, ':')
		vb, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		out = append(out, vb...)
	}
	return append(out, '}'), nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	out := []byte("[")
	for i, v := range s {
		if i > 0 {
			out = append(out, ',')
		}
		vb, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		out = append(out, vb...)
	}
	return append(out, ']'), nil
}
