package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// canonicalJSON re-encodes v with sorted object keys and fixed-point float
// formatting (8 fractional digits, no exponent notation), so two producers
// indexing identical inputs emit byte-identical artifacts (§8 determinism,
// Open Question 3 resolved in SPEC_FULL.md §9).
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := encodeCanonical(&buf, generic); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func encodeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := encodeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case json.Number:
		return encodeNumber(buf, val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	return nil
}

// encodeNumber writes a JSON number. Floats (those containing '.' or an
// exponent in their original textual form) are reformatted fixed-point with
// 8 fractional digits; integers pass through unchanged.
func encodeNumber(buf *bytes.Buffer, n json.Number) error {
	s := string(n)
	isFloat := false
	for _, r := range s {
		if r == '.' || r == 'e' || r == 'E' {
			isFloat = true
			break
		}
	}
	if !isFloat {
		buf.WriteString(s)
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return err
	}
	buf.WriteString(fmt.Sprintf("%.8f", f))
	return nil
}
