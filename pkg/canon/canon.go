// Package canon implements the deterministic canonical byte encoding that
// every content id, signature, and ledger entry in this repository is built
// on: sorted object keys, no whitespace, no HTML escaping, and no floating
// point numbers.
package canon

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrFloatNotAllowed is returned when a value contains a non-integral number.
var ErrFloatNotAllowed = errors.New("canon: fractional numbers are not allowed")

// Options controls optional behavior of the canonicalizer.
type Options struct {
	// NFC normalizes every string value to Unicode NFC before encoding.
	NFC bool
}

// Canonicalize returns the canonical byte encoding of v using default
// options (NFC disabled).
func Canonicalize(v interface{}) ([]byte, error) {
	return CanonicalizeWithOptions(v, Options{})
}

// CanonicalizeWithOptions returns the canonical byte encoding of v.
//
// v is first round-tripped through encoding/json (so struct tags are
// respected) with json.Number decoding enabled, then recursively
// re-encoded in canonical form.
func CanonicalizeWithOptions(v interface{}, opts Options) ([]byte, error) {
	intermediate, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canon: pre-marshal: %w", err)
	}

	var generic interface{}
	dec := json.NewDecoder(bytes.NewReader(intermediate))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canon: intermediate decode: %w", err)
	}

	var buf bytes.Buffer
	if err := encodeValue(&buf, generic, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Parse decodes canonical bytes back into a generic value
// (nil/bool/json.Number/string/[]interface{}/map[string]interface{}).
func Parse(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("canon: parse: %w", err)
	}
	return v, nil
}

func encodeValue(buf *bytes.Buffer, v interface{}, opts Options) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case json.Number:
		return encodeNumber(buf, t)
	case string:
		return encodeString(buf, t, opts)
	case []interface{}:
		buf.WriteByte('[')
		for i, elem := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, elem, opts); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case map[string]interface{}:
		return encodeObject(buf, t, opts)
	default:
		return fmt.Errorf("canon: unsupported type %T", v)
	}
}

func encodeNumber(buf *bytes.Buffer, n json.Number) error {
	s := n.String()
	if strings.ContainsAny(s, ".eE") {
		return fmt.Errorf("%w: %s", ErrFloatNotAllowed, s)
	}
	buf.WriteString(normalizeZero(s))
	return nil
}

// normalizeZero collapses signed-zero integer literals ("-0", "+0", "-00",
// ...) to the single canonical form "0", so that two semantically-equal
// documents never diverge on a signed zero.
func normalizeZero(s string) string {
	if len(s) < 2 {
		return s
	}
	sign := s[0]
	if sign != '-' && sign != '+' {
		return s
	}
	for _, c := range s[1:] {
		if c != '0' {
			return s
		}
	}
	return "0"
}

func encodeString(buf *bytes.Buffer, s string, opts Options) error {
	if opts.NFC {
		s = norm.NFC.String(s)
	}
	var sb bytes.Buffer
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("canon: string encode: %w", err)
	}
	buf.Write(bytes.TrimSuffix(sb.Bytes(), []byte{'\n'}))
	return nil
}

func encodeObject(buf *bytes.Buffer, m map[string]interface{}, opts Options) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeString(buf, k, opts); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := encodeValue(buf, m[k], opts); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}
