package canon

import (
	"encoding/json"
	"testing"
)

func TestCanonicalizeSortsKeys(t *testing.T) {
	a, err := Canonicalize(map[string]interface{}{"b": 2, "a": 1})
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if string(a) != `{"a":1,"b":2}` {
		t.Fatalf("got %s", a)
	}
}

func TestCanonicalizeKeyOrderInsensitive(t *testing.T) {
	inputs := []string{
		`{"a":1,"b":2}`,
		`{"b":2,"a":1}`,
		`{ "a" : 1 , "b" : 2 }`,
	}
	var want []byte
	for i, in := range inputs {
		var v interface{}
		if err := json.Unmarshal([]byte(in), &v); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		got, err := Canonicalize(v)
		if err != nil {
			t.Fatalf("canonicalize: %v", err)
		}
		if i == 0 {
			want = got
			continue
		}
		if string(got) != string(want) {
			t.Fatalf("input %d: got %s want %s", i, got, want)
		}
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	v := map[string]interface{}{"z": []interface{}{1, 2, 3}, "a": "hello"}
	first, err := Canonicalize(v)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	parsed, err := Parse(first)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	second, err := Canonicalize(parsed)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("not idempotent: %s != %s", first, second)
	}
}

func TestCanonicalizeRejectsFloats(t *testing.T) {
	var v interface{}
	if err := json.Unmarshal([]byte(`{"x":1.5}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, err := Canonicalize(v); err == nil {
		t.Fatal("expected FloatNotAllowed")
	}
}

func TestCanonicalizeNormalizesSignedZero(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"x":-0}`, `{"x":0}`},
		{`{"x":0}`, `{"x":0}`},
		{`[-0,0,-0]`, `[0,0,0]`},
	}
	for _, tc := range cases {
		parsed, err := Parse([]byte(tc.in))
		if err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		got, err := Canonicalize(parsed)
		if err != nil {
			t.Fatalf("canonicalize %q: %v", tc.in, err)
		}
		if string(got) != tc.want {
			t.Fatalf("Canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalizeEmptyContainers(t *testing.T) {
	var v interface{}
	if err := json.Unmarshal([]byte(`{}`), &v); err != nil {
		t.Fatal(err)
	}
	got, err := Canonicalize(v)
	if err != nil || string(got) != "{}" {
		t.Fatalf("got %s, err %v", got, err)
	}

	if err := json.Unmarshal([]byte(`[]`), &v); err != nil {
		t.Fatal(err)
	}
	got, err = Canonicalize(v)
	if err != nil || string(got) != "[]" {
		t.Fatalf("got %s, err %v", got, err)
	}
}

func TestCanonicalizeNFC(t *testing.T) {
	// "é" as e + combining acute accent (NFD) should canonicalize the same
	// as precomposed é (NFC) when NFC is enabled.
	nfd := "é"
	nfc := "é"
	a, err := CanonicalizeWithOptions(nfd, Options{NFC: true})
	if err != nil {
		t.Fatalf("nfd: %v", err)
	}
	b, err := CanonicalizeWithOptions(nfc, Options{NFC: true})
	if err != nil {
		t.Fatalf("nfc: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("NFC normalization mismatch: %s != %s", a, b)
	}
}

func TestCanonicalizeNoWhitespaceOrHTMLEscaping(t *testing.T) {
	got, err := Canonicalize(map[string]interface{}{"a": "<b>&amp;"})
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if string(got) != `{"a":"<b>&amp;"}` {
		t.Fatalf("got %s", got)
	}
}
