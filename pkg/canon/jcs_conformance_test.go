package canon

import (
	"encoding/json"
	"testing"

	"github.com/gowebpki/jcs"
)

// TestAgainstJCSConformanceOracle cross-checks this package's canonical
// encoding against an independent RFC 8785 implementation for inputs that
// are valid under both (integers only, no floats).
func TestAgainstJCSConformanceOracle(t *testing.T) {
	cases := []string{
		`{"b":2,"a":1}`,
		`{"nested":{"z":1,"a":2},"list":[3,1,2]}`,
		`{"unicode":"café","num":42}`,
		`[]`,
		`{}`,
	}
	for _, in := range cases {
		var v interface{}
		if err := json.Unmarshal([]byte(in), &v); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		ours, err := Canonicalize(v)
		if err != nil {
			t.Fatalf("canonicalize %s: %v", in, err)
		}
		theirs, err := jcs.Transform([]byte(in))
		if err != nil {
			t.Fatalf("jcs.Transform %s: %v", in, err)
		}
		if string(ours) != string(theirs) {
			t.Fatalf("mismatch for %s: ours=%s theirs=%s", in, ours, theirs)
		}
	}
}
