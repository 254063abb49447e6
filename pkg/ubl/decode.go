package ubl

import (
	"encoding/json"
	"fmt"
)

// unmarshalCanonical decodes one NDJSON line into an Entry. Decoding a typed
// struct does not require json.Number handling the way generic canonicalizer
// round-tripping does; the canonical encoding produced by Entry.CanonicalLine
// is standard JSON, so the standard decoder suffices here.
func unmarshalCanonical(line []byte, e *Entry) error {
	if err := json.Unmarshal(line, e); err != nil {
		return fmt.Errorf("unmarshal entry: %w", err)
	}
	return nil
}
