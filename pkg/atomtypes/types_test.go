package atomtypes

import (
	"encoding/json"
	"testing"
)

func TestCid32Roundtrip(t *testing.T) {
	var c Cid32
	for i := range c {
		c[i] = 0xAB
	}
	if len(c.String()) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(c.String()))
	}
	got, err := CidFromHex(c.String())
	if err != nil {
		t.Fatalf("CidFromHex: %v", err)
	}
	if got != c {
		t.Fatalf("roundtrip mismatch: got %v want %v", got, c)
	}
}

func TestCid32JSONRoundtrip(t *testing.T) {
	var c Cid32
	for i := range c {
		c[i] = byte(i)
	}
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Cid32
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != c {
		t.Fatalf("roundtrip mismatch")
	}
}

func TestCidFromHexWrongLength(t *testing.T) {
	if _, err := CidFromHex("ab"); err == nil {
		t.Fatal("expected error for short hex")
	}
}

func TestCidFromHexBadHex(t *testing.T) {
	if _, err := CidFromHex("zz"); err == nil {
		t.Fatal("expected error for invalid hex")
	}
}

func TestPublicKeyAndSignatureRoundtrip(t *testing.T) {
	var p PublicKeyBytes
	for i := range p {
		p[i] = 0x11
	}
	pk, err := PublicKeyFromHex(p.String())
	if err != nil || pk != p {
		t.Fatalf("pubkey roundtrip failed: %v", err)
	}

	var s SignatureBytes
	for i := range s {
		s[i] = 0x22
	}
	sig, err := SignatureFromHex(s.String())
	if err != nil || sig != s {
		t.Fatalf("signature roundtrip failed: %v", err)
	}
}
