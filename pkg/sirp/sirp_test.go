package sirp

import (
	"errors"
	"testing"

	"github.com/logline-foundation/atomic-core/pkg/atomcrypto"
	"github.com/logline-foundation/atomic-core/pkg/canon"
	"github.com/logline-foundation/atomic-core/pkg/codec"
)

func mustCanonIntent(t *testing.T, v interface{}) CanonIntent {
	t.Helper()
	b, err := canon.Canonicalize(v)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	return NewCanonIntent(b)
}

func TestRoundtripUnsigned(t *testing.T) {
	intentA := mustCanonIntent(t, map[string]interface{}{"intent": "Grant", "to": "alice", "amount": 1})
	intentB := mustCanonIntent(t, map[string]interface{}{"amount": 1, "to": "alice", "intent": "Grant"})
	if intentA.Cid != intentB.Cid || string(intentA.Bytes) != string(intentB.Bytes) {
		t.Fatal("expected key-order-insensitive canonical intents to match")
	}

	frame := Unsigned(intentA)
	wire := Encode(frame)
	if wire[0] != 0x51 || wire[1] != 0x99 || wire[2] != Version || wire[3] != 0x00 {
		t.Fatalf("unexpected header bytes: %x", wire[:4])
	}

	decoded, err := Decode(wire)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Intent.Cid != intentA.Cid || string(decoded.Intent.Bytes) != string(intentA.Bytes) {
		t.Fatal("roundtrip mismatch")
	}
}

func TestRoundtripSigned(t *testing.T) {
	signer, err := atomcrypto.NewSigner()
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	intent := mustCanonIntent(t, map[string]interface{}{"seq": 1})
	frame := Unsigned(intent).Sign(signer)
	wire := Encode(frame)

	decoded, err := Decode(wire)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := decoded.Verify(); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if decoded.PublicKey == nil || *decoded.PublicKey != signer.PublicKey() {
		t.Fatal("expected recovered pubkey to match signer")
	}
}

func TestCidMismatchDetected(t *testing.T) {
	intent := mustCanonIntent(t, map[string]interface{}{"x": 1})
	frame := Unsigned(intent)
	wire := Encode(frame)

	// Flip a byte inside the intent bytes region (after the header+tag+len).
	wire[len(wire)-1] ^= 0xFF

	_, err := Decode(wire)
	if !errors.Is(err, ErrCidMismatch) {
		t.Fatalf("expected ErrCidMismatch, got %v", err)
	}
}

func TestSignatureTamperDetected(t *testing.T) {
	signer, _ := atomcrypto.NewSigner()
	intent := mustCanonIntent(t, map[string]interface{}{"x": 1})
	frame := Unsigned(intent).Sign(signer)
	wire := Encode(frame)
	wire[len(wire)-1] ^= 0xFF // last byte of the signature

	_, err := Decode(wire)
	var sigErr *SignatureError
	if !errors.As(err, &sigErr) {
		t.Fatalf("expected SignatureError, got %v", err)
	}
}

func TestBadHeaderRejected(t *testing.T) {
	intent := mustCanonIntent(t, map[string]interface{}{"x": 1})
	wire := Encode(Unsigned(intent))
	wire[0] ^= 0xFF // corrupt magic

	_, err := Decode(wire)
	if !errors.Is(err, ErrHeader) {
		t.Fatalf("expected ErrHeader, got %v", err)
	}
}

func TestSecondBytesBecomesExtra(t *testing.T) {
	intent := mustCanonIntent(t, map[string]interface{}{"x": 1})
	frame := Unsigned(intent)
	frame.Extra = []byte("trace-context")
	wire := Encode(frame)

	decoded, err := Decode(wire)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(decoded.Extra) != "trace-context" {
		t.Fatalf("expected extra to roundtrip, got %q", decoded.Extra)
	}
}

func TestUnknownTagSkipped(t *testing.T) {
	intent := mustCanonIntent(t, map[string]interface{}{"x": 1})
	frame := Unsigned(intent)
	wire := Encode(frame)

	// Inject an unknown tag (0xEE) with a small payload at the end of the frame.
	enc := codec.NewEncoder()
	enc.Bytes([]byte("ignored"))
	injected := append([]byte{}, wire...)
	withUnknown := append(injected, byte(0xEE))
	// build a length+value manually matching the BYTES encoding shape
	tail := enc.Finish()
	withUnknown = append(withUnknown, tail[1:]...) // skip the original 0x01 tag byte, reuse its len+value

	decoded, err := Decode(withUnknown)
	if err != nil {
		t.Fatalf("expected unknown trailing tag to be skipped, got error: %v", err)
	}
	if decoded.Intent.Cid != intent.Cid {
		t.Fatal("expected intent to still decode correctly")
	}
}

func TestMissingRequiredFields(t *testing.T) {
	// A frame with only a header and no TLVs at all.
	wire := []byte{0x51, 0x99, Version, 0x00}
	_, err := Decode(wire)
	if err == nil {
		t.Fatal("expected missing-field error")
	}
}
