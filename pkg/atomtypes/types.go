// Package atomtypes defines the fixed-size binary primitives shared by the
// canonicalizer, codec, SIRP, ledger, and capsule packages: content ids,
// public keys, and signatures.
package atomtypes

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// CidSize is the length in bytes of a content id.
const CidSize = 32

// PublicKeySize is the length in bytes of an Ed25519 public key.
const PublicKeySize = 32

// SignatureSize is the length in bytes of an Ed25519 signature.
const SignatureSize = 64

// Cid32 is a 32-byte BLAKE3 content id.
type Cid32 [CidSize]byte

// PublicKeyBytes is a 32-byte Ed25519 verifying key.
type PublicKeyBytes [PublicKeySize]byte

// SignatureBytes is a 64-byte Ed25519 signature.
type SignatureBytes [SignatureSize]byte

// String renders the CID as lowercase hex.
func (c Cid32) String() string { return hex.EncodeToString(c[:]) }

// IsZero reports whether the CID is all-zero (never a valid hash output).
func (c Cid32) IsZero() bool { return c == Cid32{} }

// CidFromHex parses a 64-character hex string into a Cid32.
func CidFromHex(s string) (Cid32, error) {
	var c Cid32
	b, err := hex.DecodeString(s)
	if err != nil {
		return c, fmt.Errorf("atomtypes: cid hex decode: %w", err)
	}
	if len(b) != CidSize {
		return c, fmt.Errorf("atomtypes: cid must be %d bytes, got %d", CidSize, len(b))
	}
	copy(c[:], b)
	return c, nil
}

// MarshalJSON renders the CID as a lowercase hex JSON string.
func (c Cid32) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }

// UnmarshalJSON parses a lowercase hex JSON string into the CID.
func (c *Cid32) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := CidFromHex(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// String renders the public key as lowercase hex.
func (p PublicKeyBytes) String() string { return hex.EncodeToString(p[:]) }

// PublicKeyFromHex parses a 64-character hex string into a PublicKeyBytes.
func PublicKeyFromHex(s string) (PublicKeyBytes, error) {
	var p PublicKeyBytes
	b, err := hex.DecodeString(s)
	if err != nil {
		return p, fmt.Errorf("atomtypes: pubkey hex decode: %w", err)
	}
	if len(b) != PublicKeySize {
		return p, fmt.Errorf("atomtypes: pubkey must be %d bytes, got %d", PublicKeySize, len(b))
	}
	copy(p[:], b)
	return p, nil
}

// MarshalJSON renders the public key as a lowercase hex JSON string.
func (p PublicKeyBytes) MarshalJSON() ([]byte, error) { return json.Marshal(p.String()) }

// UnmarshalJSON parses a lowercase hex JSON string into the public key.
func (p *PublicKeyBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := PublicKeyFromHex(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// HexBytes is an opaque byte sequence serialized as lowercase hex rather
// than the standard library's base64 default for []byte, matching the
// hex convention used for every other fixed-size field in this package.
type HexBytes []byte

// MarshalJSON renders the bytes as a lowercase hex JSON string.
func (b HexBytes) MarshalJSON() ([]byte, error) { return json.Marshal(hex.EncodeToString(b)) }

// UnmarshalJSON parses a lowercase hex JSON string into the byte sequence.
func (b *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*b = nil
		return nil
	}
	v, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("atomtypes: hex bytes decode: %w", err)
	}
	*b = v
	return nil
}

// String renders the signature as lowercase hex.
func (s SignatureBytes) String() string { return hex.EncodeToString(s[:]) }

// SignatureFromHex parses a 128-character hex string into a SignatureBytes.
func SignatureFromHex(s string) (SignatureBytes, error) {
	var sig SignatureBytes
	b, err := hex.DecodeString(s)
	if err != nil {
		return sig, fmt.Errorf("atomtypes: signature hex decode: %w", err)
	}
	if len(b) != SignatureSize {
		return sig, fmt.Errorf("atomtypes: signature must be %d bytes, got %d", SignatureSize, len(b))
	}
	copy(sig[:], b)
	return sig, nil
}

// MarshalJSON renders the signature as a lowercase hex JSON string.
func (s SignatureBytes) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// UnmarshalJSON parses a lowercase hex JSON string into the signature.
func (s *SignatureBytes) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	v, err := SignatureFromHex(str)
	if err != nil {
		return err
	}
	*s = v
	return nil
}
