// Package atomcrypto provides the content-id hashing and Ed25519
// signing/verification primitives shared by the SIRP, UBL, and capsule
// packages: BLAKE3 content ids and domain-separated Ed25519 signatures.
package atomcrypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/logline-foundation/atomic-core/pkg/atomtypes"
	"lukechampine.com/blake3"
)

// DomainFrameSign is the domain separator for SIRP frame signatures.
const DomainFrameSign = "SIRP:FRAME:v1"

// DomainLedger is the domain separator for UBL ledger entry signatures.
const DomainLedger = "UBL:LEDGER:v1"

// CID returns the 32-byte BLAKE3 content id of data.
func CID(data []byte) atomtypes.Cid32 {
	return atomtypes.Cid32(blake3.Sum256(data))
}

// Signer produces Ed25519 signatures over domain-bound messages.
type Signer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// NewSigner generates a fresh Ed25519 keypair.
func NewSigner() (*Signer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("atomcrypto: key generation: %w", err)
	}
	return &Signer{priv: priv, pub: pub}, nil
}

// NewSignerFromSeed builds a Signer from a 32-byte Ed25519 seed.
func NewSignerFromSeed(seed []byte) (*Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("atomcrypto: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Signer{priv: priv, pub: priv.Public().(ed25519.PublicKey)}, nil
}

// PublicKey returns the signer's verifying key.
func (s *Signer) PublicKey() atomtypes.PublicKeyBytes {
	var pk atomtypes.PublicKeyBytes
	copy(pk[:], s.pub)
	return pk
}

// Seed returns the 32-byte Ed25519 seed this signer was constructed from,
// for persisting and later reloading via NewSignerFromSeed.
func (s *Signer) Seed() []byte {
	return s.priv.Seed()
}

// Sign signs message and returns a 64-byte Ed25519 signature.
func (s *Signer) Sign(message []byte) atomtypes.SignatureBytes {
	sig := ed25519.Sign(s.priv, message)
	var out atomtypes.SignatureBytes
	copy(out[:], sig)
	return out
}

// FrameSignMessage builds the domain-bound message signed for a SIRP frame:
// domain ∥ version ∥ flags ∥ cid.
func FrameSignMessage(version, flags byte, cid atomtypes.Cid32) []byte {
	msg := make([]byte, 0, len(DomainFrameSign)+2+atomtypes.CidSize)
	msg = append(msg, DomainFrameSign...)
	msg = append(msg, version, flags)
	msg = append(msg, cid[:]...)
	return msg
}

// LedgerSignMessage builds the domain-bound message signed for a UBL
// ledger entry: domain ∥ cid.
func LedgerSignMessage(cid atomtypes.Cid32) []byte {
	msg := make([]byte, 0, len(DomainLedger)+atomtypes.CidSize)
	msg = append(msg, DomainLedger...)
	msg = append(msg, cid[:]...)
	return msg
}

// Verify performs Ed25519 verification. The standard library's ed25519.Verify
// already rejects non-canonical (malleable) signatures per RFC 8032, so no
// additional strictness option is required.
func Verify(pub atomtypes.PublicKeyBytes, message []byte, sig atomtypes.SignatureBytes) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), message, sig[:])
}
