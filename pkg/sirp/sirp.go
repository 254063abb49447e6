// Package sirp implements the signed-intent wire protocol: a small header
// followed by a TLV stream carrying a canonical intent, its content id, and
// an optional Ed25519 signature bound to a domain-separated message.
// Decoding a frame always verifies it before returning it to the caller.
package sirp

import (
	"errors"
	"fmt"

	"github.com/logline-foundation/atomic-core/pkg/atomcrypto"
	"github.com/logline-foundation/atomic-core/pkg/atomtypes"
	"github.com/logline-foundation/atomic-core/pkg/codec"
)

// Magic is the two-byte protocol identifier, sent big-endian on the wire.
const Magic uint16 = 0x5199

// Version is the only supported protocol version.
const Version byte = 1

// FlagSigned marks a frame as carrying a pubkey + signature.
const FlagSigned byte = 0b0000_0001

// Sentinel error kinds.
var (
	ErrHeader      = errors.New("sirp: bad magic, version, or truncated header")
	ErrCidMismatch = errors.New("sirp: recomputed cid does not match intent.cid")
)

// MissingFieldError reports a required field absent from a decoded frame.
type MissingFieldError struct{ Field string }

func (e *MissingFieldError) Error() string { return fmt.Sprintf("sirp: missing field %q", e.Field) }

// SignatureError reports an Ed25519 verification failure.
type SignatureError struct{ Reason string }

func (e *SignatureError) Error() string { return fmt.Sprintf("sirp: signature invalid: %s", e.Reason) }

// CanonIntent is a canonical payload paired with its content id.
type CanonIntent struct {
	Cid   atomtypes.Cid32
	Bytes []byte
}

// NewCanonIntent derives a CanonIntent from already-canonicalized bytes.
func NewCanonIntent(canonicalBytes []byte) CanonIntent {
	return CanonIntent{Cid: atomcrypto.CID(canonicalBytes), Bytes: canonicalBytes}
}

// Frame is a decoded or to-be-encoded SIRP message.
type Frame struct {
	Version   byte
	Flags     byte
	Intent    CanonIntent
	Extra     []byte
	PublicKey *atomtypes.PublicKeyBytes
	Signature *atomtypes.SignatureBytes
}

// Unsigned builds an unsigned frame around intent.
func Unsigned(intent CanonIntent) *Frame {
	return &Frame{Version: Version, Flags: 0, Intent: intent}
}

// Sign returns a signed copy of the frame using signer, setting FlagSigned.
func (f *Frame) Sign(signer *atomcrypto.Signer) *Frame {
	signed := *f
	signed.Version = Version
	signed.Flags |= FlagSigned
	msg := atomcrypto.FrameSignMessage(signed.Version, signed.Flags, signed.Intent.Cid)
	sig := signer.Sign(msg)
	pk := signer.PublicKey()
	signed.PublicKey = &pk
	signed.Signature = &sig
	return &signed
}

// Verify recomputes the CID from intent bytes and, if FlagSigned is set,
// verifies the Ed25519 signature over the domain-bound message.
func (f *Frame) Verify() error {
	if atomcrypto.CID(f.Intent.Bytes) != f.Intent.Cid {
		return ErrCidMismatch
	}
	if f.Flags&FlagSigned != 0 {
		if f.PublicKey == nil {
			return &MissingFieldError{Field: "pubkey"}
		}
		if f.Signature == nil {
			return &MissingFieldError{Field: "signature"}
		}
		msg := atomcrypto.FrameSignMessage(f.Version, f.Flags, f.Intent.Cid)
		if !atomcrypto.Verify(*f.PublicKey, msg, *f.Signature) {
			return &SignatureError{Reason: "ed25519 verification failed"}
		}
	}
	return nil
}

// Encode serializes the frame to its wire form. It does not verify; use
// Verify explicitly before encoding a frame you did not just construct via
// Unsigned/Sign.
func Encode(f *Frame) []byte {
	out := make([]byte, 0, 4+64+len(f.Intent.Bytes)+len(f.Extra))
	out = append(out, byte(Magic>>8), byte(Magic&0xff))
	out = append(out, f.Version, f.Flags)

	enc := codec.NewEncoder()
	enc.Cid32(f.Intent.Cid)
	enc.Bytes(f.Intent.Bytes)
	if len(f.Extra) > 0 {
		enc.Bytes(f.Extra)
	}
	if f.Flags&FlagSigned != 0 {
		if f.PublicKey != nil {
			enc.PublicKey(*f.PublicKey)
		}
		if f.Signature != nil {
			enc.Signature(*f.Signature)
		}
	}
	return append(out, enc.Finish()...)
}

// Decode parses a wire frame and verifies it before returning, fusing
// decode and verify into a single operation.
func Decode(input []byte) (*Frame, error) {
	if len(input) < 4 {
		return nil, ErrHeader
	}
	magic := uint16(input[0])<<8 | uint16(input[1])
	version := input[2]
	flags := input[3]
	if magic != Magic || version != Version {
		return nil, ErrHeader
	}

	dec := codec.NewDecoder(input[4:])
	var cid *atomtypes.Cid32
	var intentBytes []byte
	var extra []byte
	var pubkey *atomtypes.PublicKeyBytes
	var sig *atomtypes.SignatureBytes

	for !dec.IsDone() {
		tag, err := dec.ReadTag()
		if err != nil {
			return nil, fmt.Errorf("sirp: %w", err)
		}
		switch tag {
		case codec.TagCid32:
			v, err := dec.Cid32()
			if err != nil {
				return nil, fmt.Errorf("sirp: cid32: %w", err)
			}
			c := atomtypes.Cid32(v)
			cid = &c
		case codec.TagBytes:
			v, err := dec.Bytes()
			if err != nil {
				return nil, fmt.Errorf("sirp: bytes: %w", err)
			}
			if intentBytes == nil {
				intentBytes = v
			} else {
				extra = v
			}
		case codec.TagPubkey:
			v, err := dec.PublicKey()
			if err != nil {
				return nil, fmt.Errorf("sirp: pubkey: %w", err)
			}
			p := atomtypes.PublicKeyBytes(v)
			pubkey = &p
		case codec.TagSig64:
			v, err := dec.Signature()
			if err != nil {
				return nil, fmt.Errorf("sirp: signature: %w", err)
			}
			s := atomtypes.SignatureBytes(v)
			sig = &s
		default:
			// Unknown tags are skipped for forward compatibility: every
			// TLV record is length-delimited regardless of tag, so the
			// value can be skipped without understanding it.
			if err := dec.SkipValue(); err != nil {
				return nil, fmt.Errorf("sirp: skip unknown tag 0x%02x: %w", tag, err)
			}
		}
	}

	if cid == nil {
		return nil, &MissingFieldError{Field: "intent.cid"}
	}
	if intentBytes == nil {
		return nil, &MissingFieldError{Field: "intent.bytes"}
	}

	f := &Frame{
		Version:   version,
		Flags:     flags,
		Intent:    CanonIntent{Cid: *cid, Bytes: intentBytes},
		Extra:     extra,
		PublicKey: pubkey,
		Signature: sig,
	}
	if err := f.Verify(); err != nil {
		return nil, err
	}
	return f, nil
}
