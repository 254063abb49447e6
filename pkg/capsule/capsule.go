// Package capsule implements the LLLV binary capsule format: a fixed
// 114-byte header (magic, version, flags, timestamp, content id, dimension,
// payload length, Ed25519 signature) followed by an opaque payload.
package capsule

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/logline-foundation/atomic-core/pkg/atomcrypto"
	"github.com/logline-foundation/atomic-core/pkg/atomtypes"
	"golang.org/x/crypto/chacha20poly1305"
)

// Magic, version, and fixed header length for the capsule wire format.
const (
	Magic     uint16 = 0x4C56 // "LV"
	Version   uint8  = 1
	HeaderLen int    = 114 // 2+1+1+8+32+2+4+64

	headerLenWithoutSig = HeaderLen - 64
)

// Flags is a bitset of capsule-level flags.
type Flags uint8

const (
	FlagNone       Flags = 0
	FlagEncrypted  Flags = 1 << 0 // payload = nonce(12) || ciphertext
	FlagReceiptReq Flags = 1 << 1
)

// Header is the fixed-layout capsule header.
type Header struct {
	Magic uint16
	Ver   uint8
	Flags Flags
	TsMs  uint64
	Cid   atomtypes.Cid32 // blake3(payload)
	Dim   uint16
	Len   uint32
	Sig   atomtypes.SignatureBytes // ed25519(header_without_sig || payload)
}

// Capsule pairs a Header with its payload bytes.
type Capsule struct {
	Header  Header
	Payload []byte
}

// ErrInvalidHeaderLen is returned when a buffer is shorter than HeaderLen.
var ErrInvalidHeaderLen = fmt.Errorf("capsule: invalid header length")

// ErrInvalidMagic is returned when the header's magic does not match Magic.
var ErrInvalidMagic = fmt.Errorf("capsule: invalid magic")

// ErrInvalidVersion is returned when the header's version is unsupported.
var ErrInvalidVersion = fmt.Errorf("capsule: invalid version")

// ErrMismatchedLengths is returned when the header's declared payload length
// disagrees with the actual payload bytes present.
var ErrMismatchedLengths = fmt.Errorf("capsule: mismatched lengths")

// ErrBadSignature is returned when CID or signature verification fails.
var ErrBadSignature = fmt.Errorf("capsule: signature verification failed")

// ErrPayloadTooLarge is returned when a payload exceeds the uint32 length field.
var ErrPayloadTooLarge = fmt.Errorf("capsule: payload exceeds maximum length")

// Create builds and signs a new capsule over payload, using clock for the
// timestamp (time.Now if nil).
func Create(dim uint16, payload []byte, flags Flags, signer *atomcrypto.Signer, clock func() time.Time) (Capsule, error) {
	if clock == nil {
		clock = time.Now
	}
	if uint64(len(payload)) > uint64(^uint32(0)) {
		return Capsule{}, ErrPayloadTooLarge
	}
	h := Header{
		Magic: Magic,
		Ver:   Version,
		Flags: flags,
		TsMs:  uint64(clock().UnixMilli()),
		Cid:   atomcrypto.CID(payload),
		Dim:   dim,
		Len:   uint32(len(payload)),
	}
	toSign := append(h.bytesWithoutSig(), payload...)
	sig := signer.Sign(toSign)
	h.Sig = sig
	return Capsule{Header: h, Payload: append([]byte(nil), payload...)}, nil
}

// ToBytes serializes the capsule as header || payload.
func (c Capsule) ToBytes() []byte {
	out := make([]byte, 0, HeaderLen+len(c.Payload))
	out = append(out, c.Header.bytes()...)
	out = append(out, c.Payload...)
	return out
}

// FromBytes parses a capsule from raw wire bytes, validating that the
// payload length matches the header's declared length.
func FromBytes(raw []byte) (Capsule, error) {
	h, err := headerFromBytes(raw)
	if err != nil {
		return Capsule{}, err
	}
	payload := raw[HeaderLen:]
	if uint32(len(payload)) != h.Len {
		return Capsule{}, ErrMismatchedLengths
	}
	return Capsule{Header: h, Payload: payload}, nil
}

// VerifyCID checks integrity only: that the header's CID matches
// blake3(payload). It does not check authenticity.
func (c Capsule) VerifyCID() error {
	if atomcrypto.CID(c.Payload) != c.Header.Cid {
		return ErrBadSignature
	}
	return nil
}

// VerifyWith checks integrity and authenticity against pub.
func (c Capsule) VerifyWith(pub atomtypes.PublicKeyBytes) error {
	if err := c.VerifyCID(); err != nil {
		return err
	}
	toVerify := append(c.Header.bytesWithoutSig(), c.Payload...)
	if !atomcrypto.Verify(pub, toVerify, c.Header.Sig) {
		return ErrBadSignature
	}
	return nil
}

// bytesWithoutSig serializes every header field except Sig, little-endian,
// in wire order.
func (h Header) bytesWithoutSig() []byte {
	out := make([]byte, headerLenWithoutSig)
	i := 0
	binary.LittleEndian.PutUint16(out[i:], h.Magic)
	i += 2
	out[i] = h.Ver
	i++
	out[i] = byte(h.Flags)
	i++
	binary.LittleEndian.PutUint64(out[i:], h.TsMs)
	i += 8
	copy(out[i:i+32], h.Cid[:])
	i += 32
	binary.LittleEndian.PutUint16(out[i:], h.Dim)
	i += 2
	binary.LittleEndian.PutUint32(out[i:], h.Len)
	i += 4
	if i != headerLenWithoutSig {
		panic("capsule: header layout drift")
	}
	return out
}

func (h Header) bytes() []byte {
	out := make([]byte, 0, HeaderLen)
	out = append(out, h.bytesWithoutSig()...)
	out = append(out, h.Sig[:]...)
	return out
}

func headerFromBytes(raw []byte) (Header, error) {
	if len(raw) < HeaderLen {
		return Header{}, ErrInvalidHeaderLen
	}
	var h Header
	i := 0
	h.Magic = binary.LittleEndian.Uint16(raw[i:])
	i += 2
	h.Ver = raw[i]
	i++
	h.Flags = Flags(raw[i])
	i++
	h.TsMs = binary.LittleEndian.Uint64(raw[i:])
	i += 8
	copy(h.Cid[:], raw[i:i+32])
	i += 32
	h.Dim = binary.LittleEndian.Uint16(raw[i:])
	i += 2
	h.Len = binary.LittleEndian.Uint32(raw[i:])
	i += 4
	copy(h.Sig[:], raw[i:i+64])

	if h.Magic != Magic {
		return Header{}, ErrInvalidMagic
	}
	if h.Ver != Version {
		return Header{}, ErrInvalidVersion
	}
	return h, nil
}

// EncryptPayload wraps plain as nonce(12) || ChaCha20-Poly1305(plain, aad),
// suitable for use as a capsule payload under FlagEncrypted.
func EncryptPayload(plain, key, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("capsule: init aead: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("capsule: generate nonce: %w", err)
	}
	ct := aead.Seal(nil, nonce, plain, aad)
	out := make([]byte, 0, len(nonce)+len(ct))
	out = append(out, nonce...)
	out = append(out, ct...)
	return out, nil
}

// DecryptPayload reverses EncryptPayload, expecting a nonce(12) prefix.
func DecryptPayload(sealed, key, aad []byte) ([]byte, error) {
	if len(sealed) < chacha20poly1305.NonceSize {
		return nil, fmt.Errorf("capsule: sealed payload too short")
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("capsule: init aead: %w", err)
	}
	nonce, ct := sealed[:chacha20poly1305.NonceSize], sealed[chacha20poly1305.NonceSize:]
	plain, err := aead.Open(nil, nonce, ct, aad)
	if err != nil {
		return nil, fmt.Errorf("capsule: decrypt: %w", err)
	}
	return plain, nil
}
