// Package ubl implements the append-only NDJSON ledger: canonical signed
// entries written one per line, with rotation, fsync, single-writer
// locking, and a verifying reader.
package ubl

import (
	"fmt"
	"time"

	"github.com/logline-foundation/atomic-core/pkg/atomcrypto"
	"github.com/logline-foundation/atomic-core/pkg/atomtypes"
	"github.com/logline-foundation/atomic-core/pkg/canon"
)

// Entry is one ledger record. Byte fields (Intent/Extra) are carried as
// opaque canonical bytes.
type Entry struct {
	Ts        string                    `json:"ts"`
	Cid       atomtypes.Cid32           `json:"cid"`
	Intent    atomtypes.HexBytes        `json:"intent"`
	Actor     string                    `json:"actor,omitempty"`
	Extra     atomtypes.HexBytes        `json:"extra,omitempty"`
	PublicKey *atomtypes.PublicKeyBytes `json:"pubkey,omitempty"`
	Signature *atomtypes.SignatureBytes `json:"signature,omitempty"`
	PrevCid   *atomtypes.Cid32          `json:"prev_cid,omitempty"`
}

// ErrSigMissing is returned when exactly one of PublicKey/Signature is set.
var ErrSigMissing = fmt.Errorf("ubl: exactly one of pubkey/signature is present")

// NewEntry builds an unsigned entry from already-canonicalized intent bytes.
func NewEntry(intentBytes []byte, actor string, clock func() time.Time) Entry {
	if clock == nil {
		clock = time.Now
	}
	return Entry{
		Ts:     clock().UTC().Format(time.RFC3339Nano),
		Cid:    atomcrypto.CID(intentBytes),
		Intent: intentBytes,
		Actor:  actor,
	}
}

// Sign signs the entry's CID with signer under the ledger signing domain.
func (e Entry) Sign(signer *atomcrypto.Signer) Entry {
	msg := atomcrypto.LedgerSignMessage(e.Cid)
	sig := signer.Sign(msg)
	pk := signer.PublicKey()
	e.PublicKey = &pk
	e.Signature = &sig
	return e
}

// Verify checks CID consistency and, if signed, Ed25519 validity.
func (e Entry) Verify() error {
	if atomcrypto.CID(e.Intent) != e.Cid {
		return fmt.Errorf("ubl: %w", errCidMismatch)
	}
	hasPub := e.PublicKey != nil
	hasSig := e.Signature != nil
	if hasPub != hasSig {
		return ErrSigMissing
	}
	if hasPub && hasSig {
		msg := atomcrypto.LedgerSignMessage(e.Cid)
		if !atomcrypto.Verify(*e.PublicKey, msg, *e.Signature) {
			return fmt.Errorf("ubl: %w", errBadSignature)
		}
	}
	return nil
}

var (
	errCidMismatch  = fmt.Errorf("cid mismatch")
	errBadSignature = fmt.Errorf("signature verification failed")
)

// CanonicalLine returns the canonical-JSON-plus-newline bytes to append to
// an NDJSON ledger file.
func (e Entry) CanonicalLine() ([]byte, error) {
	b, err := canon.Canonicalize(e)
	if err != nil {
		return nil, fmt.Errorf("ubl: canonicalize entry: %w", err)
	}
	return append(b, '\n'), nil
}
