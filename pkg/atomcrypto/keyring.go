package atomcrypto

import (
	"fmt"
	"sort"
	"sync"

	"github.com/logline-foundation/atomic-core/pkg/atomtypes"
)

// KeyRing holds a set of named signers, selecting the lexicographically
// last key id as "active" absent an explicit choice — the same
// deterministic stand-in for key rotation the source repo uses (no
// rotation policy is implemented here; see DESIGN.md).
type KeyRing struct {
	mu      sync.RWMutex
	signers map[string]*Signer
}

// NewKeyRing returns an empty keyring.
func NewKeyRing() *KeyRing {
	return &KeyRing{signers: make(map[string]*Signer)}
}

// Add registers a signer under keyID.
func (k *KeyRing) Add(keyID string, s *Signer) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.signers[keyID] = s
}

// Revoke removes a signer from the ring.
func (k *KeyRing) Revoke(keyID string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.signers, keyID)
}

// Get returns the signer registered under keyID.
func (k *KeyRing) Get(keyID string) (*Signer, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	s, ok := k.signers[keyID]
	return s, ok
}

// Active returns the lexicographically last key id and its signer.
func (k *KeyRing) Active() (string, *Signer, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if len(k.signers) == 0 {
		return "", nil, fmt.Errorf("atomcrypto: keyring is empty")
	}
	ids := make([]string, 0, len(k.signers))
	for id := range k.signers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	active := ids[len(ids)-1]
	return active, k.signers[active], nil
}

// VerifyWithKey verifies message/sig against the public key registered
// under keyID.
func (k *KeyRing) VerifyWithKey(keyID string, message []byte, sig atomtypes.SignatureBytes) (bool, error) {
	s, ok := k.Get(keyID)
	if !ok {
		return false, fmt.Errorf("atomcrypto: unknown key id %q", keyID)
	}
	return Verify(s.PublicKey(), message, sig), nil
}
