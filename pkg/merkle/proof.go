package merkle

import (
	"encoding/hex"
	"fmt"
)

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// ProofStep is one step of an inclusion proof: the sibling hash and whether
// that sibling sits to the right of the node being folded.
//   - SiblingIsRight == true  => parent = H(node || cur || sibling)
//   - SiblingIsRight == false => parent = H(node || sibling || cur)
type ProofStep struct {
	Sibling        Hash
	SiblingIsRight bool
}

// VerifyPath folds leaf through path and checks the result against
// expectedRoot.
func VerifyPath(leaf Hash, path []ProofStep, expectedRoot Hash) error {
	cur := leaf
	for _, step := range path {
		if step.SiblingIsRight {
			cur = buildNodeHash(cur, step.Sibling)
		} else {
			cur = buildNodeHash(step.Sibling, cur)
		}
	}
	if cur != expectedRoot {
		return ErrInvalidProof
	}
	return nil
}

// ErrInvalidProof is returned when a proof path does not resolve to the
// expected root.
var ErrInvalidProof = fmt.Errorf("merkle: invalid proof path")

// InclusionProof is the JSON-serializable form of a proof, bundling the
// leaf and root hashes alongside the proof path for transport or storage.
type InclusionProof struct {
	LeafHash  string          `json:"leaf_hash"`
	Root      string          `json:"root"`
	ProofPath []ProofStepJSON `json:"proof_path"`
}

// ProofStepJSON is the JSON form of ProofStep.
type ProofStepJSON struct {
	Sibling        string `json:"sibling"`
	SiblingIsRight bool   `json:"sibling_is_right"`
}

// BuildInclusionProof builds a tree over leaves and returns a transportable
// inclusion proof for the leaf at idx.
func BuildInclusionProof(leaves []Hash, idx int) (InclusionProof, error) {
	root, path, err := Prove(leaves, idx)
	if err != nil {
		return InclusionProof{}, err
	}
	jsonPath := make([]ProofStepJSON, len(path))
	for i, step := range path {
		jsonPath[i] = ProofStepJSON{Sibling: step.Sibling.String(), SiblingIsRight: step.SiblingIsRight}
	}
	return InclusionProof{
		LeafHash:  leaves[idx].String(),
		Root:      root.String(),
		ProofPath: jsonPath,
	}, nil
}

// VerifyInclusionProof checks a JSON inclusion proof against expectedRoot
// (hex-encoded). An empty expectedRoot skips that cross-check and relies
// solely on the proof's own embedded root.
func VerifyInclusionProof(proof InclusionProof, expectedRoot string) error {
	if expectedRoot != "" && proof.Root != expectedRoot {
		return ErrInvalidProof
	}
	leaf, err := hashFromHex(proof.LeafHash)
	if err != nil {
		return err
	}
	root, err := hashFromHex(proof.Root)
	if err != nil {
		return err
	}
	path := make([]ProofStep, len(proof.ProofPath))
	for i, step := range proof.ProofPath {
		sib, err := hashFromHex(step.Sibling)
		if err != nil {
			return err
		}
		path[i] = ProofStep{Sibling: sib, SiblingIsRight: step.SiblingIsRight}
	}
	return VerifyPath(leaf, path, root)
}

func hashFromHex(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return Hash{}, ErrInvalidProof
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}
