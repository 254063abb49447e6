package merkle

import (
	"fmt"

	"lukechampine.com/blake3"
)

// Domain separators, applied as hash prefixes to keep leaf and internal node
// hashes from colliding with each other or with unrelated hashes.
var (
	nodePrefix = []byte{0x01, 'n', 'o', 'd', 'e'}
	leafPrefix = []byte{0x00, 'l', 'e', 'a', 'f'}
	docPrefix  = []byte{0x00, 'd', 'o', 'c'}
)

// Hash is a 32-byte BLAKE3 digest.
type Hash [32]byte

func blake3Of(parts ...[]byte) Hash {
	h := blake3.New(32, nil)
	for _, p := range parts {
		h.Write(p)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// LeafHash hashes data under the leaf domain.
func LeafHash(data []byte) Hash {
	return blake3Of(leafPrefix, data)
}

// LeafHashDoc hashes an (id, payload cid) pair under the leaf+doc domain,
// for leaves that represent a named document rather than raw bytes.
func LeafHashDoc(id string, cid [32]byte) Hash {
	return blake3Of(leafPrefix, docPrefix, []byte(id), cid[:])
}

func buildNodeHash(left, right Hash) Hash {
	return blake3Of(nodePrefix, left[:], right[:])
}

// ErrNoLeaves is returned when building a tree or proof over zero leaves.
var ErrNoLeaves = fmt.Errorf("merkle: no leaves")

// ErrIndexOutOfRange is returned when proving an index beyond the leaf count.
var ErrIndexOutOfRange = fmt.Errorf("merkle: index out of range")

// Tree is a bottom-up Merkle tree over leaf hashes. Levels[0] is the leaf
// level; the last level holds exactly the root.
type Tree struct {
	Levels [][]Hash
}

// Root returns the tree's root hash.
func (t Tree) Root() Hash {
	last := t.Levels[len(t.Levels)-1]
	return last[0]
}

// BuildMerkleTree constructs a Tree over leaves, duplicating the last leaf
// at each level when that level has odd length.
func BuildMerkleTree(leaves []Hash) (Tree, error) {
	if len(leaves) == 0 {
		return Tree{}, ErrNoLeaves
	}
	levels := [][]Hash{append([]Hash(nil), leaves...)}
	for len(levels[len(levels)-1]) > 1 {
		cur := levels[len(levels)-1]
		next := make([]Hash, 0, (len(cur)+1)/2)
		for i := 0; i < len(cur); i += 2 {
			l := cur[i]
			r := l
			if i+1 < len(cur) {
				r = cur[i+1]
			}
			next = append(next, buildNodeHash(l, r))
		}
		levels = append(levels, next)
	}
	return Tree{Levels: levels}, nil
}

// Prove returns the root and inclusion proof for the leaf at idx.
func Prove(leaves []Hash, idx int) (Hash, []ProofStep, error) {
	t, err := BuildMerkleTree(leaves)
	if err != nil {
		return Hash{}, nil, err
	}
	if idx < 0 || idx >= len(t.Levels[0]) {
		return Hash{}, nil, ErrIndexOutOfRange
	}

	var proof []ProofStep
	for _, level := range t.Levels[:len(t.Levels)-1] {
		isLeft := idx%2 == 0
		var sibling Hash
		if isLeft {
			if idx+1 < len(level) {
				sibling = level[idx+1]
			} else {
				sibling = level[idx]
			}
		} else {
			sibling = level[idx-1]
		}
		proof = append(proof, ProofStep{Sibling: sibling, SiblingIsRight: isLeft})
		idx /= 2
	}
	return t.Root(), proof, nil
}
