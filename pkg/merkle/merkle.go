package merkle

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// BuildTree creates a binary merkle tree over the given leaf hashes.
// Leaves must already be in their canonical order; callers that commit to
// a balance map sort accounts ascending before hashing (see pkg/distribution).
//
// The tree uses keccak256 with sorted-pair hashing. If a level has an odd
// number of nodes, the unpaired final node is promoted unchanged to the
// next level. No padding value is ever injected, so the root is a pure
// function of the leaf set.
func BuildTree(leaves [][32]byte) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, fmt.Errorf("cannot build merkle tree from empty leaf list")
	}

	levels := make([][][32]byte, 0)
	levels = append(levels, leaves)

	currentLevel := leaves
	for len(currentLevel) > 1 {
		nextLevel := make([][32]byte, 0, (len(currentLevel)+1)/2)

		for i := 0; i < len(currentLevel); i += 2 {
			if i+1 < len(currentLevel) {
				nextLevel = append(nextLevel, hashPair(currentLevel[i], currentLevel[i+1]))
			} else {
				// Odd node out: promote unchanged
				nextLevel = append(nextLevel, currentLevel[i])
			}
		}

		levels = append(levels, nextLevel)
		currentLevel = nextLevel
	}

	if len(currentLevel) != 1 {
		return nil, fmt.Errorf("merkle tree construction failed: final level has %d nodes instead of 1", len(currentLevel))
	}

	return &Tree{
		Leaves: leaves,
		Root:   currentLevel[0],
		levels: levels,
	}, nil
}

// Proof returns the sibling hashes along the path from the leaf at
// leafIndex to the root. Proof elements carry no left/right flags; the
// sorted-pair rule makes them unnecessary. A promoted node contributes no
// element at that level, so proofs may be shorter than the tree depth.
func (t *Tree) Proof(leafIndex int) ([][32]byte, error) {
	if leafIndex < 0 || leafIndex >= len(t.Leaves) {
		return nil, fmt.Errorf("leaf index %d out of bounds (tree has %d leaves)", leafIndex, len(t.Leaves))
	}

	proof := make([][32]byte, 0, t.Depth())
	index := leafIndex

	for level := 0; level < len(t.levels)-1; level++ {
		currentLevel := t.levels[level]

		siblingIndex := index ^ 1
		if siblingIndex < len(currentLevel) {
			proof = append(proof, currentLevel[siblingIndex])
		}
		// else: this node was promoted, nothing to prove at this level

		index = index / 2
	}

	return proof, nil
}

// VerifyProof recomputes the root by folding the proof into the leaf hash
// with sorted-pair hashing and compares it to the expected root.
// An empty proof verifies only when the leaf itself is the root (N=1).
func VerifyProof(root [32]byte, leaf [32]byte, proof [][32]byte) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed == root
}

// VerifyClaim hashes a claim record and verifies its proof against root.
// Malformed records (nil or out-of-range amounts) never verify.
func VerifyClaim(root [32]byte, index uint64, account common.Address, amount *big.Int, proof [][32]byte) bool {
	leaf, err := HashLeaf(index, account, amount)
	if err != nil {
		return false
	}
	return VerifyProof(root, leaf, proof)
}
