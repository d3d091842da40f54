package merkle

// Tree is a binary merkle tree over 32-byte leaf hashes.
// Nodes are pure digests: a parent commits to the unordered pair of its
// children (see hashPair), so no left/right bookkeeping is stored.
type Tree struct {
	// Leaves contains the level-0 hashes in build order
	Leaves [][32]byte

	// Root is the merkle root hash
	Root [32]byte

	// levels stores all tree levels for proof generation
	// levels[0] = leaves, levels[len-1] = root
	levels [][][32]byte
}

// Depth returns the number of levels above the leaf level.
func (t *Tree) Depth() int {
	return len(t.levels) - 1
}
