package merkle

import (
	"fmt"
	"testing"
)

// BenchmarkTreeBuild benchmarks merkle tree construction with various sizes
func BenchmarkTreeBuild(b *testing.B) {
	sizes := []int{10, 100, 1000, 10000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("Leaves_%d", size), func(b *testing.B) {
			leaves := randomLeaves(size)
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				_, _ = BuildTree(leaves)
			}
		})
	}
}

// BenchmarkProofGeneration benchmarks proof generation
func BenchmarkProofGeneration(b *testing.B) {
	sizes := []int{10, 100, 1000, 10000}

	for _, size := range sizes {
		leaves := randomLeaves(size)
		tree, _ := BuildTree(leaves)

		b.Run(fmt.Sprintf("Leaves_%d", size), func(b *testing.B) {
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				_, _ = tree.Proof(i % size)
			}
		})
	}
}

// BenchmarkProofVerification benchmarks proof verification
func BenchmarkProofVerification(b *testing.B) {
	sizes := []int{10, 100, 1000, 10000}

	for _, size := range sizes {
		leaves := randomLeaves(size)
		tree, _ := BuildTree(leaves)
		proof, _ := tree.Proof(0)

		b.Run(fmt.Sprintf("Leaves_%d", size), func(b *testing.B) {
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				_ = VerifyProof(tree.Root, leaves[0], proof)
			}
		})
	}
}
