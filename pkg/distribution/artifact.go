package distribution

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/dropforge/merkle-distributor-go/pkg/merkle"
)

// ClaimEntry is one account's slice of the distribution: its assigned leaf
// index, full entitlement, and merkle proof against the artifact root.
type ClaimEntry struct {
	Index  uint64        `json:"index"`
	Amount *hexutil.Big  `json:"amount"`
	Proof  []common.Hash `json:"proof"`
}

// Artifact is the published distribution set. Anyone holding the artifact
// can recompute the root from Claims alone and audit the full distribution.
type Artifact struct {
	MerkleRoot common.Hash                   `json:"merkleRoot"`
	TokenTotal *hexutil.Big                  `json:"tokenTotal"`
	Claims     map[common.Address]ClaimEntry `json:"claims"`
}

// Verify recomputes the merkle root from the claims map and checks it
// against MerkleRoot, then checks every account's proof individually.
// TokenTotal is checked against the sum of entitlements.
func (a *Artifact) Verify() error {
	if len(a.Claims) == 0 {
		return fmt.Errorf("artifact has no claims")
	}

	// Rebuild leaves in index order
	leaves := make([][32]byte, len(a.Claims))
	seen := make([]bool, len(a.Claims))
	total := new(big.Int)

	for account, entry := range a.Claims {
		if entry.Index >= uint64(len(a.Claims)) {
			return fmt.Errorf("account %s: index %d out of range for %d claims", account.Hex(), entry.Index, len(a.Claims))
		}
		if seen[entry.Index] {
			return fmt.Errorf("duplicate leaf index %d", entry.Index)
		}
		seen[entry.Index] = true

		leaf, err := merkle.HashLeaf(entry.Index, account, entry.Amount.ToInt())
		if err != nil {
			return fmt.Errorf("account %s: %w", account.Hex(), err)
		}
		leaves[entry.Index] = leaf
		total.Add(total, entry.Amount.ToInt())
	}

	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		return err
	}
	if tree.Root != [32]byte(a.MerkleRoot) {
		return fmt.Errorf("recomputed root %s does not match artifact root %s",
			common.Hash(tree.Root).Hex(), a.MerkleRoot.Hex())
	}

	if a.TokenTotal == nil || total.Cmp(a.TokenTotal.ToInt()) != 0 {
		return fmt.Errorf("token total mismatch: claims sum to %s, artifact says %v", total, a.TokenTotal)
	}

	for account, entry := range a.Claims {
		proof := make([][32]byte, len(entry.Proof))
		for i, h := range entry.Proof {
			proof[i] = [32]byte(h)
		}
		if !merkle.VerifyClaim([32]byte(a.MerkleRoot), entry.Index, account, entry.Amount.ToInt(), proof) {
			return fmt.Errorf("account %s: proof does not verify against root", account.Hex())
		}
	}

	return nil
}

// SortedAccounts returns the artifact's accounts in ascending address order,
// which is also ascending leaf-index order.
func (a *Artifact) SortedAccounts() []common.Address {
	accounts := make([]common.Address, 0, len(a.Claims))
	for account := range a.Claims {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Cmp(accounts[j]) < 0
	})
	return accounts
}
