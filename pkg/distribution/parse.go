package distribution

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	pkgerrors "github.com/pkg/errors"

	"github.com/dropforge/merkle-distributor-go/pkg/merkle"
)

// BalanceEntry is one recipient's line in the input balance map.
type BalanceEntry struct {
	Account common.Address
	Amount  *big.Int
}

// ParseBalanceMap turns a balance map into a distribution artifact:
// accounts are validated and deduplicated, sorted ascending by address,
// assigned sequential leaf indices, and committed to a merkle tree.
//
// The output is deterministic: identical account/amount pairs produce an
// identical root and identical proofs regardless of input ordering.
func ParseBalanceMap(entries []BalanceEntry) (*Artifact, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("balance map is empty")
	}

	sorted := make([]BalanceEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Account.Cmp(sorted[j].Account) < 0
	})

	total := new(big.Int)
	leaves := make([][32]byte, len(sorted))
	for i, entry := range sorted {
		if entry.Account == (common.Address{}) {
			return nil, fmt.Errorf("zero address at entry %d: %w", i, ErrInvalidAccount)
		}
		if i > 0 && entry.Account == sorted[i-1].Account {
			return nil, fmt.Errorf("account %s: %w", entry.Account.Hex(), ErrDuplicateAccount)
		}
		if entry.Amount == nil || entry.Amount.Sign() <= 0 {
			return nil, fmt.Errorf("account %s has entitlement %v: %w", entry.Account.Hex(), entry.Amount, ErrZeroEntitlement)
		}

		leaf, err := merkle.HashLeaf(uint64(i), entry.Account, entry.Amount)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", entry.Account.Hex(), err)
		}
		leaves[i] = leaf
		total.Add(total, entry.Amount)
	}

	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		return nil, err
	}

	claims := make(map[common.Address]ClaimEntry, len(sorted))
	for i, entry := range sorted {
		rawProof, err := tree.Proof(i)
		if err != nil {
			return nil, err
		}
		proof := make([]common.Hash, len(rawProof))
		for j, h := range rawProof {
			proof[j] = common.Hash(h)
		}
		claims[entry.Account] = ClaimEntry{
			Index:  uint64(i),
			Amount: (*hexutil.Big)(new(big.Int).Set(entry.Amount)),
			Proof:  proof,
		}
	}

	return &Artifact{
		MerkleRoot: common.Hash(tree.Root),
		TokenTotal: (*hexutil.Big)(total),
		Claims:     claims,
	}, nil
}

// ReadBalanceMap decodes a JSON object of the form
// {"0xAccount": "0xAmount", ...} into balance entries. The JSON tokens are
// walked directly so duplicate keys (including case variants of the same
// address) surface as ErrDuplicateAccount instead of silently overwriting.
func ReadBalanceMap(r io.Reader) ([]BalanceEntry, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read balance map")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("balance map must be a JSON object, got %v", tok)
	}

	seen := make(map[common.Address]bool)
	entries := make([]BalanceEntry, 0)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, pkgerrors.Wrap(err, "failed to read balance map key")
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected balance map key: %v", keyTok)
		}
		if !common.IsHexAddress(key) {
			return nil, fmt.Errorf("malformed account %q: %w", key, ErrInvalidAccount)
		}
		account := common.HexToAddress(key)
		if seen[account] {
			return nil, fmt.Errorf("account %s: %w", account.Hex(), ErrDuplicateAccount)
		}
		seen[account] = true

		var amount hexutil.Big
		if err := dec.Decode(&amount); err != nil {
			return nil, fmt.Errorf("account %s: malformed amount: %w", account.Hex(), err)
		}

		entries = append(entries, BalanceEntry{Account: account, Amount: amount.ToInt()})
	}

	if _, err := dec.Token(); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read balance map")
	}

	return entries, nil
}

// LoadArtifact reads a distribution artifact from a JSON file.
func LoadArtifact(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open artifact %s", path)
	}
	defer func() { _ = f.Close() }()

	var artifact Artifact
	if err := json.NewDecoder(f).Decode(&artifact); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to decode artifact %s", path)
	}
	return &artifact, nil
}

// WriteArtifact writes a distribution artifact as indented JSON.
func WriteArtifact(path string, artifact *Artifact) error {
	f, err := os.Create(path)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create artifact %s", path)
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(artifact); err != nil {
		return pkgerrors.Wrapf(err, "failed to encode artifact %s", path)
	}
	return nil
}
