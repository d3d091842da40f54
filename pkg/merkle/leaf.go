package merkle

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EncodedLeafSize is the byte length of an encoded claim leaf:
// uint256 index || 20-byte address || uint256 amount.
const EncodedLeafSize = 32 + common.AddressLength + 32

// maxUint256 bounds entitlement amounts to what a uint256 can hold.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// EncodeLeaf produces the canonical byte encoding of a claim record.
// Fields are fixed-width big-endian with no separators, matching
// abi.encodePacked(uint256(index), account, uint256(amount)).
func EncodeLeaf(index uint64, account common.Address, amount *big.Int) ([]byte, error) {
	if amount == nil {
		return nil, fmt.Errorf("leaf amount cannot be nil")
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("leaf amount cannot be negative: %s", amount)
	}
	if amount.Cmp(maxUint256) > 0 {
		return nil, fmt.Errorf("leaf amount exceeds uint256: %s", amount)
	}

	data := make([]byte, EncodedLeafSize)
	new(big.Int).SetUint64(index).FillBytes(data[0:32])
	copy(data[32:32+common.AddressLength], account.Bytes())
	amount.FillBytes(data[32+common.AddressLength:])
	return data, nil
}

// HashLeaf computes the keccak256 leaf commitment for a claim record.
func HashLeaf(index uint64, account common.Address, amount *big.Int) ([32]byte, error) {
	data, err := EncodeLeaf(index, account, amount)
	if err != nil {
		return [32]byte{}, err
	}
	return [32]byte(crypto.Keccak256Hash(data)), nil
}

// hashPair computes keccak256 over two node digests concatenated in
// ascending lexicographic byte order. Sorting before hashing makes the
// parent independent of which child is syntactically left, so proofs need
// no position flags. Builder and verifier must share this rule exactly.
func hashPair(a, b [32]byte) [32]byte {
	data := make([]byte, 64)
	if bytes.Compare(a[:], b[:]) <= 0 {
		copy(data[0:32], a[:])
		copy(data[32:64], b[:])
	} else {
		copy(data[0:32], b[:])
		copy(data[32:64], a[:])
	}
	return [32]byte(crypto.Keccak256Hash(data))
}
