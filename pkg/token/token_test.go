package token

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	holder = common.HexToAddress("0xA000000000000000000000000000000000000001")
	payee  = common.HexToAddress("0xA000000000000000000000000000000000000002")
)

// TestMemoryTokenTransfer tests the holder-pool transfer semantics
func TestMemoryTokenTransfer(t *testing.T) {
	tok := NewMemoryToken(holder, big.NewInt(1000))

	ok, err := tok.Transfer(payee, big.NewInt(400))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, big.NewInt(400), tok.BalanceOf(payee))
	require.Equal(t, big.NewInt(600), tok.BalanceOf(holder))

	// Insufficient pool refuses without error
	ok, err = tok.Transfer(payee, big.NewInt(601))
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, big.NewInt(400), tok.BalanceOf(payee))
}

// TestMemoryTokenTransferValidation tests amount validation
func TestMemoryTokenTransferValidation(t *testing.T) {
	tok := NewMemoryToken(holder, big.NewInt(100))

	_, err := tok.Transfer(payee, nil)
	require.Error(t, err)

	_, err = tok.Transfer(payee, big.NewInt(-1))
	require.Error(t, err)

	// Zero-value transfer is a no-op that succeeds
	ok, err := tok.Transfer(payee, big.NewInt(0))
	require.NoError(t, err)
	require.True(t, ok)
}

// TestMemoryTokenMint tests supply creation
func TestMemoryTokenMint(t *testing.T) {
	tok := NewMemoryToken(holder, nil)

	ok, err := tok.Mint(payee, big.NewInt(250))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = tok.Mint(payee, big.NewInt(250))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, big.NewInt(500), tok.BalanceOf(payee))

	_, err = tok.Mint(payee, big.NewInt(-1))
	require.Error(t, err)
}

// TestMemoryTokenFailTransfers tests the forced-failure hook
func TestMemoryTokenFailTransfers(t *testing.T) {
	tok := NewMemoryToken(holder, big.NewInt(100))
	tok.FailTransfers = true

	ok, err := tok.Transfer(payee, big.NewInt(10))
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, big.NewInt(100), tok.BalanceOf(holder))
}

// TestMemoryTokenBalanceIsolation tests that returned balances are copies
func TestMemoryTokenBalanceIsolation(t *testing.T) {
	tok := NewMemoryToken(holder, big.NewInt(100))

	bal := tok.BalanceOf(holder)
	bal.SetInt64(0)
	require.Equal(t, big.NewInt(100), tok.BalanceOf(holder))
}
