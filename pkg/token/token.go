package token

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Token is the fungible-token collaborator the distributor moves funds
// through. Implementations report failure either via the bool (a token-level
// refusal, e.g. insufficient balance) or the error (a transport failure).
type Token interface {
	// Transfer moves amount from the distributor's own balance to `to`.
	Transfer(to common.Address, amount *big.Int) (bool, error)

	// Mint creates amount new tokens credited to `to`.
	Mint(to common.Address, amount *big.Int) (bool, error)

	// BalanceOf returns the current balance of an account.
	BalanceOf(account common.Address) *big.Int
}

// MemoryToken is an in-memory Token used by tests and local deployments.
// The distributor's own balance is tracked under its configured address.
// Thread-safe; balances are copied on read to prevent external mutation.
type MemoryToken struct {
	mu sync.Mutex

	holder   common.Address
	balances map[common.Address]*big.Int

	// FailTransfers forces Transfer to report token-level failure.
	// Used by tests exercising the TransferFailed path.
	FailTransfers bool
}

// NewMemoryToken creates a token whose transferable pool belongs to holder,
// funded with the given initial balance.
func NewMemoryToken(holder common.Address, initial *big.Int) *MemoryToken {
	balances := make(map[common.Address]*big.Int)
	if initial != nil && initial.Sign() > 0 {
		balances[holder] = new(big.Int).Set(initial)
	}
	return &MemoryToken{
		holder:   holder,
		balances: balances,
	}
}

func (t *MemoryToken) Transfer(to common.Address, amount *big.Int) (bool, error) {
	if amount == nil || amount.Sign() < 0 {
		return false, fmt.Errorf("invalid transfer amount: %v", amount)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.FailTransfers {
		return false, nil
	}

	from := t.balance(t.holder)
	if from.Cmp(amount) < 0 {
		return false, nil
	}

	t.balances[t.holder] = from.Sub(from, amount)
	toBal := t.balance(to)
	t.balances[to] = toBal.Add(toBal, amount)
	return true, nil
}

func (t *MemoryToken) Mint(to common.Address, amount *big.Int) (bool, error) {
	if amount == nil || amount.Sign() < 0 {
		return false, fmt.Errorf("invalid mint amount: %v", amount)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	toBal := t.balance(to)
	t.balances[to] = toBal.Add(toBal, amount)
	return true, nil
}

func (t *MemoryToken) BalanceOf(account common.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.balance(account))
}

// balance returns the stored balance without copying. Caller holds the lock.
func (t *MemoryToken) balance(account common.Address) *big.Int {
	if b, ok := t.balances[account]; ok {
		return b
	}
	return new(big.Int)
}
