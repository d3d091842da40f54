package memory

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MemoryClaimStore is an in-memory implementation of IClaimStore.
// Intended for tests and local single-process deployments; all ledger state
// is lost when the process exits.
//
// Thread-safe using sync.RWMutex. Amounts are copied on read and write to
// prevent external mutation.
type MemoryClaimStore struct {
	mu sync.RWMutex

	// Claimed leaf indices (bitmap variant)
	claimed map[uint64]bool

	// Cumulative claimed amount per account (partial variant)
	amounts map[common.Address]*big.Int

	closed bool
}

// NewMemoryClaimStore creates an empty in-memory claim ledger.
func NewMemoryClaimStore() *MemoryClaimStore {
	return &MemoryClaimStore{
		claimed: make(map[uint64]bool),
		amounts: make(map[common.Address]*big.Int),
	}
}

func (m *MemoryClaimStore) IsClaimed(index uint64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return false, fmt.Errorf("claim store is closed")
	}
	return m.claimed[index], nil
}

func (m *MemoryClaimStore) SetClaimed(index uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("claim store is closed")
	}
	m.claimed[index] = true
	return nil
}

func (m *MemoryClaimStore) ClearClaimed(index uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("claim store is closed")
	}
	delete(m.claimed, index)
	return nil
}

func (m *MemoryClaimStore) ClaimedAmount(account common.Address) (*big.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("claim store is closed")
	}
	if amount, ok := m.amounts[account]; ok {
		return new(big.Int).Set(amount), nil
	}
	return new(big.Int), nil
}

func (m *MemoryClaimStore) SetClaimedAmount(account common.Address, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("claim store is closed")
	}
	if amount == nil || amount.Sign() == 0 {
		delete(m.amounts, account)
		return nil
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("claimed amount cannot be negative: %s", amount)
	}
	m.amounts[account] = new(big.Int).Set(amount)
	return nil
}

func (m *MemoryClaimStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

func (m *MemoryClaimStore) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("claim store is closed")
	}
	return nil
}
