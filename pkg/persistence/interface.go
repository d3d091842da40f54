package persistence

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// IClaimStore defines the interface for persisting claim-ledger state.
// All implementations must be thread-safe; distributor operations serialize
// logically above this layer but stores may be shared between processes.
//
// The interface covers both ledger variants:
// - the single-shot bitmap (claimed leaf indices)
// - the cumulative ledger (per-account amount already claimed)
type IClaimStore interface {
	// Bitmap variant

	// IsClaimed reports whether the leaf index has been claimed.
	// Returns error only on storage failure.
	IsClaimed(index uint64) (bool, error)

	// SetClaimed marks a leaf index as claimed.
	// Idempotent - marking an already-claimed index is not an error.
	SetClaimed(index uint64) error

	// ClearClaimed removes the claimed mark for a leaf index.
	// Used to roll back a ledger write when the token-side operation fails.
	// Idempotent - returns nil if the index was not claimed.
	ClearClaimed(index uint64) error

	// Cumulative variant

	// ClaimedAmount returns the cumulative amount already claimed by the
	// account. Returns zero (not an error) for accounts that never claimed.
	ClaimedAmount(account common.Address) (*big.Int, error)

	// SetClaimedAmount overwrites the cumulative claimed amount for the
	// account. A nil or zero amount deletes the entry.
	SetClaimedAmount(account common.Address, amount *big.Int) error

	// Lifecycle

	// Close cleanly shuts down the store. Idempotent.
	// After Close(), all other operations return errors.
	Close() error

	// HealthCheck verifies the store is operational.
	// Called during server startup to fail fast.
	HealthCheck() error
}
