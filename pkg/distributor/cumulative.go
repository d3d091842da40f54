package distributor

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dropforge/merkle-distributor-go/pkg/merkle"
)

// CumulativeDistributor is the partial-claim variant: an account may split
// its entitlement over any number of claims, in any amounts, as long as the
// running sum never exceeds the entitlement the active root commits to.
// A protocol fee in basis points is split off each claimed amount and the
// two sides are minted separately.
type CumulativeDistributor struct {
	authority
}

// NewCumulativeDistributor creates a partial-claim distributor over cfg.Root.
// The fee address must be non-zero; a zero rate is fine.
func NewCumulativeDistributor(cfg Config) (*CumulativeDistributor, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.FeeAddress == (common.Address{}) {
		return nil, ErrInvalidAddress
	}
	return &CumulativeDistributor{authority: newAuthority(cfg)}, nil
}

// Claim consumes claimAmount of the caller's entitlement and returns the
// fee split off it. The proof is verified over (index, caller,
// totalEntitlement); the leaf binds to the caller's own address, so a proof
// cannot be replayed by a different account. The running claimed total is
// persisted before minting and rolled back if a mint fails.
func (d *CumulativeDistributor) Claim(caller common.Address, index uint64, totalEntitlement, claimAmount *big.Int, proof [][32]byte) (*big.Int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if claimAmount == nil || claimAmount.Sign() < 0 {
		return nil, ErrInvalidClaimAmount
	}
	if totalEntitlement == nil || claimAmount.Cmp(totalEntitlement) > 0 {
		return nil, ErrInvalidClaimAmount
	}

	if !merkle.VerifyClaim(d.root, index, caller, totalEntitlement, proof) {
		return nil, ErrInvalidProof
	}

	already, err := d.store.ClaimedAmount(caller)
	if err != nil {
		return nil, fmt.Errorf("claim ledger read failed: %w", err)
	}

	// remaining = totalEntitlement - already; rejects over-claims and
	// double full-claims in one comparison
	remaining := new(big.Int).Sub(totalEntitlement, already)
	if remaining.Cmp(claimAmount) < 0 {
		return nil, ErrInvalidClaimAmount
	}

	newTotal := new(big.Int).Add(already, claimAmount)
	if err := d.store.SetClaimedAmount(caller, newTotal); err != nil {
		return nil, fmt.Errorf("claim ledger write failed: %w", err)
	}

	fee, recipientAmount := SplitFee(claimAmount, d.feeBps)

	if err := d.mintBoth(caller, recipientAmount, fee); err != nil {
		if rbErr := d.store.SetClaimedAmount(caller, already); rbErr != nil {
			d.logger.Sugar().Errorw("Failed to roll back claimed amount after mint failure",
				"account", caller.Hex(), "error", rbErr)
		}
		return nil, err
	}

	d.logger.Sugar().Infow("Claimed",
		"index", index, "account", caller.Hex(),
		"amount", claimAmount.String(), "fee", fee.String(),
		"cumulative", newTotal.String())
	d.sink.Emit(ClaimedEvent{
		Index:   index,
		Account: caller,
		Amount:  new(big.Int).Set(claimAmount),
		Fee:     fee,
	})
	return fee, nil
}

// mintBoth mints the fee and recipient sides. The fee side is minted first:
// a recipient-side failure after it leaves any surplus with the fee address,
// never with the claimant, so a retried claim cannot grow a claimant
// balance. A zero-value fee mint is skipped entirely.
func (d *CumulativeDistributor) mintBoth(caller common.Address, recipientAmount, fee *big.Int) error {
	if fee.Sign() != 0 {
		ok, err := d.tok.Mint(d.feeAddress, fee)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMintFailed, err)
		}
		if !ok {
			return ErrMintFailed
		}
	}

	if recipientAmount.Sign() > 0 {
		ok, err := d.tok.Mint(caller, recipientAmount)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMintFailed, err)
		}
		if !ok {
			return ErrMintFailed
		}
	}

	return nil
}

// ClaimedAmount returns the caller's cumulative claimed total.
func (d *CumulativeDistributor) ClaimedAmount(account common.Address) (*big.Int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.ClaimedAmount(account)
}
