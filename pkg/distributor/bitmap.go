package distributor

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dropforge/merkle-distributor-go/pkg/merkle"
)

// BitmapDistributor is the single-shot claim variant: each leaf index is
// consumable exactly once, by anyone presenting a valid proof, and the full
// entitlement is transferred to the committed account in one go.
type BitmapDistributor struct {
	authority
}

// NewBitmapDistributor creates a single-shot distributor over cfg.Root.
func NewBitmapDistributor(cfg Config) (*BitmapDistributor, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return &BitmapDistributor{authority: newAuthority(cfg)}, nil
}

// Claim consumes leaf index for account. The proof is verified over
// (index, account, amount) against the active root; a consumed index always
// fails ErrAlreadyClaimed afterwards, regardless of caller or arguments.
//
// The call is atomic: the claimed mark is rolled back if the token-side
// transfer fails, so a failed claim leaves no state behind.
func (d *BitmapDistributor) Claim(index uint64, account common.Address, amount *big.Int, proof [][32]byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !merkle.VerifyClaim(d.root, index, account, amount, proof) {
		return ErrInvalidProof
	}

	claimed, err := d.store.IsClaimed(index)
	if err != nil {
		return fmt.Errorf("claim ledger read failed: %w", err)
	}
	if claimed {
		return ErrAlreadyClaimed
	}

	if err := d.store.SetClaimed(index); err != nil {
		return fmt.Errorf("claim ledger write failed: %w", err)
	}

	ok, err := d.tok.Transfer(account, amount)
	if err != nil || !ok {
		if clearErr := d.store.ClearClaimed(index); clearErr != nil {
			// The ledger now over-counts; surface loudly, manual intervention needed.
			d.logger.Sugar().Errorw("Failed to roll back claimed index after transfer failure",
				"index", index, "error", clearErr)
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		return ErrTransferFailed
	}

	d.logger.Sugar().Infow("Claimed",
		"index", index, "account", account.Hex(), "amount", amount.String())
	d.sink.Emit(ClaimedEvent{
		Index:   index,
		Account: account,
		Amount:  new(big.Int).Set(amount),
		Fee:     new(big.Int),
	})
	return nil
}

// IsClaimed reports whether the leaf index has been consumed.
func (d *BitmapDistributor) IsClaimed(index uint64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.IsClaimed(index)
}
