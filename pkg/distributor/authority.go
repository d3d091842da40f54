package distributor

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/dropforge/merkle-distributor-go/pkg/persistence"
	"github.com/dropforge/merkle-distributor-go/pkg/token"
)

// Authority is the owner-gated admin surface shared by both distributor
// variants: root rotation, fee recipient, and fee rate, plus the matching
// view accessors.
type Authority interface {
	SetMerkleRoot(caller common.Address, newRoot common.Hash) error
	SetFeeAddress(caller common.Address, addr common.Address) error
	SetFeeAmount(caller common.Address, bps uint64) error
	MerkleRoot() common.Hash
	FeeAddress() common.Address
	FeeBasisPoints() uint64
}

// Owner is the injected ownership capability gating admin operations.
// Ownership transfer semantics live outside this module; the distributor
// only needs the "caller is current owner" predicate.
type Owner interface {
	IsOwner(caller common.Address) bool
}

// StaticOwner is an Owner fixed to a single address.
type StaticOwner common.Address

func (o StaticOwner) IsOwner(caller common.Address) bool {
	return common.Address(o) == caller
}

// Config assembles a distributor's collaborators and initial parameters.
type Config struct {
	// Root is the initial published merkle root.
	Root common.Hash

	// FeeAddress receives the protocol fee. Required (non-zero) for the
	// cumulative variant; unused by the single-shot claim path.
	FeeAddress common.Address

	// FeeBasisPoints is the protocol fee rate in [0, 10000].
	FeeBasisPoints uint64

	Owner  Owner
	Token  token.Token
	Store  persistence.IClaimStore
	Sink   EventSink   // optional, defaults to NopSink
	Logger *zap.Logger // optional, defaults to zap.NewNop
}

// authority carries the admin-mutable parameters and the serialization
// lock shared by both distributor variants. Every claim and admin call runs
// under mu, modelling the host ledger's one-at-a-time transaction execution.
type authority struct {
	mu     sync.Mutex
	logger *zap.Logger
	sink   EventSink

	owner      Owner
	tok        token.Token
	store      persistence.IClaimStore
	root       [32]byte
	feeAddress common.Address
	feeBps     uint64
}

func newAuthority(cfg Config) authority {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sink := cfg.Sink
	if sink == nil {
		sink = NopSink{}
	}
	return authority{
		logger:     logger,
		sink:       sink,
		owner:      cfg.Owner,
		tok:        cfg.Token,
		store:      cfg.Store,
		root:       [32]byte(cfg.Root),
		feeAddress: cfg.FeeAddress,
		feeBps:     cfg.FeeBasisPoints,
	}
}

// SetMerkleRoot rotates the published root. Rotation deliberately does not
// reset ledger state: in the partial variant, cumulative claimed amounts
// carry across rotations, and claims stay bounded by whatever entitlement
// the currently active root asserts. Keeping per-account entitlements
// consistent across rotations is the caller's precondition.
func (a *authority) SetMerkleRoot(caller common.Address, newRoot common.Hash) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.owner.IsOwner(caller) {
		return ErrUnauthorized
	}
	if [32]byte(newRoot) == a.root {
		return ErrDuplicateRoot
	}

	a.root = [32]byte(newRoot)
	a.logger.Sugar().Infow("Merkle root updated", "root", newRoot.Hex())
	a.sink.Emit(MerkleRootUpdatedEvent{Root: newRoot})
	return nil
}

// SetFeeAddress updates the fee recipient.
func (a *authority) SetFeeAddress(caller common.Address, addr common.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.owner.IsOwner(caller) {
		return ErrUnauthorized
	}
	if addr == (common.Address{}) {
		return ErrInvalidAddress
	}
	if addr == a.feeAddress {
		return ErrDuplicateAddress
	}

	a.feeAddress = addr
	a.logger.Sugar().Infow("Fee address updated", "address", addr.Hex())
	a.sink.Emit(FeeAddressUpdatedEvent{Address: addr})
	return nil
}

// SetFeeAmount updates the fee rate in basis points.
func (a *authority) SetFeeAmount(caller common.Address, bps uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.owner.IsOwner(caller) {
		return ErrUnauthorized
	}
	if bps > MaxBasisPoints {
		return ErrInvalidBasisPoints
	}
	if bps == a.feeBps {
		return ErrSameFee
	}

	a.feeBps = bps
	a.logger.Sugar().Infow("Fee amount updated", "basis_points", bps)
	a.sink.Emit(FeeAmountUpdatedEvent{BasisPoints: bps})
	return nil
}

// MerkleRoot returns the currently active root.
func (a *authority) MerkleRoot() common.Hash {
	a.mu.Lock()
	defer a.mu.Unlock()
	return common.Hash(a.root)
}

// FeeAddress returns the current fee recipient.
func (a *authority) FeeAddress() common.Address {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.feeAddress
}

// FeeBasisPoints returns the current fee rate.
func (a *authority) FeeBasisPoints() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.feeBps
}

// Token returns the token collaborator.
func (a *authority) Token() token.Token {
	return a.tok
}

func validateConfig(cfg Config) error {
	if cfg.Owner == nil {
		return fmt.Errorf("distributor config: owner capability is required")
	}
	if cfg.Token == nil {
		return fmt.Errorf("distributor config: token collaborator is required")
	}
	if cfg.Store == nil {
		return fmt.Errorf("distributor config: claim store is required")
	}
	if cfg.FeeBasisPoints > MaxBasisPoints {
		return ErrInvalidBasisPoints
	}
	return nil
}
