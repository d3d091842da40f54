package distributor

import "errors"

var (
	// ErrInvalidProof is returned when the recomputed root does not match
	// the currently active root (including empty proofs on multi-leaf trees).
	ErrInvalidProof = errors.New("invalid merkle proof")

	// ErrAlreadyClaimed is returned by the single-shot variant when the
	// leaf index has already been consumed.
	ErrAlreadyClaimed = errors.New("drop already claimed")

	// ErrInvalidClaimAmount is returned by the partial variant when the
	// requested amount exceeds the remaining entitlement, or exceeds the
	// total entitlement outright.
	ErrInvalidClaimAmount = errors.New("invalid claim amount")

	// ErrTransferFailed is returned when the token transfer reports failure.
	ErrTransferFailed = errors.New("token transfer failed")

	// ErrMintFailed is returned when the token mint reports failure.
	ErrMintFailed = errors.New("token mint failed")

	// ErrUnauthorized is returned when a non-owner calls an admin operation.
	ErrUnauthorized = errors.New("caller is not the owner")

	// ErrDuplicateRoot is returned when rotating the root to its current value.
	ErrDuplicateRoot = errors.New("merkle root already set to this value")

	// ErrDuplicateAddress is returned when the fee address update is a no-op.
	ErrDuplicateAddress = errors.New("fee address already set to this value")

	// ErrSameFee is returned when the fee rate update is a no-op.
	ErrSameFee = errors.New("fee rate already set to this value")

	// ErrInvalidAddress is returned for a zero-address fee recipient.
	ErrInvalidAddress = errors.New("fee address cannot be the zero address")

	// ErrInvalidBasisPoints is returned for fee rates above 10000.
	ErrInvalidBasisPoints = errors.New("fee basis points out of range")
)
