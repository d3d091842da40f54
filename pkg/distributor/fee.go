package distributor

import "math/big"

// MaxBasisPoints is the fee-rate denominator: a rate of 10000 takes the
// entire claimed amount as fee.
const MaxBasisPoints = 10000

var maxBasisPointsBig = big.NewInt(MaxBasisPoints)

// SplitFee computes fee = floor(amount * bps / 10000) and the remainder
// routed to the claimant. fee + recipient == amount always holds; floor
// rounding favors the recipient and never loses dust.
func SplitFee(amount *big.Int, bps uint64) (fee, recipient *big.Int) {
	fee = new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
	fee.Quo(fee, maxBasisPointsBig)
	recipient = new(big.Int).Sub(amount, fee)
	return fee, recipient
}
