package distributor

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/dropforge/merkle-distributor-go/pkg/distribution"
)

func newCumulativeFixture(t *testing.T, bps uint64) (*CumulativeDistributor, *distribution.Artifact, *testFixtureHandles) {
	t.Helper()
	artifact := buildArtifact(t, []distribution.BalanceEntry{
		{Account: alice, Amount: big.NewInt(100)},
		{Account: bob, Amount: big.NewInt(500)},
	})
	cfg, tok, sink := testConfig(artifact, bps)
	d, err := NewCumulativeDistributor(cfg)
	require.NoError(t, err)
	return d, artifact, &testFixtureHandles{tok: tok, sink: sink}
}

// TestCumulativeClaimPartial tests splitting an entitlement over several
// claims and the running-sum cap
func TestCumulativeClaimPartial(t *testing.T) {
	d, artifact, h := newCumulativeFixture(t, 0)

	index, total, proof := proofFor(t, artifact, alice)

	for i := 0; i < 3; i++ {
		_, err := d.Claim(alice, index, total, big.NewInt(30), proof)
		require.NoError(t, err)
	}

	claimed, err := d.ClaimedAmount(alice)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(90), claimed)
	require.Equal(t, big.NewInt(90), h.tok.BalanceOf(alice))

	// Only 10 remain; a fourth 30 is an over-claim
	_, err = d.Claim(alice, index, total, big.NewInt(30), proof)
	require.ErrorIs(t, err, ErrInvalidClaimAmount)

	// The exact remainder still goes through
	_, err = d.Claim(alice, index, total, big.NewInt(10), proof)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(100), h.tok.BalanceOf(alice))

	// Entitlement exhausted: even a single unit fails now
	_, err = d.Claim(alice, index, total, big.NewInt(1), proof)
	require.ErrorIs(t, err, ErrInvalidClaimAmount)
}

// TestCumulativeClaimAmountValidation tests claim-amount bounds checked
// before any proof or ledger work
func TestCumulativeClaimAmountValidation(t *testing.T) {
	d, artifact, _ := newCumulativeFixture(t, 0)

	index, total, proof := proofFor(t, artifact, alice)

	_, err := d.Claim(alice, index, total, nil, proof)
	require.ErrorIs(t, err, ErrInvalidClaimAmount)
	_, err = d.Claim(alice, index, total, big.NewInt(-1), proof)
	require.ErrorIs(t, err, ErrInvalidClaimAmount)
	_, err = d.Claim(alice, index, total, big.NewInt(101), proof)
	require.ErrorIs(t, err, ErrInvalidClaimAmount)
	_, err = d.Claim(alice, index, nil, big.NewInt(1), proof)
	require.ErrorIs(t, err, ErrInvalidClaimAmount)
}

// TestCumulativeClaimCallerBinding tests that a proof binds to the caller's
// own address and cannot be replayed by someone else
func TestCumulativeClaimCallerBinding(t *testing.T) {
	d, artifact, h := newCumulativeFixture(t, 0)

	index, total, proof := proofFor(t, artifact, alice)

	_, err := d.Claim(bob, index, total, big.NewInt(10), proof)
	require.ErrorIs(t, err, ErrInvalidProof)
	_, err = d.Claim(carol, index, total, big.NewInt(10), proof)
	require.ErrorIs(t, err, ErrInvalidProof)

	claimed, err := d.ClaimedAmount(alice)
	require.NoError(t, err)
	require.Equal(t, 0, claimed.Sign())
	require.Empty(t, h.sink.Events())
}

// TestCumulativeClaimFeeSplit tests the basis-point split and the separate
// mints for recipient and fee sides
func TestCumulativeClaimFeeSplit(t *testing.T) {
	d, artifact, h := newCumulativeFixture(t, 250) // 2.5%

	index, total, proof := proofFor(t, artifact, bob)

	fee, err := d.Claim(bob, index, total, big.NewInt(400), proof)
	require.NoError(t, err)

	// fee = floor(400 * 250 / 10000) = 10
	require.Equal(t, int64(10), fee.Int64())
	require.Equal(t, big.NewInt(390), h.tok.BalanceOf(bob))
	require.Equal(t, big.NewInt(10), h.tok.BalanceOf(feeAddr))

	events := h.sink.Events()
	require.Len(t, events, 1)
	claimEvent, ok := events[0].(ClaimedEvent)
	require.True(t, ok)
	require.Equal(t, big.NewInt(400), claimEvent.Amount)
	require.Equal(t, int64(10), claimEvent.Fee.Int64())

	// The ledger tracks the gross amount, not the net payout
	claimed, err := d.ClaimedAmount(bob)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(400), claimed)
}

// TestCumulativeClaimZeroFeeSkipsMint tests that a rounded-to-zero fee
// performs no fee-side mint
func TestCumulativeClaimZeroFeeSkipsMint(t *testing.T) {
	d, artifact, h := newCumulativeFixture(t, 100) // 1%

	index, total, proof := proofFor(t, artifact, alice)

	// fee = floor(50 * 100 / 10000) = 0
	fee, err := d.Claim(alice, index, total, big.NewInt(50), proof)
	require.NoError(t, err)
	require.Equal(t, 0, fee.Sign())
	require.Equal(t, big.NewInt(50), h.tok.BalanceOf(alice))
	require.Equal(t, 0, h.tok.BalanceOf(feeAddr).Sign())
}

// TestCumulativeClaimMintFailureRollback tests that the claimed-amount
// ledger is restored when a mint fails
func TestCumulativeClaimMintFailureRollback(t *testing.T) {
	artifact := buildArtifact(t, []distribution.BalanceEntry{
		{Account: alice, Amount: big.NewInt(100)},
		{Account: bob, Amount: big.NewInt(500)},
	})
	cfg, tok, _ := testConfig(artifact, 0)
	broken := &failingToken{Token: tok, failMint: true}
	cfg.Token = broken

	d, err := NewCumulativeDistributor(cfg)
	require.NoError(t, err)

	index, total, proof := proofFor(t, artifact, alice)

	_, err = d.Claim(alice, index, total, big.NewInt(40), proof)
	require.ErrorIs(t, err, ErrMintFailed)

	claimed, err := d.ClaimedAmount(alice)
	require.NoError(t, err)
	require.Equal(t, 0, claimed.Sign())

	// Retry succeeds once the token recovers
	broken.failMint = false
	_, err = d.Claim(alice, index, total, big.NewInt(40), proof)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(40), tok.BalanceOf(alice))
}

// TestCumulativeClaimFeeMintFailureLeavesNothingWithClaimant tests a token
// that refuses mints to the fee address: the whole claim must fail with the
// ledger rolled back and zero tokens reaching the claimant, no matter how
// often the claim is retried
func TestCumulativeClaimFeeMintFailureLeavesNothingWithClaimant(t *testing.T) {
	artifact := buildArtifact(t, []distribution.BalanceEntry{
		{Account: alice, Amount: big.NewInt(100)},
		{Account: bob, Amount: big.NewInt(500)},
	})
	cfg, tok, _ := testConfig(artifact, 1000) // 10%
	broken := &rejectingToken{Token: tok, reject: feeAddr}
	cfg.Token = broken

	d, err := NewCumulativeDistributor(cfg)
	require.NoError(t, err)

	index, total, proof := proofFor(t, artifact, alice)

	for i := 0; i < 3; i++ {
		_, err = d.Claim(alice, index, total, big.NewInt(100), proof)
		require.ErrorIs(t, err, ErrMintFailed)

		claimed, err := d.ClaimedAmount(alice)
		require.NoError(t, err)
		require.Equal(t, 0, claimed.Sign())
		require.Equal(t, 0, tok.BalanceOf(alice).Sign())
		require.Equal(t, 0, tok.BalanceOf(feeAddr).Sign())
	}

	// Once the token accepts the fee address, the same claim settles fully
	broken.reject = common.Address{}
	fee, err := d.Claim(alice, index, total, big.NewInt(100), proof)
	require.NoError(t, err)
	require.Equal(t, int64(10), fee.Int64())
	require.Equal(t, big.NewInt(90), tok.BalanceOf(alice))
	require.Equal(t, big.NewInt(10), tok.BalanceOf(feeAddr))
}

// TestCumulativeClaimRootRotation tests that claimed amounts carry across
// a root rotation: the new entitlement is only claimable net of history
func TestCumulativeClaimRootRotation(t *testing.T) {
	d, artifact, h := newCumulativeFixture(t, 0)

	index, total, proof := proofFor(t, artifact, alice)
	_, err := d.Claim(alice, index, total, big.NewInt(60), proof)
	require.NoError(t, err)

	// Rotate to a tree doubling Alice's entitlement
	updated := buildArtifact(t, []distribution.BalanceEntry{
		{Account: alice, Amount: big.NewInt(200)},
		{Account: bob, Amount: big.NewInt(500)},
	})
	require.NoError(t, d.SetMerkleRoot(ownerAddr, updated.MerkleRoot))

	// The old proof no longer verifies
	_, err = d.Claim(alice, index, total, big.NewInt(10), proof)
	require.ErrorIs(t, err, ErrInvalidProof)

	// Under the new root, 200-60=140 remain claimable
	newIndex, newTotal, newProof := proofFor(t, updated, alice)
	_, err = d.Claim(alice, newIndex, newTotal, big.NewInt(141), newProof)
	require.ErrorIs(t, err, ErrInvalidClaimAmount)
	_, err = d.Claim(alice, newIndex, newTotal, big.NewInt(140), newProof)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(200), h.tok.BalanceOf(alice))
}

// TestNewCumulativeDistributorRequiresFeeAddress tests constructor
// validation of the fee recipient
func TestNewCumulativeDistributorRequiresFeeAddress(t *testing.T) {
	artifact := buildArtifact(t, []distribution.BalanceEntry{
		{Account: alice, Amount: big.NewInt(100)},
	})
	cfg, _, _ := testConfig(artifact, 0)
	cfg.FeeAddress = common.Address{}

	_, err := NewCumulativeDistributor(cfg)
	require.ErrorIs(t, err, ErrInvalidAddress)
}
