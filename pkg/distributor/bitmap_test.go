package distributor

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropforge/merkle-distributor-go/pkg/distribution"
)

func newBitmapFixture(t *testing.T) (*BitmapDistributor, *distribution.Artifact, *testFixtureHandles) {
	t.Helper()
	artifact := buildArtifact(t, []distribution.BalanceEntry{
		{Account: alice, Amount: big.NewInt(100)},
		{Account: bob, Amount: big.NewInt(101)},
	})
	cfg, tok, sink := testConfig(artifact, 0)
	d, err := NewBitmapDistributor(cfg)
	require.NoError(t, err)
	return d, artifact, &testFixtureHandles{tok: tok, sink: sink}
}

// TestBitmapClaim tests the single-shot claim happy path
func TestBitmapClaim(t *testing.T) {
	d, artifact, h := newBitmapFixture(t)

	index, amount, proof := proofFor(t, artifact, alice)
	require.Equal(t, uint64(0), index)

	require.NoError(t, d.Claim(index, alice, amount, proof))
	require.Equal(t, big.NewInt(100), h.tok.BalanceOf(alice))

	claimed, err := d.IsClaimed(0)
	require.NoError(t, err)
	require.True(t, claimed)

	claimed, err = d.IsClaimed(1)
	require.NoError(t, err)
	require.False(t, claimed)

	events := h.sink.Events()
	require.Len(t, events, 1)
	claimEvent, ok := events[0].(ClaimedEvent)
	require.True(t, ok)
	require.Equal(t, uint64(0), claimEvent.Index)
	require.Equal(t, alice, claimEvent.Account)
	require.Equal(t, big.NewInt(100), claimEvent.Amount)
	require.Equal(t, 0, claimEvent.Fee.Sign())
}

// TestBitmapClaimReplay tests that a consumed index cannot be claimed again
func TestBitmapClaimReplay(t *testing.T) {
	d, artifact, h := newBitmapFixture(t)

	index, amount, proof := proofFor(t, artifact, alice)
	require.NoError(t, d.Claim(index, alice, amount, proof))
	require.ErrorIs(t, d.Claim(index, alice, amount, proof), ErrAlreadyClaimed)

	// No double payout
	require.Equal(t, big.NewInt(100), h.tok.BalanceOf(alice))
	require.Len(t, h.sink.Events(), 1)
}

// TestBitmapClaimInvalidProof tests proof rejection before any state change
func TestBitmapClaimInvalidProof(t *testing.T) {
	d, artifact, h := newBitmapFixture(t)

	index, amount, proof := proofFor(t, artifact, alice)

	t.Run("Wrong amount", func(t *testing.T) {
		require.ErrorIs(t, d.Claim(index, alice, big.NewInt(999), proof), ErrInvalidProof)
	})

	t.Run("Wrong account", func(t *testing.T) {
		require.ErrorIs(t, d.Claim(index, carol, amount, proof), ErrInvalidProof)
	})

	t.Run("Wrong index", func(t *testing.T) {
		require.ErrorIs(t, d.Claim(index+1, alice, amount, proof), ErrInvalidProof)
	})

	t.Run("Tampered proof", func(t *testing.T) {
		bad := make([][32]byte, len(proof))
		copy(bad, proof)
		bad[0][0] ^= 0xFF
		require.ErrorIs(t, d.Claim(index, alice, amount, bad), ErrInvalidProof)
	})

	// A rejected claim leaves no trace
	claimed, err := d.IsClaimed(index)
	require.NoError(t, err)
	require.False(t, claimed)
	require.Equal(t, 0, h.tok.BalanceOf(alice).Sign())
	require.Empty(t, h.sink.Events())
}

// TestBitmapClaimTransferFailureRollback tests that the claimed mark is
// rolled back when the token-side transfer fails
func TestBitmapClaimTransferFailureRollback(t *testing.T) {
	d, artifact, h := newBitmapFixture(t)

	index, amount, proof := proofFor(t, artifact, alice)

	h.tok.FailTransfers = true
	require.ErrorIs(t, d.Claim(index, alice, amount, proof), ErrTransferFailed)

	claimed, err := d.IsClaimed(index)
	require.NoError(t, err)
	require.False(t, claimed)

	// Retry succeeds once the token recovers
	h.tok.FailTransfers = false
	require.NoError(t, d.Claim(index, alice, amount, proof))
	require.Equal(t, big.NewInt(100), h.tok.BalanceOf(alice))
}

// TestBitmapClaimAnyCaller tests that any party can trigger a claim: the
// payout always lands on the committed account
func TestBitmapClaimAnyCaller(t *testing.T) {
	d, artifact, h := newBitmapFixture(t)

	// Bob submits Alice's proof; Alice still gets paid
	index, amount, proof := proofFor(t, artifact, alice)
	require.NoError(t, d.Claim(index, alice, amount, proof))
	require.Equal(t, big.NewInt(100), h.tok.BalanceOf(alice))
	require.Equal(t, 0, h.tok.BalanceOf(bob).Sign())
}

// TestBitmapClaimAllIndices tests draining a whole distribution
func TestBitmapClaimAllIndices(t *testing.T) {
	artifact := buildArtifact(t, []distribution.BalanceEntry{
		{Account: alice, Amount: big.NewInt(100)},
		{Account: bob, Amount: big.NewInt(200)},
		{Account: carol, Amount: big.NewInt(300)},
	})
	cfg, tok, _ := testConfig(artifact, 0)
	d, err := NewBitmapDistributor(cfg)
	require.NoError(t, err)

	for _, account := range artifact.SortedAccounts() {
		index, amount, proof := proofFor(t, artifact, account)
		require.NoError(t, d.Claim(index, account, amount, proof))
	}

	require.Equal(t, big.NewInt(100), tok.BalanceOf(alice))
	require.Equal(t, big.NewInt(200), tok.BalanceOf(bob))
	require.Equal(t, big.NewInt(300), tok.BalanceOf(carol))

	// Pool fully drained
	require.Equal(t, 0, tok.BalanceOf(ownerAddr).Sign())
}
