package distributor

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/dropforge/merkle-distributor-go/pkg/distribution"
	"github.com/dropforge/merkle-distributor-go/pkg/persistence/memory"
	"github.com/dropforge/merkle-distributor-go/pkg/token"
)

var (
	ownerAddr = common.HexToAddress("0xF000000000000000000000000000000000000001")
	feeAddr   = common.HexToAddress("0xF000000000000000000000000000000000000002")
	alice     = common.HexToAddress("0x1000000000000000000000000000000000000001")
	bob       = common.HexToAddress("0x1000000000000000000000000000000000000002")
	carol     = common.HexToAddress("0x1000000000000000000000000000000000000003")
)

// buildArtifact builds a distribution over the given entries
func buildArtifact(t *testing.T, entries []distribution.BalanceEntry) *distribution.Artifact {
	t.Helper()
	artifact, err := distribution.ParseBalanceMap(entries)
	require.NoError(t, err)
	return artifact
}

// proofFor extracts an account's proof in the distributor's wire shape
func proofFor(t *testing.T, artifact *distribution.Artifact, account common.Address) (uint64, *big.Int, [][32]byte) {
	t.Helper()
	entry, ok := artifact.Claims[account]
	require.True(t, ok, "account %s not in artifact", account.Hex())

	proof := make([][32]byte, len(entry.Proof))
	for i, h := range entry.Proof {
		proof[i] = [32]byte(h)
	}
	return entry.Index, entry.Amount.ToInt(), proof
}

// testFixtureHandles bundles the observable side of a fixture: the token
// ledger and the event collector
type testFixtureHandles struct {
	tok  *token.MemoryToken
	sink *CollectorSink
}

// testConfig assembles a distributor config over a fresh in-memory stack
func testConfig(artifact *distribution.Artifact, bps uint64) (Config, *token.MemoryToken, *CollectorSink) {
	tok := token.NewMemoryToken(ownerAddr, artifact.TokenTotal.ToInt())
	sink := &CollectorSink{}
	cfg := Config{
		Root:           artifact.MerkleRoot,
		FeeAddress:     feeAddr,
		FeeBasisPoints: bps,
		Owner:          StaticOwner(ownerAddr),
		Token:          tok,
		Store:          memory.NewMemoryClaimStore(),
		Sink:           sink,
	}
	return cfg, tok, sink
}

// failingToken wraps a Token and forces Mint to report failure
type failingToken struct {
	token.Token
	failMint bool
}

func (f *failingToken) Mint(to common.Address, amount *big.Int) (bool, error) {
	if f.failMint {
		return false, nil
	}
	return f.Token.Mint(to, amount)
}

// rejectingToken wraps a Token and refuses mints to one address, modelling
// a token that blocklists the fee recipient
type rejectingToken struct {
	token.Token
	reject common.Address
}

func (f *rejectingToken) Mint(to common.Address, amount *big.Int) (bool, error) {
	if to == f.reject {
		return false, nil
	}
	return f.Token.Mint(to, amount)
}
