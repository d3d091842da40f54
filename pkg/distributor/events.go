package distributor

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ClaimedEvent is emitted after a successful claim. Fee is zero for the
// single-shot variant.
type ClaimedEvent struct {
	Index   uint64
	Account common.Address
	Amount  *big.Int
	Fee     *big.Int
}

// MerkleRootUpdatedEvent is emitted when the active root is rotated.
type MerkleRootUpdatedEvent struct {
	Root common.Hash
}

// FeeAddressUpdatedEvent is emitted when the fee recipient changes.
type FeeAddressUpdatedEvent struct {
	Address common.Address
}

// FeeAmountUpdatedEvent is emitted when the fee rate changes.
type FeeAmountUpdatedEvent struct {
	BasisPoints uint64
}

// EventSink receives distributor events. Emit is called synchronously after
// the state mutation it describes has committed; sinks must not block.
type EventSink interface {
	Emit(event interface{})
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Emit(interface{}) {}

// CollectorSink records events in order. Used by tests.
type CollectorSink struct {
	mu     sync.Mutex
	events []interface{}
}

func (c *CollectorSink) Emit(event interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

// Events returns a snapshot of everything emitted so far.
func (c *CollectorSink) Events() []interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]interface{}, len(c.events))
	copy(out, c.events)
	return out
}
