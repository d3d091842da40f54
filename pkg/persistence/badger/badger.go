package badger

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"
	"path/filepath"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Key prefixes for namespacing
const (
	keyPrefixClaimed     = "claimed:"
	keyPrefixAmount      = "amount:"
	keySchemaVersion     = "metadata:schema_version"
	currentSchemaVersion = "v1"
)

// BadgerClaimStore is a durable, disk-based claim ledger backed by Badger.
// Ledger writes are fsynced so a crash between a claim and its token
// movement cannot forget consumed entitlements.
type BadgerClaimStore struct {
	db       *badgerdb.DB
	logger   *zap.Logger
	gcCancel context.CancelFunc
	gcWg     sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

// NewBadgerClaimStore opens (or creates) a Badger-backed claim ledger at
// dataPath. SyncWrites is enabled for durability and a background goroutine
// runs periodic value-log garbage collection.
func NewBadgerClaimStore(dataPath string, logger *zap.Logger) (*BadgerClaimStore, error) {
	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", absPath, err)
	}

	bs := &BadgerClaimStore{
		db:     db,
		logger: logger,
	}

	if err := bs.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bs.gcCancel = cancel
	bs.gcWg.Add(1)
	go bs.runGC(ctx)

	logger.Sugar().Infow("Badger claim store initialized", "path", absPath)

	return bs, nil
}

// initSchema initializes or validates the schema version
func (b *BadgerClaimStore) initSchema() error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return txn.Set([]byte(keySchemaVersion), []byte(currentSchemaVersion))
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		var existingVersion string
		err = item.Value(func(val []byte) error {
			existingVersion = string(val)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to read schema version value: %w", err)
		}

		if existingVersion != currentSchemaVersion {
			return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
		}
		return nil
	})
}

// runGC runs periodic value-log garbage collection in the background
func (b *BadgerClaimStore) runGC(ctx context.Context) {
	defer b.gcWg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := b.db.RunValueLogGC(0.5)
			if err != nil && err != badgerdb.ErrNoRewrite {
				b.logger.Sugar().Warnw("Badger GC error", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func claimedKey(index uint64) []byte {
	key := make([]byte, len(keyPrefixClaimed)+8)
	copy(key, keyPrefixClaimed)
	binary.BigEndian.PutUint64(key[len(keyPrefixClaimed):], index)
	return key
}

func amountKey(account common.Address) []byte {
	key := make([]byte, len(keyPrefixAmount)+common.AddressLength)
	copy(key, keyPrefixAmount)
	copy(key[len(keyPrefixAmount):], account.Bytes())
	return key
}

func (b *BadgerClaimStore) IsClaimed(index uint64) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return false, fmt.Errorf("claim store is closed")
	}

	claimed := false
	err := b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(claimedKey(index))
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		claimed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to read claimed index %d: %w", index, err)
	}
	return claimed, nil
}

func (b *BadgerClaimStore) SetClaimed(index uint64) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("claim store is closed")
	}

	err := b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(claimedKey(index), []byte{1})
	})
	if err != nil {
		return fmt.Errorf("failed to mark index %d claimed: %w", index, err)
	}
	return nil
}

func (b *BadgerClaimStore) ClearClaimed(index uint64) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("claim store is closed")
	}

	err := b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(claimedKey(index))
	})
	if err != nil {
		return fmt.Errorf("failed to clear claimed index %d: %w", index, err)
	}
	return nil
}

func (b *BadgerClaimStore) ClaimedAmount(account common.Address) (*big.Int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("claim store is closed")
	}

	amount := new(big.Int)
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(amountKey(account))
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			amount.SetBytes(val)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read claimed amount for %s: %w", account.Hex(), err)
	}
	return amount, nil
}

func (b *BadgerClaimStore) SetClaimedAmount(account common.Address, amount *big.Int) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("claim store is closed")
	}
	if amount != nil && amount.Sign() < 0 {
		return fmt.Errorf("claimed amount cannot be negative: %s", amount)
	}

	err := b.db.Update(func(txn *badgerdb.Txn) error {
		if amount == nil || amount.Sign() == 0 {
			return txn.Delete(amountKey(account))
		}
		return txn.Set(amountKey(account), amount.Bytes())
	})
	if err != nil {
		return fmt.Errorf("failed to set claimed amount for %s: %w", account.Hex(), err)
	}
	return nil
}

// Close stops background GC and closes the database. Idempotent.
func (b *BadgerClaimStore) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	b.gcCancel()
	b.gcWg.Wait()

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}
	return nil
}

func (b *BadgerClaimStore) HealthCheck() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("claim store is closed")
	}
	if b.db.IsClosed() {
		return fmt.Errorf("badger database is closed")
	}
	return nil
}
