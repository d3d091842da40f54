package redis

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Key prefixes for namespacing in Redis
const (
	keyPrefixClaimed     = "dist:claimed:"
	keyPrefixAmount      = "dist:amount:"
	keySchemaVersion     = "dist:metadata:schema_version"
	currentSchemaVersion = "v1"
)

// opTimeout bounds every Redis round trip.
const opTimeout = 5 * time.Second

// RedisClaimStore is a Redis-backed claim ledger suitable for deployments
// where several distributor processes share one ledger.
type RedisClaimStore struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	mu        sync.RWMutex
	closed    bool
}

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is an optional custom prefix for all keys (for multi-tenant
	// setups). If set, keys become e.g. "myapp:dist:claimed:42".
	KeyPrefix string
}

// NewRedisClaimStore creates a new Redis-backed claim ledger.
func NewRedisClaimStore(cfg *RedisConfig, logger *zap.Logger) (*RedisClaimStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rs := &RedisClaimStore{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rs.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Redis claim store initialized", "address", cfg.Address, "db", cfg.DB, "key_prefix", cfg.KeyPrefix)

	return rs, nil
}

// prefixKey adds the custom key prefix (if configured) to a key
func (r *RedisClaimStore) prefixKey(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return r.keyPrefix + key
}

// initSchema initializes or validates the schema version
func (r *RedisClaimStore) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if err == redis.Nil {
		return r.client.Set(ctx, schemaKey, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if existingVersion != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
	}
	return nil
}

func (r *RedisClaimStore) claimedKey(index uint64) string {
	return r.prefixKey(fmt.Sprintf("%s%d", keyPrefixClaimed, index))
}

func (r *RedisClaimStore) amountKey(account common.Address) string {
	return r.prefixKey(keyPrefixAmount + account.Hex())
}

func (r *RedisClaimStore) IsClaimed(index uint64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return false, fmt.Errorf("claim store is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	n, err := r.client.Exists(ctx, r.claimedKey(index)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read claimed index %d: %w", index, err)
	}
	return n > 0, nil
}

func (r *RedisClaimStore) SetClaimed(index uint64) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("claim store is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := r.client.Set(ctx, r.claimedKey(index), "1", 0).Err(); err != nil {
		return fmt.Errorf("failed to mark index %d claimed: %w", index, err)
	}
	return nil
}

func (r *RedisClaimStore) ClearClaimed(index uint64) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("claim store is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := r.client.Del(ctx, r.claimedKey(index)).Err(); err != nil {
		return fmt.Errorf("failed to clear claimed index %d: %w", index, err)
	}
	return nil
}

func (r *RedisClaimStore) ClaimedAmount(account common.Address) (*big.Int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("claim store is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	val, err := r.client.Get(ctx, r.amountKey(account)).Result()
	if err == redis.Nil {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read claimed amount for %s: %w", account.Hex(), err)
	}

	amount, ok := new(big.Int).SetString(val, 10)
	if !ok {
		return nil, fmt.Errorf("corrupt claimed amount for %s: %q", account.Hex(), val)
	}
	return amount, nil
}

func (r *RedisClaimStore) SetClaimedAmount(account common.Address, amount *big.Int) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("claim store is closed")
	}
	if amount != nil && amount.Sign() < 0 {
		return fmt.Errorf("claimed amount cannot be negative: %s", amount)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if amount == nil || amount.Sign() == 0 {
		if err := r.client.Del(ctx, r.amountKey(account)).Err(); err != nil {
			return fmt.Errorf("failed to clear claimed amount for %s: %w", account.Hex(), err)
		}
		return nil
	}

	if err := r.client.Set(ctx, r.amountKey(account), amount.String(), 0).Err(); err != nil {
		return fmt.Errorf("failed to set claimed amount for %s: %w", account.Hex(), err)
	}
	return nil
}

// Close closes the Redis connection. Idempotent.
func (r *RedisClaimStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}

func (r *RedisClaimStore) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("claim store is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
