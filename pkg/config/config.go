package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/dropforge/merkle-distributor-go/pkg/distributor"
)

// Environment variable names for the distributor server configuration
const (
	EnvDistPort          = "DIST_PORT"
	EnvDistVerbose       = "DIST_VERBOSE"
	EnvDistArtifactPath  = "DIST_ARTIFACT_PATH"
	EnvDistVariant       = "DIST_VARIANT"
	EnvDistOwnerAddress  = "DIST_OWNER_ADDRESS"
	EnvDistFeeAddress    = "DIST_FEE_ADDRESS"
	EnvDistFeeBps        = "DIST_FEE_BPS"
	EnvDistStoreType     = "DIST_STORE_TYPE"
	EnvDistBadgerPath    = "DIST_BADGER_PATH"
	EnvDistRedisAddress  = "DIST_REDIS_ADDRESS"
	EnvDistRedisPassword = "DIST_REDIS_PASSWORD"
	EnvDistRedisDB       = "DIST_REDIS_DB"
	EnvDistClaimRate     = "DIST_CLAIM_RATE_LIMIT"
)

// Variant selects the claim-ledger semantics.
type Variant string

const (
	VariantBitmap     Variant = "bitmap"
	VariantCumulative Variant = "cumulative"
)

func (v Variant) String() string {
	return string(v)
}

// StoreType selects the claim-ledger persistence backend.
type StoreType string

const (
	StoreMemory StoreType = "memory"
	StoreBadger StoreType = "badger"
	StoreRedis  StoreType = "redis"
)

func (s StoreType) String() string {
	return string(s)
}

// ServerConfig represents the complete configuration for a distributor server.
type ServerConfig struct {
	Port    int  `json:"port"`
	Verbose bool `json:"verbose"`

	// Distribution
	ArtifactPath string  `json:"artifact_path"`
	Variant      Variant `json:"variant"`

	// Authority / fees
	OwnerAddress   string `json:"owner_address"`
	FeeAddress     string `json:"fee_address"`
	FeeBasisPoints uint64 `json:"fee_basis_points"`

	// Persistence
	StoreType     StoreType `json:"store_type"`
	BadgerPath    string    `json:"badger_path,omitempty"`
	RedisAddress  string    `json:"redis_address,omitempty"`
	RedisPassword string    `json:"redis_password,omitempty"`
	RedisDB       int       `json:"redis_db,omitempty"`

	// ClaimRateLimit is the sustained claims-per-second the HTTP surface
	// admits. Zero disables rate limiting.
	ClaimRateLimit float64 `json:"claim_rate_limit"`
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	var allErrors field.ErrorList

	if c.Port < 1 || c.Port > 65535 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("port"), c.Port, "port must be between 1-65535"))
	}

	if c.ArtifactPath == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("artifactPath"), "distribution artifact path is required"))
	}

	switch c.Variant {
	case VariantBitmap, VariantCumulative:
	default:
		allErrors = append(allErrors, field.NotSupported(field.NewPath("variant"), c.Variant, []Variant{VariantBitmap, VariantCumulative}))
	}

	if c.OwnerAddress == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("ownerAddress"), "owner address is required"))
	} else if !common.IsHexAddress(c.OwnerAddress) {
		allErrors = append(allErrors, field.Invalid(field.NewPath("ownerAddress"), c.OwnerAddress, "not a valid hex address"))
	}

	if c.FeeBasisPoints > distributor.MaxBasisPoints {
		allErrors = append(allErrors, field.Invalid(field.NewPath("feeBasisPoints"), c.FeeBasisPoints,
			fmt.Sprintf("must be in [0, %d]", distributor.MaxBasisPoints)))
	}

	if c.Variant == VariantCumulative {
		if c.FeeAddress == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("feeAddress"), "fee address is required for the cumulative variant"))
		} else if !common.IsHexAddress(c.FeeAddress) || common.HexToAddress(c.FeeAddress) == (common.Address{}) {
			allErrors = append(allErrors, field.Invalid(field.NewPath("feeAddress"), c.FeeAddress, "must be a non-zero hex address"))
		}
	} else if c.FeeAddress != "" && !common.IsHexAddress(c.FeeAddress) {
		allErrors = append(allErrors, field.Invalid(field.NewPath("feeAddress"), c.FeeAddress, "not a valid hex address"))
	}

	switch c.StoreType {
	case StoreMemory:
	case StoreBadger:
		if c.BadgerPath == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("badgerPath"), "badger data path is required for the badger store"))
		}
	case StoreRedis:
		if c.RedisAddress == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("redisAddress"), "redis address is required for the redis store"))
		}
		if c.RedisDB < 0 || c.RedisDB > 15 {
			allErrors = append(allErrors, field.Invalid(field.NewPath("redisDB"), c.RedisDB, "must be between 0-15"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(field.NewPath("storeType"), c.StoreType, []StoreType{StoreMemory, StoreBadger, StoreRedis}))
	}

	if c.ClaimRateLimit < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("claimRateLimit"), c.ClaimRateLimit, "rate limit cannot be negative"))
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}
