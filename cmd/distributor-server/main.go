package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/dropforge/merkle-distributor-go/pkg/config"
	"github.com/dropforge/merkle-distributor-go/pkg/distribution"
	"github.com/dropforge/merkle-distributor-go/pkg/distributor"
	"github.com/dropforge/merkle-distributor-go/pkg/logger"
	"github.com/dropforge/merkle-distributor-go/pkg/persistence"
	badgerstore "github.com/dropforge/merkle-distributor-go/pkg/persistence/badger"
	memorystore "github.com/dropforge/merkle-distributor-go/pkg/persistence/memory"
	redisstore "github.com/dropforge/merkle-distributor-go/pkg/persistence/redis"
	"github.com/dropforge/merkle-distributor-go/pkg/server"
	"github.com/dropforge/merkle-distributor-go/pkg/token"
)

func main() {
	app := &cli.App{
		Name:  "distributor-server",
		Usage: "Merkle token distributor claim server",
		Description: `Serves claims against a published merkle distribution.

The server loads a distribution artifact (root + per-account proofs),
verifies submitted proofs against the active root, enforces exactly-once or
bounded-cumulative entitlement consumption, and moves tokens through the
configured token backend.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   8080,
				Usage:   "HTTP server port",
				EnvVars: []string{config.EnvDistPort},
			},
			&cli.StringFlag{
				Name:     "artifact",
				Aliases:  []string{"a"},
				Usage:    "Path to the distribution artifact JSON",
				EnvVars:  []string{config.EnvDistArtifactPath},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "variant",
				Usage:   "Claim ledger variant: bitmap (single-shot) or cumulative (partial claims)",
				Value:   string(config.VariantBitmap),
				EnvVars: []string{config.EnvDistVariant},
			},
			&cli.StringFlag{
				Name:     "owner-address",
				Usage:    "Address allowed to rotate the root and fee parameters",
				EnvVars:  []string{config.EnvDistOwnerAddress},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "fee-address",
				Usage:   "Protocol fee recipient (required for the cumulative variant)",
				EnvVars: []string{config.EnvDistFeeAddress},
			},
			&cli.Uint64Flag{
				Name:    "fee-bps",
				Usage:   "Protocol fee in basis points [0, 10000]",
				Value:   0,
				EnvVars: []string{config.EnvDistFeeBps},
			},
			&cli.StringFlag{
				Name:    "store",
				Usage:   "Claim ledger backend: memory, badger, or redis",
				Value:   string(config.StoreMemory),
				EnvVars: []string{config.EnvDistStoreType},
			},
			&cli.StringFlag{
				Name:    "badger-path",
				Usage:   "Data directory for the badger store",
				EnvVars: []string{config.EnvDistBadgerPath},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "Redis server address (host:port)",
				EnvVars: []string{config.EnvDistRedisAddress},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				EnvVars: []string{config.EnvDistRedisPassword},
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Usage:   "Redis database number (0-15)",
				Value:   0,
				EnvVars: []string{config.EnvDistRedisDB},
			},
			&cli.Float64Flag{
				Name:    "claim-rate-limit",
				Usage:   "Sustained claims/second admitted by the HTTP surface (0 disables)",
				Value:   0,
				EnvVars: []string{config.EnvDistClaimRate},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvDistVerbose},
			},
		},
		Action: runServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func runServer(c *cli.Context) error {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	cfg := parseServerConfig(c)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	artifact, err := distribution.LoadArtifact(cfg.ArtifactPath)
	if err != nil {
		return err
	}
	if err := artifact.Verify(); err != nil {
		return fmt.Errorf("artifact failed self-verification: %w", err)
	}
	l.Sugar().Infow("Loaded distribution artifact",
		"root", artifact.MerkleRoot.Hex(),
		"accounts", len(artifact.Claims),
		"token_total", artifact.TokenTotal.String())

	store, err := buildStore(cfg, l)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.HealthCheck(); err != nil {
		return fmt.Errorf("claim store unhealthy: %w", err)
	}

	owner := common.HexToAddress(cfg.OwnerAddress)

	// The in-memory token holds the full pool under the owner's address;
	// swap in a chain-backed Token to settle against a real ledger.
	tok := token.NewMemoryToken(owner, artifact.TokenTotal.ToInt())

	distCfg := distributor.Config{
		Root:           artifact.MerkleRoot,
		FeeAddress:     common.HexToAddress(cfg.FeeAddress),
		FeeBasisPoints: cfg.FeeBasisPoints,
		Owner:          distributor.StaticOwner(owner),
		Token:          tok,
		Store:          store,
		Logger:         l,
	}

	opts := server.Options{
		Port:           cfg.Port,
		Store:          store,
		ClaimRateLimit: cfg.ClaimRateLimit,
	}

	switch cfg.Variant {
	case config.VariantBitmap:
		d, err := distributor.NewBitmapDistributor(distCfg)
		if err != nil {
			return fmt.Errorf("failed to create distributor: %w", err)
		}
		opts.Bitmap = d
	case config.VariantCumulative:
		d, err := distributor.NewCumulativeDistributor(distCfg)
		if err != nil {
			return fmt.Errorf("failed to create distributor: %w", err)
		}
		opts.Cumulative = d
	}

	srv, err := server.NewServer(opts, l)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	l.Sugar().Infow("Distributor server running",
		"port", cfg.Port, "variant", cfg.Variant, "store", cfg.StoreType)
	l.Sugar().Infow("Available endpoints",
		"claim", "POST /claim",
		"root", "GET /root",
		"claimed", "GET /claimed?index=N",
		"claimed_amount", "GET /claimed-amount?account=0x..",
		"admin", "POST /admin/{root,fee-address,fee-amount}")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	l.Sugar().Info("Shutting down")
	return srv.Stop()
}

func buildStore(cfg *config.ServerConfig, l *zap.Logger) (persistence.IClaimStore, error) {
	switch cfg.StoreType {
	case config.StoreBadger:
		return badgerstore.NewBadgerClaimStore(cfg.BadgerPath, l)
	case config.StoreRedis:
		return redisstore.NewRedisClaimStore(&redisstore.RedisConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, l)
	default:
		l.Sugar().Warn("Using in-memory claim store - ledger state is lost on restart")
		return memorystore.NewMemoryClaimStore(), nil
	}
}

func parseServerConfig(c *cli.Context) *config.ServerConfig {
	return &config.ServerConfig{
		Port:           c.Int("port"),
		Verbose:        c.Bool("verbose"),
		ArtifactPath:   c.String("artifact"),
		Variant:        config.Variant(c.String("variant")),
		OwnerAddress:   c.String("owner-address"),
		FeeAddress:     c.String("fee-address"),
		FeeBasisPoints: c.Uint64("fee-bps"),
		StoreType:      config.StoreType(c.String("store")),
		BadgerPath:     c.String("badger-path"),
		RedisAddress:   c.String("redis-address"),
		RedisPassword:  c.String("redis-password"),
		RedisDB:        c.Int("redis-db"),
		ClaimRateLimit: c.Float64("claim-rate-limit"),
	}
}
