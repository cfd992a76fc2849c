package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/alphaledger/ledgerd/internal/blob/s3"
	"github.com/alphaledger/ledgerd/internal/cache/redis"
	"github.com/alphaledger/ledgerd/internal/config"
	"github.com/alphaledger/ledgerd/internal/domain"
	"github.com/alphaledger/ledgerd/internal/ledger"
	"github.com/alphaledger/ledgerd/internal/service"
	"github.com/alphaledger/ledgerd/internal/store/postgres"
)

// Dependencies bundles everything the application needs to operate. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Authority client and change stream
	Client *ledger.Client
	Stream *ledger.Stream

	// Local infrastructure
	Cache   domain.EntityCache
	Journal domain.JournalStore

	// Blob storage
	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader
	Archiver   domain.Archiver

	// Services
	Transactions *service.TransactionService
	Positions    *service.PositionService
	Netting      *service.NettingResolver
	Transfers    *service.BookTransferCoordinator
	Allocations  *service.AllocationSplitter
	Invalidator  *service.CacheInvalidator
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Authority client ---
	deps.Client = ledger.New(ledger.Config{
		BaseURL:      cfg.Ledger.Endpoint,
		SessionToken: cfg.Ledger.SessionToken,
		Timeout:      cfg.Ledger.Timeout.Duration,
	})

	// --- PostgreSQL (operation journal) ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}
	deps.Journal = postgres.NewJournalStore(pgClient.Pool())

	// --- Redis (entity cache) ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })
	deps.Cache = redis.NewEntityCache(redisClient, cfg.Redis.EntityTTL.Duration)

	// --- S3 blob storage (only when archival is on) ---
	if cfg.Archive.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.BlobReader = s3blob.NewReader(s3Client)
		deps.Archiver = s3blob.NewJournalArchiver(deps.BlobWriter, deps.BlobReader, deps.Journal)
	}

	// --- Services ---
	deps.Transactions = service.NewTransactionService(deps.Client, deps.Cache, deps.Journal, logger)
	deps.Positions = service.NewPositionService(deps.Client, deps.Cache, logger)
	deps.Netting = service.NewNettingResolver(deps.Client, deps.Journal, logger)
	deps.Transfers = service.NewBookTransferCoordinator(deps.Client, deps.Cache, deps.Journal, logger)
	deps.Allocations = service.NewAllocationSplitter(deps.Client, deps.Journal, logger)
	deps.Invalidator = service.NewCacheInvalidator(deps.Transactions, deps.Positions, logger)

	// --- Change stream ---
	if cfg.Stream.Enabled {
		deps.Stream = ledger.NewStream(cfg.Stream.WSURL, cfg.Ledger.SessionToken)
		deps.Stream.OnChange(deps.Invalidator.Handle)
		closers = append(closers, func() { _ = deps.Stream.Close() })
	}

	return deps, cleanup, nil
}
