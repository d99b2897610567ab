package main

import (
	"context"
	"fmt"
	"log/slog"

	"cipherledger/internal/ledger/service"
	"cipherledger/internal/ledger/store/record"
	"cipherledger/internal/platform/config"
	"cipherledger/internal/platform/postgres"
	"cipherledger/internal/platform/redis"
	"cipherledger/internal/ratelimit"
	"cipherledger/internal/ratelimit/store/bucket"
	"cipherledger/internal/verification"
	audit "cipherledger/pkg/platform/audit"
	auditmemory "cipherledger/pkg/platform/audit/store/memory"
	auditpostgres "cipherledger/pkg/platform/audit/store/postgres"
)

type recordStore interface {
	service.Store
	verification.Store
	Ping(ctx context.Context) error
}

// backend is the durable state the ledger runs on. When the records live in
// postgres the audit trail shares their transactions. Rate limit buckets are
// shared through redis only when the records are.
type backend struct {
	records recordStore
	audit   audit.Store
	tx      service.TxRunner
	buckets ratelimit.BucketStore
	closers []func() error
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i]()
	}
}

func openBackend(ctx context.Context, cfg config.Server, log *slog.Logger) (*backend, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("using postgres record store")
		return &backend{
			records: record.NewPostgres(db),
			audit:   auditpostgres.New(db),
			tx:      postgres.NewTxRunner(db),
			buckets: bucket.NewInMemoryBucketStore(),
			closers: []func() error{db.Close},
		}, nil
	case config.StoreRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		log.Info("using redis record store")
		return &backend{
			records: record.NewRedis(client.Client),
			audit:   auditmemory.NewInMemoryStore(),
			buckets: bucket.NewRedisBucketStore(client.Client),
			closers: []func() error{client.Close},
		}, nil
	case config.StoreMemory:
		log.Warn("using in-memory record store; records are lost on restart")
		return &backend{
			records: record.NewInMemoryStore(),
			audit:   auditmemory.NewInMemoryStore(),
			buckets: bucket.NewInMemoryBucketStore(),
		}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
