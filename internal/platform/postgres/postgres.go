// Package postgres opens the ledger database and runs store work inside
// transactions carried through the context (see pkg/platform/tx).
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	txcontext "cipherledger/pkg/platform/tx"
)

// Open connects with lib/pq and verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// TxRunner runs fn inside a SQL transaction stored in the context. Nested
// calls join the outer transaction.
type TxRunner struct {
	db *sql.DB
}

func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{db: db}
}

func (r *TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := txcontext.From(ctx); ok {
		return fn(ctx)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Schema is applied by Migrate. Records are append-only; there is no delete path.
const Schema = `
CREATE TABLE IF NOT EXISTS records (
	id                  TEXT PRIMARY KEY,
	seq                 BIGSERIAL UNIQUE NOT NULL,
	handle              BYTEA NOT NULL,
	metadata            JSONB NOT NULL,
	creator             TEXT NOT NULL,
	created_at          TIMESTAMPTZ NOT NULL,
	verified            BOOLEAN NOT NULL DEFAULT FALSE,
	disclosed_value     NUMERIC(20, 0),
	classification_flag BOOLEAN,
	verified_at         TIMESTAMPTZ,
	CONSTRAINT disclosure_all_or_nothing CHECK (
		(verified AND disclosed_value IS NOT NULL AND classification_flag IS NOT NULL AND verified_at IS NOT NULL)
		OR (NOT verified AND disclosed_value IS NULL AND classification_flag IS NULL AND verified_at IS NULL)
	)
);

CREATE TABLE IF NOT EXISTS audit_events (
	id                  UUID PRIMARY KEY,
	category            TEXT NOT NULL,
	timestamp           TIMESTAMPTZ NOT NULL,
	action              TEXT NOT NULL,
	record_id           TEXT NOT NULL,
	actor               TEXT NOT NULL DEFAULT '',
	request_id          TEXT NOT NULL DEFAULT '',
	reason              TEXT NOT NULL DEFAULT '',
	disclosed_value     NUMERIC(20, 0),
	classification_flag BOOLEAN
);

CREATE INDEX IF NOT EXISTS audit_events_record_idx ON audit_events (record_id, timestamp);
`

// Migrate applies Schema. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
