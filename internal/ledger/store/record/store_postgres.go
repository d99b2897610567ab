package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"

	"cipherledger/internal/ciphertext"
	"cipherledger/internal/ledger/models"
	id "cipherledger/pkg/domain"
	"cipherledger/pkg/platform/sentinel"
	txcontext "cipherledger/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists records in the records table. Uniqueness comes from
// the primary key and the single transition from the verified = false guard
// on the UPDATE.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `id, seq, handle, metadata, creator, created_at,
	verified, disclosed_value, classification_flag, verified_at`

func (s *PostgresStore) Create(ctx context.Context, rec *models.Record) (*models.Record, error) {
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	query := `
		INSERT INTO records (id, handle, metadata, creator, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq
	`
	var seq int64
	err = txcontext.Or(ctx, s.db).QueryRowContext(ctx, query,
		rec.ID.String(),
		[]byte(rec.Handle),
		metadata,
		rec.Creator.String(),
		rec.CreatedAt,
	).Scan(&seq)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("record %s: %w", rec.ID, sentinel.ErrAlreadyUsed)
		}
		return nil, fmt.Errorf("insert record: %w", err)
	}
	created := rec.Clone()
	created.Sequence = uint64(seq)
	created.Verified = false
	created.DisclosedValue = nil
	created.ClassificationFlag = nil
	created.VerifiedAt = nil
	return created, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE id = $1`
	rec, err := scanRecord(txcontext.Or(ctx, s.db).QueryRowContext(ctx, query, recordID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", recordID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find record: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListIDs(ctx context.Context) ([]id.RecordID, error) {
	rows, err := txcontext.Or(ctx, s.db).QueryContext(ctx, `SELECT id FROM records ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	ids := []id.RecordID{}
	for rows.Next() {
		var recordID string
		if err := rows.Scan(&recordID); err != nil {
			return nil, fmt.Errorf("scan record id: %w", err)
		}
		ids = append(ids, id.RecordID(recordID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) MarkVerified(ctx context.Context, recordID id.RecordID, value uint64, flag bool, now time.Time) (*models.Record, error) {
	query := `
		UPDATE records
		SET verified = TRUE, disclosed_value = $2, classification_flag = $3, verified_at = $4
		WHERE id = $1 AND verified = FALSE
		RETURNING ` + recordColumns
	rec, err := scanRecord(txcontext.Or(ctx, s.db).QueryRowContext(ctx, query,
		recordID.String(),
		strconv.FormatUint(value, 10),
		flag,
		now,
	))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mark record verified: %w", err)
	}
	// Either absent or already verified.
	existing, findErr := s.FindByID(ctx, recordID)
	if findErr != nil {
		return nil, findErr
	}
	return existing, fmt.Errorf("record %s already verified: %w", recordID, sentinel.ErrAlreadyUsed)
}

// Ping checks the connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func scanRecord(row *sql.Row) (*models.Record, error) {
	var (
		rec        models.Record
		recordID   string
		seq        int64
		handle     []byte
		metadata   []byte
		creator    string
		disclosed  sql.NullString
		flag       sql.NullBool
		verifiedAt sql.NullTime
	)
	if err := row.Scan(&recordID, &seq, &handle, &metadata, &creator, &rec.CreatedAt,
		&rec.Verified, &disclosed, &flag, &verifiedAt); err != nil {
		return nil, err
	}
	h, err := ciphertext.ParseHandle(handle)
	if err != nil {
		return nil, fmt.Errorf("stored handle: %w", err)
	}
	if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
		return nil, fmt.Errorf("stored metadata: %w", err)
	}
	rec.ID = id.RecordID(recordID)
	rec.Sequence = uint64(seq)
	rec.Handle = h
	rec.Creator = id.Identity(creator)
	if disclosed.Valid {
		v, err := strconv.ParseUint(disclosed.String, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("stored disclosed value: %w", err)
		}
		rec.DisclosedValue = &v
	}
	if flag.Valid {
		f := flag.Bool
		rec.ClassificationFlag = &f
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		rec.VerifiedAt = &t
	}
	return &rec, nil
}
