package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	id "cipherledger/pkg/domain"
	audit "cipherledger/pkg/platform/audit"
	txcontext "cipherledger/pkg/platform/tx"
)

// Store implements audit.Store on the audit_events table. Append joins the
// caller's transaction when one is carried in the context, so a ledger
// mutation and its audit row commit together.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	return s.AppendWithID(ctx, uuid.New(), event)
}

// AppendWithID inserts an event under a fixed id. Used by the Kafka
// materializer; duplicate deliveries are ignored.
func (s *Store) AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			id, category, timestamp, action, record_id, actor,
			request_id, reason, disclosed_value, classification_flag
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`
	var disclosed sql.NullString
	if event.DisclosedValue != nil {
		disclosed = sql.NullString{String: strconv.FormatUint(*event.DisclosedValue, 10), Valid: true}
	}
	var flag sql.NullBool
	if event.ClassificationFlag != nil {
		flag = sql.NullBool{Bool: *event.ClassificationFlag, Valid: true}
	}
	_, err := txcontext.Or(ctx, s.db).ExecContext(ctx, query,
		eventID,
		string(event.Category()),
		event.Timestamp,
		event.Action,
		event.RecordID.String(),
		event.Actor.String(),
		event.RequestID,
		event.Reason,
		disclosed,
		flag,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByRecord(ctx context.Context, recordID id.RecordID) ([]audit.Event, error) {
	query := `
		SELECT timestamp, action, record_id, actor, request_id, reason,
			   disclosed_value, classification_flag
		FROM audit_events
		WHERE record_id = $1
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, recordID.String())
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event     audit.Event
			recID     string
			actor     string
			disclosed sql.NullString
			flag      sql.NullBool
		)
		if err := rows.Scan(&event.Timestamp, &event.Action, &recID, &actor,
			&event.RequestID, &event.Reason, &disclosed, &flag); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.RecordID = id.RecordID(recID)
		event.Actor = id.Identity(actor)
		if disclosed.Valid {
			v, err := strconv.ParseUint(disclosed.String, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parse disclosed value: %w", err)
			}
			event.DisclosedValue = &v
		}
		if flag.Valid {
			f := flag.Bool
			event.ClassificationFlag = &f
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
