// Package record holds the Record Store backings. Every backing honors the
// same contract:
//
//   - Create fails with sentinel.ErrAlreadyUsed when the id exists and never
//     overwrites.
//   - FindByID fails with sentinel.ErrNotFound when absent.
//   - ListIDs returns ids in creation order; ids are never removed.
//   - MarkVerified fails with sentinel.ErrNotFound when absent and with
//     sentinel.ErrAlreadyUsed when already verified, returning the committed
//     record alongside the error so callers can echo it.
//
// There is no delete operation.
package record

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cipherledger/internal/ledger/models"
	id "cipherledger/pkg/domain"
	"cipherledger/pkg/platform/sentinel"
)

// InMemoryStore keeps records in a map with an append-only id log.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.RecordID]*models.Record
	order   []id.RecordID
	seq     uint64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.RecordID]*models.Record)}
}

func (s *InMemoryStore) Create(_ context.Context, rec *models.Record) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; ok {
		return nil, fmt.Errorf("record %s: %w", rec.ID, sentinel.ErrAlreadyUsed)
	}
	s.seq++
	stored := rec.Clone()
	stored.Sequence = s.seq
	stored.Verified = false
	stored.DisclosedValue = nil
	stored.ClassificationFlag = nil
	stored.VerifiedAt = nil
	s.records[rec.ID] = stored
	s.order = append(s.order, rec.ID)
	return stored.Clone(), nil
}

func (s *InMemoryStore) FindByID(_ context.Context, recordID id.RecordID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[recordID]
	if !ok {
		return nil, fmt.Errorf("record %s: %w", recordID, sentinel.ErrNotFound)
	}
	return rec.Clone(), nil
}

func (s *InMemoryStore) ListIDs(_ context.Context) ([]id.RecordID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]id.RecordID{}, s.order...), nil
}

func (s *InMemoryStore) MarkVerified(_ context.Context, recordID id.RecordID, value uint64, flag bool, now time.Time) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recordID]
	if !ok {
		return nil, fmt.Errorf("record %s: %w", recordID, sentinel.ErrNotFound)
	}
	if err := rec.ApplyDisclosure(value, flag, now); err != nil {
		return rec.Clone(), fmt.Errorf("%s: %w", err.Error(), sentinel.ErrAlreadyUsed)
	}
	return rec.Clone(), nil
}

// Ping always succeeds.
func (s *InMemoryStore) Ping(context.Context) error { return nil }
