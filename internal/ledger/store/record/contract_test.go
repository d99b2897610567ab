package record_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/suite"

	"cipherledger/internal/ciphertext"
	"cipherledger/internal/ledger/models"
	id "cipherledger/pkg/domain"
	"cipherledger/pkg/platform/sentinel"
)

type recordStore interface {
	Create(ctx context.Context, rec *models.Record) (*models.Record, error)
	FindByID(ctx context.Context, recordID id.RecordID) (*models.Record, error)
	ListIDs(ctx context.Context) ([]id.RecordID, error)
	MarkVerified(ctx context.Context, recordID id.RecordID, value uint64, flag bool, now time.Time) (*models.Record, error)
}

// StoreContractSuite runs the Record Store contract against one backing.
// Embedding suites set store in SetupTest.
type StoreContractSuite struct {
	suite.Suite
	store recordStore
}

func testHandle(seed byte) ciphertext.Handle {
	h := make(ciphertext.Handle, ciphertext.HandleSize)
	h[0] = ciphertext.HandleVersion
	h[1] = 4
	for i := ciphertext.HeaderSize; i < len(h); i++ {
		h[i] = seed
	}
	return h
}

func newTestRecord(recordID string, seed byte) *models.Record {
	return &models.Record{
		ID:     id.RecordID(recordID),
		Handle: testHandle(seed),
		Metadata: models.Metadata{
			Fields:  map[string]string{"subject": "Hi"},
			Numbers: map[string]int64{"score": 73},
		},
		Creator:   "0xalice",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *StoreContractSuite) TestCreateThenFind() {
	ctx := context.Background()
	rec := newTestRecord("email-1", 7)

	created, err := s.store.Create(ctx, rec)
	s.Require().NoError(err)
	s.False(created.Verified)
	s.NotZero(created.Sequence)

	found, err := s.store.FindByID(ctx, "email-1")
	s.Require().NoError(err)
	s.False(found.Verified)
	s.Nil(found.DisclosedValue)
	s.Nil(found.ClassificationFlag)
	s.True(rec.Handle.Equal(found.Handle))
	s.Equal(rec.Metadata, found.Metadata)
	s.Equal(rec.Creator, found.Creator)
	s.True(rec.CreatedAt.Equal(found.CreatedAt))
	s.Equal(created.Sequence, found.Sequence)
}

func (s *StoreContractSuite) TestFindMissing() {
	_, err := s.store.FindByID(context.Background(), "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreContractSuite) TestDuplicateCreateDoesNotOverwrite() {
	ctx := context.Background()
	_, err := s.store.Create(ctx, newTestRecord("dup", 1))
	s.Require().NoError(err)

	_, err = s.store.Create(ctx, newTestRecord("dup", 2))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	found, err := s.store.FindByID(ctx, "dup")
	s.Require().NoError(err)
	s.True(testHandle(1).Equal(found.Handle))

	ids, err := s.store.ListIDs(ctx)
	s.Require().NoError(err)
	s.Equal([]id.RecordID{"dup"}, ids)
}

func (s *StoreContractSuite) TestConcurrentCreateExactlyOneWins() {
	ctx := context.Background()
	const goroutines = 50

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Create(ctx, newTestRecord("race", byte(i)))
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one create should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should conflict")
}

func (s *StoreContractSuite) TestListIDsInCreationOrder() {
	ctx := context.Background()
	want := []id.RecordID{"c", "a", "b"}
	var lastSeq uint64
	for i, recordID := range want {
		created, err := s.store.Create(ctx, newTestRecord(recordID.String(), byte(i)))
		s.Require().NoError(err)
		s.Greater(created.Sequence, lastSeq)
		lastSeq = created.Sequence
	}

	_, err := s.store.MarkVerified(ctx, "a", 10, false, time.Now())
	s.Require().NoError(err)

	ids, err := s.store.ListIDs(ctx)
	s.Require().NoError(err)
	s.Equal(want, ids)
}

func (s *StoreContractSuite) TestListIDsEmpty() {
	ids, err := s.store.ListIDs(context.Background())
	s.Require().NoError(err)
	s.Empty(ids)
}

func (s *StoreContractSuite) TestMarkVerified() {
	ctx := context.Background()
	_, err := s.store.MarkVerified(ctx, "missing", 1, true, time.Now())
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Create(ctx, newTestRecord("email-1", 3))
	s.Require().NoError(err)

	now := time.Now().UTC().Truncate(time.Microsecond)
	rec, err := s.store.MarkVerified(ctx, "email-1", 73, true, now)
	s.Require().NoError(err)
	s.True(rec.Verified)
	s.Equal(uint64(73), *rec.DisclosedValue)
	s.True(*rec.ClassificationFlag)
	s.True(now.Equal(*rec.VerifiedAt))

	committed, err := s.store.MarkVerified(ctx, "email-1", 12, false, now.Add(time.Minute))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	s.Require().NotNil(committed, "committed record is returned with the conflict")
	s.Equal(uint64(73), *committed.DisclosedValue)
	s.True(*committed.ClassificationFlag)

	found, err := s.store.FindByID(ctx, "email-1")
	s.Require().NoError(err)
	s.Equal(uint64(73), *found.DisclosedValue)
	s.True(testHandle(3).Equal(found.Handle), "handle is never reassigned")
}

func (s *StoreContractSuite) TestConcurrentMarkVerifiedExactlyOneApplies() {
	ctx := context.Background()
	_, err := s.store.Create(ctx, newTestRecord("verify-race", 9))
	s.Require().NoError(err)

	const goroutines = 30
	var wg sync.WaitGroup
	var applied, rejected atomic.Int32
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.MarkVerified(ctx, "verify-race", uint64(i), i%2 == 0, time.Now())
			switch {
			case err == nil:
				applied.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), applied.Load())
	s.Equal(int32(goroutines-1), rejected.Load())

	found, err := s.store.FindByID(ctx, "verify-race")
	s.Require().NoError(err)
	s.True(found.Verified)
	s.Require().NotNil(found.DisclosedValue)
	s.Require().NotNil(found.ClassificationFlag)
	s.Equal(*found.DisclosedValue%2 == 0, *found.ClassificationFlag, "value and flag are written together")
}

func (s *StoreContractSuite) TestReturnedRecordsAreCopies() {
	ctx := context.Background()
	_, err := s.store.Create(ctx, newTestRecord("copy", 5))
	s.Require().NoError(err)

	found, err := s.store.FindByID(ctx, "copy")
	s.Require().NoError(err)
	found.Handle[5] = 0xee
	found.Metadata.Fields["subject"] = "tampered"

	again, err := s.store.FindByID(ctx, "copy")
	s.Require().NoError(err)
	s.True(testHandle(5).Equal(again.Handle))
	s.Equal("Hi", again.Metadata.Fields["subject"])
}

func (s *StoreContractSuite) TestManyRecords() {
	ctx := context.Background()
	for i := range 20 {
		_, err := s.store.Create(ctx, newTestRecord(fmt.Sprintf("bulk-%02d", i), byte(i)))
		s.Require().NoError(err)
	}
	ids, err := s.store.ListIDs(ctx)
	s.Require().NoError(err)
	s.Len(ids, 20)
	s.Equal(id.RecordID("bulk-00"), ids[0])
	s.Equal(id.RecordID("bulk-19"), ids[19])
}
