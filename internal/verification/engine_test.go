package verification

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cipherledger/internal/attest"
	"cipherledger/internal/ciphertext"
	"cipherledger/internal/disclosure"
	"cipherledger/internal/ledger/models"
	"cipherledger/internal/ledger/store/record"
	"cipherledger/internal/sealing"
	id "cipherledger/pkg/domain"
	dErrors "cipherledger/pkg/domain-errors"
	"cipherledger/pkg/platform/sentinel"
)

type EngineSuite struct {
	suite.Suite
	encCtx  ciphertext.Context
	keyring *sealing.Keyring
	oracle  *attest.Signer
	store   *record.InMemoryStore
	engine  *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	s.Require().NoError(err)
	s.oracle = attest.NewSigner(priv)
	verifier, err := attest.NewVerifier(1, s.oracle.PublicKey())
	s.Require().NoError(err)

	s.encCtx = ciphertext.Context{ChainID: 31337, LedgerAddress: "spam-ledger"}
	s.keyring = sealing.NewKeyring([]byte("network-secret"))
	s.store = record.NewInMemoryStore()
	s.engine = New(s.store, verifier, s.encCtx, AtLeast(70))
}

func (s *EngineSuite) createRecord(recordID string, value uint64) *models.Record {
	h, err := s.keyring.Seal(s.encCtx, ciphertext.Uint32, value)
	s.Require().NoError(err)
	rec, err := models.NewRecord(id.RecordID(recordID), h, models.Metadata{
		Fields:  map[string]string{"subject": "Hi"},
		Numbers: map[string]int64{"score": int64(value)},
	}, "0xalice", time.Now())
	s.Require().NoError(err)
	created, err := s.store.Create(context.Background(), rec)
	s.Require().NoError(err)
	return created
}

// disclose plays the decryption service: open the handle and sign the result.
func (s *EngineSuite) disclose(rec *models.Record) disclosure.ProofBundle {
	v, err := s.keyring.Open(s.encCtx, rec.Handle)
	s.Require().NoError(err)
	return s.sign(rec.Handles(), ciphertext.EncodeCleartexts(v), s.oracle)
}

func (s *EngineSuite) sign(handles []ciphertext.Handle, cleartexts []byte, signer *attest.Signer) disclosure.ProofBundle {
	b := disclosure.ProofBundle{Handles: handles, Cleartexts: cleartexts}
	b.Signatures = signer.Sign(b.Digest(s.encCtx))
	return b
}

func (s *EngineSuite) TestRoundTripAcrossDomain() {
	for _, x := range []uint64{0, 57, 100} {
		s.Run(fmt.Sprintf("value %d", x), func() {
			rec := s.createRecord(fmt.Sprintf("rt-%d", x), x)
			res, err := s.engine.Verify(context.Background(), rec.ID, s.disclose(rec))
			s.Require().NoError(err)
			s.Equal(x, res.DisclosedValue)
			s.Equal(x >= 70, res.ClassificationFlag)
			s.True(res.Applied)

			found, err := s.store.FindByID(context.Background(), rec.ID)
			s.Require().NoError(err)
			s.Equal(x, *found.DisclosedValue)
		})
	}
}

func (s *EngineSuite) TestSpamScenario() {
	ctx := context.Background()
	rec := s.createRecord("email-1", 73)

	before, err := s.store.FindByID(ctx, "email-1")
	s.Require().NoError(err)
	s.False(before.Verified)
	s.Nil(before.DisclosedValue)

	res, err := s.engine.Verify(ctx, "email-1", s.disclose(rec))
	s.Require().NoError(err)
	s.Equal(uint64(73), res.DisclosedValue)
	s.True(res.ClassificationFlag)

	after, err := s.store.FindByID(ctx, "email-1")
	s.Require().NoError(err)
	s.True(after.Verified)
	s.Equal(uint64(73), *after.DisclosedValue)
	s.True(*after.ClassificationFlag)
}

func (s *EngineSuite) TestSecondVerifyIsIdempotent() {
	ctx := context.Background()
	rec := s.createRecord("twice", 42)
	bundle := s.disclose(rec)

	first, err := s.engine.Verify(ctx, rec.ID, bundle)
	s.Require().NoError(err)
	s.True(first.Applied)

	stored, err := s.store.FindByID(ctx, rec.ID)
	s.Require().NoError(err)

	second, err := s.engine.Verify(ctx, rec.ID, bundle)
	s.Require().NoError(err)
	s.False(second.Applied)
	s.Equal(first.DisclosedValue, second.DisclosedValue)
	s.Equal(first.ClassificationFlag, second.ClassificationFlag)

	again, err := s.store.FindByID(ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(stored.VerifiedAt, again.VerifiedAt, "no second mutation")
}

func (s *EngineSuite) TestVerifiedRecordRejectsNonGenuineReplay() {
	ctx := context.Background()
	rec := s.createRecord("replay", 10)
	_, err := s.engine.Verify(ctx, rec.ID, s.disclose(rec))
	s.Require().NoError(err)

	forged := s.sign(rec.Handles(), ciphertext.EncodeCleartexts(99), s.forger())
	_, err = s.engine.Verify(ctx, rec.ID, forged)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyVerified))

	_, err = s.engine.Verify(ctx, rec.ID, disclosure.ProofBundle{})
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyVerified))
}

func (s *EngineSuite) TestWronglySignedProofNeverMutates() {
	ctx := context.Background()
	rec := s.createRecord("bad-sig", 73)

	forged := s.sign(rec.Handles(), ciphertext.EncodeCleartexts(5), s.forger())
	_, err := s.engine.Verify(ctx, rec.ID, forged)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidProof))

	// Genuine signature over different cleartexts than the bundle carries.
	genuine := s.disclose(rec)
	genuine.Cleartexts = ciphertext.EncodeCleartexts(5)
	_, err = s.engine.Verify(ctx, rec.ID, genuine)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidProof))

	found, err := s.store.FindByID(ctx, rec.ID)
	s.Require().NoError(err)
	s.False(found.Verified)

	res, err := s.engine.Verify(ctx, rec.ID, s.disclose(rec))
	s.Require().NoError(err, "a valid proof still succeeds afterwards")
	s.Equal(uint64(73), res.DisclosedValue)
}

func (s *EngineSuite) TestHandleMismatch() {
	ctx := context.Background()
	rec := s.createRecord("mismatch", 1)
	other := s.createRecord("other", 1)

	cases := map[string][]ciphertext.Handle{
		"different handle": other.Handles(),
		"no handles":       nil,
		"extra handle":     {rec.Handle, other.Handle},
	}
	for name, handles := range cases {
		s.Run(name, func() {
			b := s.sign(handles, ciphertext.EncodeCleartexts(1), s.oracle)
			_, err := s.engine.Verify(ctx, rec.ID, b)
			s.True(dErrors.HasCode(err, dErrors.CodeHandleMismatch))
		})
	}
}

func (s *EngineSuite) TestProofFromOtherContextRejected() {
	rec := s.createRecord("ctx", 7)
	otherCtx := ciphertext.Context{ChainID: 1, LedgerAddress: "spam-ledger"}
	b := disclosure.ProofBundle{Handles: rec.Handles(), Cleartexts: ciphertext.EncodeCleartexts(7)}
	b.Signatures = s.oracle.Sign(b.Digest(otherCtx))

	_, err := s.engine.Verify(context.Background(), rec.ID, b)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidProof))
}

func (s *EngineSuite) TestMalformedCleartext() {
	ctx := context.Background()
	rec := s.createRecord("malformed", 1)

	tooWide := make([]byte, ciphertext.WordSize)
	tooWide[ciphertext.WordSize-5] = 1 // 2^32 does not fit uint32
	cases := map[string][]byte{
		"short":        {1, 2, 3},
		"two words":    ciphertext.EncodeCleartexts(1, 2),
		"out of width": tooWide,
	}
	for name, cleartexts := range cases {
		s.Run(name, func() {
			_, err := s.engine.Verify(ctx, rec.ID, s.sign(rec.Handles(), cleartexts, s.oracle))
			s.True(dErrors.HasCode(err, dErrors.CodeMalformedCleartext))
		})
	}
}

func (s *EngineSuite) TestNotFound() {
	_, err := s.engine.Verify(context.Background(), "missing", disclosure.ProofBundle{})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *EngineSuite) TestConcurrentVerifyAppliesOnce() {
	ctx := context.Background()
	rec := s.createRecord("concurrent", 88)
	bundle := s.disclose(rec)

	const goroutines = 20
	var wg sync.WaitGroup
	var applied, echoed atomic.Int32
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.engine.Verify(ctx, rec.ID, bundle)
			if err != nil {
				return
			}
			if res.Applied {
				applied.Add(1)
			} else {
				echoed.Add(1)
			}
			s.Equal(uint64(88), res.DisclosedValue)
		}()
	}
	wg.Wait()

	s.Equal(int32(1), applied.Load())
	s.Equal(int32(goroutines-1), echoed.Load())
}

func (s *EngineSuite) TestLostRaceReturnsCommittedValues() {
	rec := s.createRecord("race", 20)
	winner := rec.Clone()
	s.Require().NoError(winner.ApplyDisclosure(20, false, time.Now()))

	engine := New(&racingStore{InMemoryStore: s.store, committed: winner}, s.engine.proofs, s.encCtx, AtLeast(70))
	res, err := engine.Verify(context.Background(), rec.ID, s.disclose(rec))
	s.Require().NoError(err)
	s.False(res.Applied)
	s.Equal(uint64(20), res.DisclosedValue)
	s.False(res.ClassificationFlag)
}

func (s *EngineSuite) forger() *attest.Signer {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	s.Require().NoError(err)
	return attest.NewSigner(priv)
}

// racingStore reports that another caller committed first.
type racingStore struct {
	*record.InMemoryStore
	committed *models.Record
}

func (r *racingStore) MarkVerified(context.Context, id.RecordID, uint64, bool, time.Time) (*models.Record, error) {
	return r.committed.Clone(), fmt.Errorf("lost race: %w", sentinel.ErrAlreadyUsed)
}

func TestAtLeast(t *testing.T) {
	spam := AtLeast(70)
	for v, want := range map[uint64]bool{0: false, 69: false, 70: true, 73: true, 100: true} {
		if got := spam(v); got != want {
			t.Errorf("AtLeast(70)(%d) = %v, want %v", v, got, want)
		}
	}
}
