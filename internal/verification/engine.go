// Package verification authenticates a disclosure someone else performed and
// commits it to the ledger. It never decrypts: a cleartext is accepted only
// with a signature proof that it is the decryption of exactly the handles
// stored for the record.
package verification

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cipherledger/internal/ciphertext"
	"cipherledger/internal/disclosure"
	"cipherledger/internal/ledger/models"
	id "cipherledger/pkg/domain"
	dErrors "cipherledger/pkg/domain-errors"
	"cipherledger/pkg/platform/sentinel"
	"cipherledger/pkg/requestcontext"
)

// Store is the slice of the Record Store the engine needs.
type Store interface {
	FindByID(ctx context.Context, recordID id.RecordID) (*models.Record, error)
	MarkVerified(ctx context.Context, recordID id.RecordID, value uint64, flag bool, now time.Time) (*models.Record, error)
}

// ProofVerifier checks a signature set over a digest. attest.Verifier
// implements it.
type ProofVerifier interface {
	Verify(digest, signatures []byte) error
}

// Result of a verify call. Applied is false when the record was already
// verified and the committed values are returned instead.
type Result struct {
	DisclosedValue     uint64
	ClassificationFlag bool
	Applied            bool
}

type Engine struct {
	store    Store
	proofs   ProofVerifier
	encCtx   ciphertext.Context
	classify Classifier
	tracer   trace.Tracer
}

func New(store Store, proofs ProofVerifier, encCtx ciphertext.Context, classify Classifier) *Engine {
	return &Engine{
		store:    store,
		proofs:   proofs,
		encCtx:   encCtx,
		classify: classify,
		tracer:   otel.Tracer("cipherledger/verification"),
	}
}

// Verify checks bundle against the record and marks it verified.
//
// An already verified record is never re-applied. If the bundle is a genuine
// disclosure of the committed value the committed result is echoed with
// Applied=false; anything else fails with CodeAlreadyVerified. Losing a race
// at the store is treated the same way.
func (e *Engine) Verify(ctx context.Context, recordID id.RecordID, bundle disclosure.ProofBundle) (Result, error) {
	ctx, span := e.tracer.Start(ctx, "verification.Verify",
		trace.WithAttributes(attribute.String("record.id", recordID.String())),
	)
	defer span.End()

	result, err := e.verify(ctx, recordID, bundle)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return Result{}, err
	}
	span.SetAttributes(attribute.Bool("applied", result.Applied))
	return result, nil
}

func (e *Engine) verify(ctx context.Context, recordID id.RecordID, bundle disclosure.ProofBundle) (Result, error) {
	rec, err := e.store.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Result{}, dErrors.New(dErrors.CodeNotFound, "record not found")
		}
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
	}

	value, authErr := e.authenticate(rec, bundle)
	if rec.Verified {
		if authErr == nil && committedValue(rec) == value {
			return committed(rec), nil
		}
		return Result{}, dErrors.New(dErrors.CodeAlreadyVerified, "record already verified")
	}
	if authErr != nil {
		return Result{}, authErr
	}

	flag := e.classify(value)
	updated, err := e.store.MarkVerified(ctx, recordID, value, flag, requestcontext.Now(ctx))
	switch {
	case err == nil:
		return Result{DisclosedValue: value, ClassificationFlag: flag, Applied: true}, nil
	case errors.Is(err, sentinel.ErrAlreadyUsed) && updated != nil:
		return committed(updated), nil
	case errors.Is(err, sentinel.ErrNotFound):
		return Result{}, dErrors.New(dErrors.CodeNotFound, "record not found")
	default:
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark record verified")
	}
}

// authenticate runs the handle, signature and decoding checks in that order.
func (e *Engine) authenticate(rec *models.Record, bundle disclosure.ProofBundle) (uint64, error) {
	expected := rec.Handles()
	if !ciphertext.EqualSequence(expected, bundle.Handles) {
		return 0, dErrors.New(dErrors.CodeHandleMismatch, "proof does not cover the record's ciphertext handles")
	}
	if err := e.proofs.Verify(bundle.Digest(e.encCtx), bundle.Signatures); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInvalidProof, "disclosure proof rejected")
	}
	widths := make([]ciphertext.Width, len(expected))
	for i, h := range expected {
		widths[i] = h.Width()
	}
	values, err := ciphertext.DecodeCleartexts(bundle.Cleartexts, widths)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeMalformedCleartext, "cannot decode disclosed cleartexts")
	}
	return values[0], nil
}

func committedValue(rec *models.Record) uint64 {
	if rec.DisclosedValue == nil {
		return 0
	}
	return *rec.DisclosedValue
}

func committed(rec *models.Record) Result {
	res := Result{DisclosedValue: committedValue(rec)}
	if rec.ClassificationFlag != nil {
		res.ClassificationFlag = *rec.ClassificationFlag
	}
	return res
}
