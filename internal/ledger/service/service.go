// Package service implements the ledger-facing operations: record submission,
// disclosure proof submission and the read-only views. It translates store
// sentinels into coded domain errors and records every state transition in
// the audit trail.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cipherledger/internal/ciphertext"
	"cipherledger/internal/disclosure"
	"cipherledger/internal/gateway"
	"cipherledger/internal/ledger/metrics"
	"cipherledger/internal/ledger/models"
	"cipherledger/internal/verification"
	id "cipherledger/pkg/domain"
	dErrors "cipherledger/pkg/domain-errors"
	audit "cipherledger/pkg/platform/audit"
	"cipherledger/pkg/platform/sentinel"
	"cipherledger/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, rec *models.Record) (*models.Record, error)
	FindByID(ctx context.Context, recordID id.RecordID) (*models.Record, error)
	ListIDs(ctx context.Context) ([]id.RecordID, error)
}

// InclusionChecker verifies the gateway's inclusion proof for a new handle.
type InclusionChecker interface {
	VerifyInclusion(encCtx ciphertext.Context, caller id.Identity, h ciphertext.Handle, proof gateway.InclusionProof) error
}

// Verifier is the verification engine.
type Verifier interface {
	Verify(ctx context.Context, recordID id.RecordID, bundle disclosure.ProofBundle) (verification.Result, error)
}

// TxRunner groups a store mutation with its audit append. Without one the
// store commits on its own and events are emitted after the commit.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type noTx struct{}

func (noTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type Service struct {
	store     Store
	inclusion InclusionChecker
	engine    Verifier
	encCtx    ciphertext.Context
	width     ciphertext.Width
	auditor   audit.Emitter
	tx        TxRunner
	atomic    bool
	logger    *slog.Logger
	metrics   *metrics.Metrics
	ping      func(ctx context.Context) error
}

type Option func(*Service)

func WithAuditor(a audit.Emitter) Option {
	return func(s *Service) { s.auditor = a }
}

func WithTxRunner(tx TxRunner) Option {
	return func(s *Service) {
		if tx != nil {
			s.tx = tx
			s.atomic = true
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithHealthCheck sets the probe behind HealthCheck, typically the store ping.
func WithHealthCheck(ping func(ctx context.Context) error) Option {
	return func(s *Service) { s.ping = ping }
}

// New builds the ledger service for one encryption context. width is the
// declared scalar width every submitted handle must carry.
func New(store Store, inclusion InclusionChecker, engine Verifier, encCtx ciphertext.Context, width ciphertext.Width, opts ...Option) *Service {
	s := &Service{
		store:     store,
		inclusion: inclusion,
		engine:    engine,
		encCtx:    encCtx,
		width:     width,
		tx:        noTx{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitRecord creates a record for the authenticated caller after checking
// the inclusion proof binds the handle to this ledger's context and to the
// caller.
func (s *Service) SubmitRecord(ctx context.Context, req models.SubmitRecordRequest) (*models.RecordCreated, error) {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller identity required")
	}
	recordID, err := id.ParseRecordID(req.ID)
	if err != nil {
		return nil, s.rejectSubmission(ctx, "", caller, err)
	}
	handle, err := ciphertext.ParseHandle(req.Handle)
	if err != nil {
		return nil, s.rejectSubmission(ctx, recordID, caller, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid ciphertext handle"))
	}
	if handle.Width() != s.width {
		return nil, s.rejectSubmission(ctx, recordID, caller,
			dErrors.New(dErrors.CodeBadRequest, "handle width "+handle.Width().String()+" does not match ledger scalar "+s.width.String()))
	}
	if err := s.inclusion.VerifyInclusion(s.encCtx, caller, handle, req.InclusionProof); err != nil {
		return nil, s.rejectSubmission(ctx, recordID, caller, err)
	}
	rec, err := models.NewRecord(recordID, handle, req.Metadata, caller, requestcontext.Now(ctx))
	if err != nil {
		return nil, s.rejectSubmission(ctx, recordID, caller, err)
	}

	event := audit.Event{
		Action:   string(audit.EventRecordCreated),
		RecordID: recordID,
		Actor:    caller,
	}
	var created *models.Record
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.store.Create(txCtx, rec)
		if err != nil || !s.atomic {
			return err
		}
		return s.emit(txCtx, event)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, s.rejectSubmission(ctx, recordID, caller, dErrors.New(dErrors.CodeAlreadyExists, "record already exists"))
		}
		s.logger.ErrorContext(ctx, "failed to create record",
			"request_id", requestcontext.RequestID(ctx),
			"record_id", recordID,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create record")
	}

	if !s.atomic {
		s.emitCommitted(ctx, event)
	}
	s.metrics.IncrementRecordsCreated()
	s.logger.InfoContext(ctx, "record created",
		"request_id", requestcontext.RequestID(ctx),
		"record_id", created.ID,
		"creator", caller,
		"sequence", created.Sequence,
	)
	return &models.RecordCreated{ID: created.ID, Creator: created.Creator, Sequence: created.Sequence}, nil
}

// SubmitDisclosureProof verifies a disclosure for the record and commits it.
// When the request omits handles the record's stored handles are used.
func (s *Service) SubmitDisclosureProof(ctx context.Context, rawID string, req models.SubmitDisclosureRequest) (*models.RecordVerified, error) {
	caller := requestcontext.Caller(ctx)
	recordID, err := id.ParseRecordID(rawID)
	if err != nil {
		return nil, err
	}
	bundle := disclosure.ProofBundle{
		Handles:    req.Handles,
		Cleartexts: req.Cleartexts,
		Signatures: req.Signatures,
	}
	if len(bundle.Handles) == 0 {
		rec, err := s.findRecord(ctx, recordID)
		if err != nil {
			return nil, err
		}
		bundle.Handles = rec.Handles()
	}

	var result verification.Result
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		result, err = s.engine.Verify(txCtx, recordID, bundle)
		if err != nil || !result.Applied || !s.atomic {
			return err
		}
		return s.emit(txCtx, verifiedEvent(recordID, caller, result))
	})
	if err != nil {
		kind := dErrors.CodeOf(err)
		s.metrics.IncrementVerification(metrics.OutcomeRejected, string(kind))
		if kind == dErrors.CodeInternal {
			s.logger.ErrorContext(ctx, "failed to verify disclosure",
				"request_id", requestcontext.RequestID(ctx),
				"record_id", recordID,
				"error", err,
			)
			return nil, err
		}
		s.logger.WarnContext(ctx, "disclosure proof rejected",
			"request_id", requestcontext.RequestID(ctx),
			"record_id", recordID,
			"kind", kind,
		)
		s.emitBestEffort(ctx, audit.Event{
			Action:   string(audit.EventProofRejected),
			RecordID: recordID,
			Actor:    caller,
			Reason:   string(kind),
		})
		return nil, err
	}

	if result.Applied {
		if !s.atomic {
			s.emitCommitted(ctx, verifiedEvent(recordID, caller, result))
		}
		s.metrics.IncrementVerification(metrics.OutcomeApplied, "")
		s.logger.InfoContext(ctx, "record verified",
			"request_id", requestcontext.RequestID(ctx),
			"record_id", recordID,
			"classification_flag", result.ClassificationFlag,
		)
	} else {
		s.metrics.IncrementVerification(metrics.OutcomeReplayed, "")
		s.emitBestEffort(ctx, audit.Event{
			Action:   string(audit.EventDisclosureReplayed),
			RecordID: recordID,
			Actor:    caller,
		})
	}
	return &models.RecordVerified{
		ID:                 recordID,
		ClassificationFlag: result.ClassificationFlag,
		DisclosedValue:     result.DisclosedValue,
		Applied:            result.Applied,
	}, nil
}

// ReadCiphertextHandle returns the record's handle.
func (s *Service) ReadCiphertextHandle(ctx context.Context, rawID string) (ciphertext.Handle, error) {
	recordID, err := id.ParseRecordID(rawID)
	if err != nil {
		return nil, err
	}
	rec, err := s.findRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return rec.Handle, nil
}

// ReadRecord returns a snapshot of the record.
func (s *Service) ReadRecord(ctx context.Context, rawID string) (*models.Record, error) {
	recordID, err := id.ParseRecordID(rawID)
	if err != nil {
		return nil, err
	}
	return s.findRecord(ctx, recordID)
}

// ListRecordIDs returns every id in creation order.
func (s *Service) ListRecordIDs(ctx context.Context) ([]id.RecordID, error) {
	ids, err := s.store.ListIDs(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list records")
	}
	return ids, nil
}

// HealthCheck reports whether the backing store answers.
func (s *Service) HealthCheck(ctx context.Context) bool {
	if s.ping == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "health check failed", "error", err)
		return false
	}
	return true
}

func (s *Service) findRecord(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	rec, err := s.store.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
	}
	return rec, nil
}

func (s *Service) rejectSubmission(ctx context.Context, recordID id.RecordID, caller id.Identity, err error) error {
	kind := dErrors.CodeOf(err)
	s.metrics.IncrementSubmissionRejected(string(kind))
	s.logger.WarnContext(ctx, "record submission rejected",
		"request_id", requestcontext.RequestID(ctx),
		"record_id", recordID,
		"kind", kind,
	)
	if kind == dErrors.CodeInvalidProof {
		s.emitBestEffort(ctx, audit.Event{
			Action:   string(audit.EventSubmissionRejected),
			RecordID: recordID,
			Actor:    caller,
			Reason:   string(kind),
		})
	}
	return err
}

func (s *Service) emit(ctx context.Context, event audit.Event) error {
	if s.auditor == nil {
		return nil
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditor.Emit(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

// emitCommitted records the event of a mutation the store already committed
// on its own. The mutation stands whether or not the event is recorded.
func (s *Service) emitCommitted(ctx context.Context, event audit.Event) {
	if err := s.emit(ctx, event); err != nil {
		s.metrics.IncrementAuditFailure(event.Action)
		s.logger.ErrorContext(ctx, "audit event lost for committed mutation",
			"request_id", requestcontext.RequestID(ctx),
			"record_id", event.RecordID,
			"action", event.Action,
			"error", err,
		)
	}
}

func verifiedEvent(recordID id.RecordID, caller id.Identity, result verification.Result) audit.Event {
	value, flag := result.DisclosedValue, result.ClassificationFlag
	return audit.Event{
		Action:             string(audit.EventRecordVerified),
		RecordID:           recordID,
		Actor:              caller,
		DisclosedValue:     &value,
		ClassificationFlag: &flag,
	}
}

// emitBestEffort records events that do not accompany a state change.
func (s *Service) emitBestEffort(ctx context.Context, event audit.Event) {
	if err := s.emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestcontext.RequestID(ctx),
			"action", event.Action,
			"error", err,
		)
	}
}
