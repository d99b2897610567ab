package orchestrator

import (
	"context"

	"github.com/google/uuid"

	"cipherledger/internal/authz"
	"cipherledger/internal/ciphertext"
	"cipherledger/internal/gateway"
	"cipherledger/internal/ledger/models"
	id "cipherledger/pkg/domain"
	dErrors "cipherledger/pkg/domain-errors"
)

type submitOptions struct {
	recordID id.RecordID
}

type SubmitOption func(*submitOptions)

// WithRecordID submits under a chosen id instead of a fresh UUID.
func WithRecordID(recordID id.RecordID) SubmitOption {
	return func(so *submitOptions) { so.recordID = recordID }
}

// CreateEncryptedRecord encrypts cleartext for identity and submits the
// resulting record.
//
// Idle → Encrypting → Submitting → Committed | Failed.
//
// A duplicate id fails with CodeAlreadyExists, except when an earlier attempt
// of this same call already committed the record and only its response was
// lost.
func (o *Orchestrator) CreateEncryptedRecord(ctx context.Context, cleartext uint64, metadata models.Metadata, identity id.Identity, opts ...SubmitOption) (*models.RecordCreated, error) {
	so := submitOptions{recordID: id.RecordID(uuid.NewString())}
	for _, opt := range opts {
		opt(&so)
	}
	ctx, r := o.begin(ctx, WorkflowSubmit, so.recordID)
	if identity.IsZero() {
		return nil, r.fail(dErrors.New(dErrors.CodeUnauthorized, "caller identity required"))
	}

	r.to(StateEncrypting)
	var (
		handle ciphertext.Handle
		proof  gateway.InclusionProof
	)
	err := o.retry(ctx, StateEncrypting, func(ctx context.Context) error {
		var err error
		handle, proof, err = o.gateway.Encrypt(ctx, o.encCtx, identity, cleartext)
		return err
	})
	if err != nil {
		return nil, r.fail(err)
	}

	r.to(StateSubmitting)
	token, err := o.authorizer.Authorize(ctx, identity, authz.ActionSubmitRecord)
	if err != nil {
		return nil, r.fail(err)
	}
	req := models.SubmitRecordRequest{
		ID:             so.recordID.String(),
		Handle:         handle,
		InclusionProof: proof,
		Metadata:       metadata,
	}
	var created *models.RecordCreated
	attempts := 0
	err = o.retry(ctx, StateSubmitting, func(ctx context.Context) error {
		attempts++
		var err error
		created, err = o.ledger.SubmitRecord(ctx, token, req)
		if attempts > 1 && dErrors.HasCode(err, dErrors.CodeAlreadyExists) {
			if rec, readErr := o.ledger.ReadRecord(ctx, so.recordID); readErr == nil &&
				rec.Creator == identity && rec.Handle.Equal(handle) {
				created = &models.RecordCreated{ID: rec.ID, Creator: rec.Creator, Sequence: rec.Sequence}
				return nil
			}
		}
		return err
	})
	if err != nil {
		return nil, r.fail(err)
	}
	r.commit()
	return created, nil
}
