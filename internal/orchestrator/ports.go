package orchestrator

import (
	"context"

	"cipherledger/internal/ciphertext"
	"cipherledger/internal/disclosure"
	"cipherledger/internal/gateway"
	"cipherledger/internal/ledger/models"
	id "cipherledger/pkg/domain"
)

//go:generate mockgen -source=ports.go -destination=mocks/ports-mocks.go -package=mocks

// Gateway encrypts cleartexts. gateway.Local and gateway.Remote implement it.
type Gateway interface {
	Encrypt(ctx context.Context, encCtx ciphertext.Context, caller id.Identity, value uint64) (ciphertext.Handle, gateway.InclusionProof, error)
}

// Ledger is the durable state boundary. internal/ledger/client implements it
// over HTTP. Mutations carry an action token from the Authorizer.
type Ledger interface {
	SubmitRecord(ctx context.Context, token string, req models.SubmitRecordRequest) (*models.RecordCreated, error)
	SubmitDisclosureProof(ctx context.Context, token string, recordID id.RecordID, req models.SubmitDisclosureRequest) (*models.RecordVerified, error)
	ReadRecord(ctx context.Context, recordID id.RecordID) (*models.Record, error)
}

// ProofRequester obtains a disclosure from the decryption service.
type ProofRequester interface {
	RequestProof(ctx context.Context, encCtx ciphertext.Context, handles []ciphertext.Handle) (disclosure.ProofBundle, error)
}

// Authorizer obtains the caller's consent to a ledger action.
type Authorizer interface {
	Authorize(ctx context.Context, caller id.Identity, action string) (string, error)
}
