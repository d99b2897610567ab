package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cipherledger/internal/ciphertext"
	id "cipherledger/pkg/domain"
	dErrors "cipherledger/pkg/domain-errors"
	"cipherledger/pkg/platform/circuit"
	"cipherledger/pkg/platform/httputil"
)

// EncryptRequest is the relayer wire request.
type EncryptRequest struct {
	ChainID       uint64 `json:"chain_id"`
	LedgerAddress string `json:"ledger_address"`
	Caller        string `json:"caller"`
	Value         uint64 `json:"value,string"`
}

// EncryptResponse is the relayer wire response.
type EncryptResponse struct {
	Handle         ciphertext.Handle `json:"handle"`
	InclusionProof InclusionProof    `json:"inclusion_proof"`
}

// Remote calls an encryption relayer over HTTP. Unreachable relayers and 5xx
// answers count against a circuit breaker and surface as
// CodeGatewayUnavailable; coded 4xx answers (for example an out of range
// value) pass through unchanged.
type Remote struct {
	baseURL string
	client  *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type RemoteOption func(*Remote)

func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *Remote) { r.client = c }
}

func WithBreaker(b *circuit.Breaker) RemoteOption {
	return func(r *Remote) { r.breaker = b }
}

func WithLogger(l *slog.Logger) RemoteOption {
	return func(r *Remote) { r.logger = l }
}

func NewRemote(baseURL string, opts ...RemoteOption) *Remote {
	r := &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		breaker: circuit.New("gateway"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Remote) Encrypt(ctx context.Context, encCtx ciphertext.Context, caller id.Identity, value uint64) (ciphertext.Handle, InclusionProof, error) {
	if !r.breaker.Allow() {
		return nil, nil, dErrors.New(dErrors.CodeGatewayUnavailable, "gateway circuit open")
	}
	req := EncryptRequest{
		ChainID:       encCtx.ChainID,
		LedgerAddress: encCtx.LedgerAddress,
		Caller:        caller.String(),
		Value:         value,
	}
	var resp EncryptResponse
	status, err := httputil.Call(ctx, r.client, http.MethodPost, r.baseURL+"/v1/encrypt", "", req, &resp)
	switch {
	case err != nil && ctx.Err() != nil:
		return nil, nil, dErrors.Wrap(ctx.Err(), dErrors.CodeGatewayUnavailable, "encrypt cancelled")
	case err != nil && (status == 0 || status >= http.StatusInternalServerError):
		r.recordFailure(ctx, err)
		return nil, nil, dErrors.Wrap(err, dErrors.CodeGatewayUnavailable, "gateway unreachable")
	case err != nil:
		r.recordSuccess(ctx)
		return nil, nil, err
	}
	if len(resp.Handle) == 0 || len(resp.InclusionProof) == 0 {
		r.recordFailure(ctx, nil)
		return nil, nil, dErrors.New(dErrors.CodeGatewayUnavailable, "gateway returned an empty handle")
	}
	r.recordSuccess(ctx)
	return resp.Handle, resp.InclusionProof, nil
}

func (r *Remote) recordFailure(ctx context.Context, err error) {
	if _, change := r.breaker.RecordFailure(); change.Opened {
		r.logger.WarnContext(ctx, "gateway circuit opened", "breaker", r.breaker.Name(), "error", err)
	}
}

func (r *Remote) recordSuccess(ctx context.Context) {
	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.logger.InfoContext(ctx, "gateway circuit closed", "breaker", r.breaker.Name())
	}
}
