// Package client calls the ledger HTTP API. Error bodies come back as the
// ledger's coded errors; an unreachable ledger or an uncoded server failure
// surfaces as CodeGatewayUnavailable so the orchestrator may retry it.
package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cipherledger/internal/ciphertext"
	"cipherledger/internal/ledger/models"
	id "cipherledger/pkg/domain"
	dErrors "cipherledger/pkg/domain-errors"
	"cipherledger/pkg/platform/httputil"
)

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitRecord posts a new record. token is an action token for
// authz.ActionSubmitRecord.
func (c *Client) SubmitRecord(ctx context.Context, token string, req models.SubmitRecordRequest) (*models.RecordCreated, error) {
	var out models.RecordCreated
	if err := c.call(ctx, http.MethodPost, "/records", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitDisclosureProof posts a disclosure for recordID. token is an action
// token for authz.ActionSubmitDisclosure.
func (c *Client) SubmitDisclosureProof(ctx context.Context, token string, recordID id.RecordID, req models.SubmitDisclosureRequest) (*models.RecordVerified, error) {
	var out models.RecordVerified
	if err := c.call(ctx, http.MethodPost, "/records/"+url.PathEscape(recordID.String())+"/disclosure", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ReadRecord(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	var out models.Record
	if err := c.call(ctx, http.MethodGet, "/records/"+url.PathEscape(recordID.String()), "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ReadCiphertextHandle(ctx context.Context, recordID id.RecordID) (ciphertext.Handle, error) {
	var out models.HandleResponse
	if err := c.call(ctx, http.MethodGet, "/records/"+url.PathEscape(recordID.String())+"/handle", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Handle, nil
}

func (c *Client) ListRecordIDs(ctx context.Context) ([]id.RecordID, error) {
	var out models.ListResponse
	if err := c.call(ctx, http.MethodGet, "/records", "", nil, &out); err != nil {
		return nil, err
	}
	ids := make([]id.RecordID, len(out.IDs))
	for i, raw := range out.IDs {
		ids[i] = id.RecordID(raw)
	}
	return ids, nil
}

// Health reports whether the ledger answers its liveness probe.
func (c *Client) Health(ctx context.Context) bool {
	var out models.HealthResponse
	if err := c.call(ctx, http.MethodGet, "/healthz", "", nil, &out); err != nil {
		return false
	}
	return out.OK
}

func (c *Client) call(ctx context.Context, method, path, token string, in, out any) error {
	status, err := httputil.Call(ctx, c.http, method, c.baseURL+path, token, in, out)
	if err == nil {
		return nil
	}
	switch {
	case status == 0:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return dErrors.Wrap(ctxErr, dErrors.CodeGatewayUnavailable, "ledger request cancelled")
		}
		return dErrors.Wrap(err, dErrors.CodeGatewayUnavailable, "ledger unreachable")
	case status >= http.StatusInternalServerError && dErrors.CodeOf(err) == dErrors.CodeInternal:
		return dErrors.Wrap(err, dErrors.CodeGatewayUnavailable, "ledger unavailable")
	case status >= 200 && status < 300:
		return dErrors.Wrap(err, dErrors.CodeInternal, "unreadable ledger response")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "ledger request failed")
}
