package disclosure

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"cipherledger/internal/attest"
	"cipherledger/internal/ciphertext"
	dErrors "cipherledger/pkg/domain-errors"
	"cipherledger/pkg/platform/httputil"
)

// DecryptRequest is the oracle wire request.
type DecryptRequest struct {
	ChainID       uint64              `json:"chain_id"`
	LedgerAddress string              `json:"ledger_address"`
	Handles       []ciphertext.Handle `json:"handles"`
}

// Requester asks one or more decryption services for a disclosure and merges
// their signature sets. The whole exchange runs under one timeout; running
// out of time, an unreachable service or a 5xx answer all surface as
// CodeProofTimeout so the caller may retry.
type Requester struct {
	urls    []string
	client  *http.Client
	timeout time.Duration
}

type RequesterOption func(*Requester)

func WithHTTPClient(c *http.Client) RequesterOption {
	return func(r *Requester) { r.client = c }
}

func WithTimeout(d time.Duration) RequesterOption {
	return func(r *Requester) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func NewRequester(urls []string, opts ...RequesterOption) *Requester {
	r := &Requester{
		client:  &http.Client{},
		timeout: 30 * time.Second,
	}
	for _, u := range urls {
		r.urls = append(r.urls, strings.TrimRight(u, "/"))
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Requester) RequestProof(ctx context.Context, encCtx ciphertext.Context, handles []ciphertext.Handle) (ProofBundle, error) {
	if len(r.urls) == 0 {
		return ProofBundle{}, dErrors.New(dErrors.CodeInternal, "no decryption service configured")
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req := DecryptRequest{ChainID: encCtx.ChainID, LedgerAddress: encCtx.LedgerAddress, Handles: handles}
	bundles := make([]ProofBundle, len(r.urls))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range r.urls {
		g.Go(func() error {
			status, err := httputil.Call(gctx, r.client, http.MethodPost, u+"/v1/decrypt", "", req, &bundles[i])
			if err == nil {
				return nil
			}
			if ctx.Err() != nil {
				return dErrors.Wrap(ctx.Err(), dErrors.CodeProofTimeout, "decryption proof timed out")
			}
			if status == 0 || status >= http.StatusInternalServerError {
				return dErrors.Wrap(err, dErrors.CodeProofTimeout, "decryption service unavailable")
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return ProofBundle{}, err
	}
	return merge(handles, bundles)
}

func merge(handles []ciphertext.Handle, bundles []ProofBundle) (ProofBundle, error) {
	sets := make([][]byte, len(bundles))
	for i, b := range bundles {
		if !ciphertext.EqualSequence(handles, b.Handles) || !bytes.Equal(bundles[0].Cleartexts, b.Cleartexts) {
			return ProofBundle{}, dErrors.New(dErrors.CodeInvalidProof, "decryption services disagree")
		}
		sets[i] = b.Signatures
	}
	merged, err := attest.MergeSets(sets...)
	if err != nil {
		if errors.Is(err, attest.ErrInvalidEncoding) {
			return ProofBundle{}, dErrors.Wrap(err, dErrors.CodeInvalidProof, "malformed signature set")
		}
		return ProofBundle{}, err
	}
	return ProofBundle{Handles: handles, Cleartexts: bundles[0].Cleartexts, Signatures: merged}, nil
}
