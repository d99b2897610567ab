package orchestrator

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"cipherledger/internal/authz"
	"cipherledger/internal/disclosure"
	"cipherledger/internal/ledger/models"
	id "cipherledger/pkg/domain"
	dErrors "cipherledger/pkg/domain-errors"
	"cipherledger/pkg/requestcontext"
)

// RequestDisclosure obtains a disclosure proof for the record's handle and
// submits it for verification.
//
// Idle → FetchingHandle → AwaitingExternalProof → Verifying → Committed | Failed.
//
// An already verified record commits straight from FetchingHandle with the
// stored values and Applied=false. The caller comes from the context, falling
// back to WithIdentity.
//
// Concurrent calls by the same caller for the same id share one execution.
// The execution runs detached from any one caller's context, bounded by
// WithWorkflowTimeout, and is cancelled only when every waiting caller has
// gone. A caller whose context ends while others still wait returns at once.
func (o *Orchestrator) RequestDisclosure(ctx context.Context, recordID id.RecordID) (*models.RecordVerified, error) {
	identity := requestcontext.Caller(ctx)
	if identity.IsZero() {
		identity = o.identity
	}
	key := identity.String() + "\x00" + recordID.String()

	f, ch := o.join(ctx, key, identity, recordID)
	select {
	case res := <-ch:
		o.leave(key, f)
		return sharedResult(res)
	case <-ctx.Done():
		if o.leave(key, f) {
			// the execution is now cancelled and unwinds promptly
			return sharedResult(<-ch)
		}
		state := f.current()
		return nil, &WorkflowError{Workflow: WorkflowDisclose, RecordID: recordID, State: state, Err: cancelled(state, ctx.Err())}
	}
}

// flight is one shared disclosure execution and the callers waiting on it.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
	state   atomic.Value
}

func (f *flight) track(s State) { f.state.Store(s) }

func (f *flight) current() State {
	if s, ok := f.state.Load().(State); ok {
		return s
	}
	return StateIdle
}

func (o *Orchestrator) join(ctx context.Context, key string, identity id.Identity, recordID id.RecordID) (*flight, <-chan singleflight.Result) {
	o.mu.Lock()
	defer o.mu.Unlock()
	f, ok := o.flights[key]
	if !ok {
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.workflowTimeout)
		f = &flight{ctx: wctx, cancel: cancel}
		o.flights[key] = f
	}
	f.waiters++
	ch := o.disclosures.DoChan(key, func() (any, error) {
		return o.disclose(f.ctx, identity, recordID, f.track)
	})
	return f, ch
}

// leave drops one waiter and reports whether it was the last. The last waiter
// cancels the execution and forgets the key, so later callers start afresh.
func (o *Orchestrator) leave(key string, f *flight) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return false
	}
	f.cancel()
	if o.flights[key] == f {
		delete(o.flights, key)
		o.disclosures.Forget(key)
	}
	return true
}

// sharedResult hands each caller its own copy of a shared result.
func sharedResult(res singleflight.Result) (*models.RecordVerified, error) {
	if res.Err != nil {
		return nil, res.Err
	}
	result := *res.Val.(*models.RecordVerified)
	return &result, nil
}

func (o *Orchestrator) disclose(ctx context.Context, identity id.Identity, recordID id.RecordID, track func(State)) (*models.RecordVerified, error) {
	ctx, r := o.begin(ctx, WorkflowDisclose, recordID)
	r.track = track
	if recordID.IsZero() {
		return nil, r.fail(dErrors.New(dErrors.CodeBadRequest, "record id is required"))
	}

	r.to(StateFetchingHandle)
	var rec *models.Record
	err := o.retry(ctx, StateFetchingHandle, func(ctx context.Context) error {
		var err error
		rec, err = o.ledger.ReadRecord(ctx, recordID)
		return err
	})
	if err != nil {
		return nil, r.fail(err)
	}
	if rec.Verified {
		r.commit()
		return storedResult(rec), nil
	}
	if identity.IsZero() {
		return nil, r.fail(dErrors.New(dErrors.CodeUnauthorized, "caller identity required"))
	}

	r.to(StateAwaitingExternalProof)
	var bundle disclosure.ProofBundle
	err = o.retry(ctx, StateAwaitingExternalProof, func(ctx context.Context) error {
		proofCtx, cancel := context.WithTimeout(ctx, o.proofTimeout)
		defer cancel()
		var err error
		bundle, err = o.proofs.RequestProof(proofCtx, o.encCtx, rec.Handles())
		if err != nil && ctx.Err() == nil && errors.Is(proofCtx.Err(), context.DeadlineExceeded) &&
			!dErrors.HasCode(err, dErrors.CodeProofTimeout) {
			return dErrors.Wrap(err, dErrors.CodeProofTimeout, "decryption proof timed out")
		}
		return err
	})
	if err != nil {
		return nil, r.fail(err)
	}

	r.to(StateVerifying)
	token, err := o.authorizer.Authorize(ctx, identity, authz.ActionSubmitDisclosure)
	if err != nil {
		return nil, r.fail(err)
	}
	req := models.SubmitDisclosureRequest{
		Handles:    bundle.Handles,
		Cleartexts: bundle.Cleartexts,
		Signatures: bundle.Signatures,
	}
	var verified *models.RecordVerified
	err = o.retry(ctx, StateVerifying, func(ctx context.Context) error {
		var err error
		verified, err = o.ledger.SubmitDisclosureProof(ctx, token, recordID, req)
		return err
	})
	if err != nil {
		return nil, r.fail(err)
	}
	r.commit()
	return verified, nil
}

func storedResult(rec *models.Record) *models.RecordVerified {
	res := &models.RecordVerified{ID: rec.ID}
	if rec.DisclosedValue != nil {
		res.DisclosedValue = *rec.DisclosedValue
	}
	if rec.ClassificationFlag != nil {
		res.ClassificationFlag = *rec.ClassificationFlag
	}
	return res
}

// DisclosureOutcome is one entry of a RequestDisclosures batch.
type DisclosureOutcome struct {
	RecordID id.RecordID
	Result   *models.RecordVerified
	Err      error
}

// RequestDisclosures runs RequestDisclosure for every id, at most
// WithConcurrency at a time. One failure does not stop the others. Outcomes
// are returned in input order.
func (o *Orchestrator) RequestDisclosures(ctx context.Context, ids []id.RecordID) []DisclosureOutcome {
	outcomes := make([]DisclosureOutcome, len(ids))
	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, recordID := range ids {
		g.Go(func() error {
			res, err := o.RequestDisclosure(ctx, recordID)
			outcomes[i] = DisclosureOutcome{RecordID: recordID, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}
