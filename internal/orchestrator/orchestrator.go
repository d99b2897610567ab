// Package orchestrator drives the client side of the record lifecycle:
// encrypt-and-submit, and request-disclosure-and-verify. It is the only place
// that retries, and it retries only transient failures.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"cipherledger/internal/ciphertext"
	"cipherledger/internal/orchestrator/metrics"
	id "cipherledger/pkg/domain"
	dErrors "cipherledger/pkg/domain-errors"
	"cipherledger/pkg/requestcontext"
)

const (
	defaultMaxAttempts  = 4
	defaultProofTimeout = 45 * time.Second
	defaultConcurrency  = 4

	defaultWorkflowTimeout = 5 * time.Minute
)

type Orchestrator struct {
	gateway    Gateway
	ledger     Ledger
	proofs     ProofRequester
	authorizer Authorizer
	encCtx     ciphertext.Context

	identity     id.Identity
	observer     StateObserver
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	maxAttempts  int
	newBackOff   func() backoff.BackOff
	proofTimeout time.Duration
	concurrency  int

	workflowTimeout time.Duration

	mu          sync.Mutex
	flights     map[string]*flight
	disclosures singleflight.Group
}

type Option func(*Orchestrator)

// WithIdentity sets the identity used when a context carries no caller.
func WithIdentity(identity id.Identity) Option {
	return func(o *Orchestrator) { o.identity = identity }
}

func WithObserver(observer StateObserver) Option {
	return func(o *Orchestrator) {
		if observer != nil {
			o.observer = observer
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithMaxAttempts bounds how often one step runs, first try included.
func WithMaxAttempts(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithBackOff sets the policy between retries. newBackOff is called once per
// step.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(o *Orchestrator) {
		if newBackOff != nil {
			o.newBackOff = newBackOff
		}
	}
}

// WithProofTimeout bounds each attempt at obtaining a disclosure proof.
func WithProofTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.proofTimeout = d
		}
	}
}

// WithWorkflowTimeout bounds a shared disclosure execution, which outlives
// the context of the caller that started it while other callers wait on it.
func WithWorkflowTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.workflowTimeout = d
		}
	}
}

// WithConcurrency bounds RequestDisclosures.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

func New(gw Gateway, ledger Ledger, proofs ProofRequester, authorizer Authorizer, encCtx ciphertext.Context, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gateway:      gw,
		ledger:       ledger,
		proofs:       proofs,
		authorizer:   authorizer,
		encCtx:       encCtx,
		observer:     noopObserver{},
		logger:       slog.Default(),
		tracer:       otel.Tracer("cipherledger/orchestrator"),
		maxAttempts:  defaultMaxAttempts,
		newBackOff:   defaultBackOff,
		proofTimeout: defaultProofTimeout,
		concurrency:  defaultConcurrency,

		workflowTimeout: defaultWorkflowTimeout,
		flights:         make(map[string]*flight),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// retry runs op until it succeeds, fails with a non-transient kind, or the
// attempt budget runs out. The last transient error is returned when the
// context ends first, or the step's own transient kind when none occurred.
func (o *Orchestrator) retry(ctx context.Context, step State, op func(ctx context.Context) error) error {
	var last error
	policy := backoff.WithContext(backoff.WithMaxRetries(o.newBackOff(), uint64(o.maxAttempts-1)), ctx)
	err := backoff.RetryNotify(func() error {
		err := op(ctx)
		if err != nil && !dErrors.IsTransient(err) {
			return backoff.Permanent(err)
		}
		last = err
		return err
	}, policy, func(err error, wait time.Duration) {
		o.metrics.IncrementRetry(string(step))
		o.logger.WarnContext(ctx, "retrying transient failure",
			"request_id", requestcontext.RequestID(ctx),
			"step", step,
			"kind", dErrors.CodeOf(err),
			"wait", wait,
		)
	})
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if last != nil {
		return last
	}
	return cancelled(step, err)
}

// cancelled reports a workflow whose context ended during step. The proof
// step surfaces as ProofTimeout, every other step as GatewayUnavailable.
func cancelled(step State, err error) error {
	if step == StateAwaitingExternalProof {
		return dErrors.Wrap(err, dErrors.CodeProofTimeout, "workflow cancelled")
	}
	return dErrors.Wrap(err, dErrors.CodeGatewayUnavailable, "workflow cancelled")
}

// run tracks one workflow execution.
type run struct {
	o        *Orchestrator
	ctx      context.Context
	workflow string
	recordID id.RecordID
	state    State
	span     trace.Span
	start    time.Time
	track    func(State)
}

func (o *Orchestrator) begin(ctx context.Context, workflow string, recordID id.RecordID) (context.Context, *run) {
	ctx, span := o.tracer.Start(ctx, "orchestrator."+workflow,
		trace.WithAttributes(attribute.String("record.id", recordID.String())),
	)
	o.metrics.IncrementInFlight()
	return ctx, &run{
		o:        o,
		ctx:      ctx,
		workflow: workflow,
		recordID: recordID,
		state:    StateIdle,
		span:     span,
		start:    time.Now(),
	}
}

func (r *run) to(next State) {
	r.notify(next, nil)
}

func (r *run) notify(next State, err error) {
	t := Transition{Workflow: r.workflow, RecordID: r.recordID, From: r.state, To: next, Err: err}
	r.state = next
	if r.track != nil {
		r.track(next)
	}
	r.span.AddEvent(string(next))
	r.o.observer.OnTransition(r.ctx, t)
}

func (r *run) fail(err error) error {
	werr := &WorkflowError{Workflow: r.workflow, RecordID: r.recordID, State: r.state, Err: err}
	kind := dErrors.CodeOf(err)
	r.notify(StateFailed, werr)
	r.span.RecordError(err)
	r.span.SetStatus(codes.Error, string(kind))
	r.end(metrics.OutcomeFailed, string(kind))

	level := slog.LevelWarn
	if dErrors.IsBenignRace(err) {
		level = slog.LevelInfo
	}
	r.o.logger.Log(r.ctx, level, "workflow failed",
		"request_id", requestcontext.RequestID(r.ctx),
		"workflow", r.workflow,
		"record_id", r.recordID,
		"state", werr.State,
		"kind", kind,
		"error", err,
	)
	return werr
}

func (r *run) commit() {
	r.notify(StateCommitted, nil)
	r.end(metrics.OutcomeCommitted, "")
	r.o.logger.InfoContext(r.ctx, "workflow committed",
		"request_id", requestcontext.RequestID(r.ctx),
		"workflow", r.workflow,
		"record_id", r.recordID,
		"duration", time.Since(r.start),
	)
}

func (r *run) end(outcome, kind string) {
	r.o.metrics.ObserveWorkflow(r.workflow, outcome, kind, r.start)
	r.o.metrics.DecrementInFlight()
	r.span.End()
}
