package orchestrator

import (
	"context"

	id "cipherledger/pkg/domain"
)

// State is a step of a workflow.
type State string

const (
	StateIdle                  State = "idle"
	StateEncrypting            State = "encrypting"
	StateSubmitting            State = "submitting"
	StateFetchingHandle        State = "fetching_handle"
	StateAwaitingExternalProof State = "awaiting_external_proof"
	StateVerifying             State = "verifying"
	StateCommitted             State = "committed"
	StateFailed                State = "failed"
)

// Terminal reports whether no further transition follows.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateFailed
}

// Workflow names.
const (
	WorkflowSubmit   = "submit"
	WorkflowDisclose = "disclose"
)

// Transition is one observed state change. Err is set only on the move to
// StateFailed.
type Transition struct {
	Workflow string
	RecordID id.RecordID
	From     State
	To       State
	Err      error
}

// StateObserver receives every transition in order, on the goroutine running
// the workflow. A UI shows its pending indicator while the disclose workflow
// sits in StateAwaitingExternalProof.
type StateObserver interface {
	OnTransition(ctx context.Context, t Transition)
}

// ObserverFunc adapts a function to StateObserver.
type ObserverFunc func(ctx context.Context, t Transition)

func (f ObserverFunc) OnTransition(ctx context.Context, t Transition) { f(ctx, t) }

type noopObserver struct{}

func (noopObserver) OnTransition(context.Context, Transition) {}
