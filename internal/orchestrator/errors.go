package orchestrator

import (
	"fmt"

	id "cipherledger/pkg/domain"
	dErrors "cipherledger/pkg/domain-errors"
)

// WorkflowError reports the state a workflow failed in. The wrapped error
// keeps its domain code, so dErrors.CodeOf and dErrors.IsBenignRace work on a
// WorkflowError directly.
type WorkflowError struct {
	Workflow string
	RecordID id.RecordID
	State    State
	Err      error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s workflow for %q failed while %s: %v", e.Workflow, e.RecordID, e.State, e.Err)
}

func (e *WorkflowError) Unwrap() error { return e.Err }

// Code is the error kind of the failure.
func (e *WorkflowError) Code() dErrors.Code { return dErrors.CodeOf(e.Err) }
