// Package sentinel holds the storage facts record and audit stores report.
// Services translate them into coded domain errors; stores never return
// pkg/domain-errors values themselves.
package sentinel

import "errors"

var (
	// ErrNotFound: no record under the requested id.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyUsed: the id is taken, or the record's disclosure is already
	// committed. Stores return the committed record alongside it when they can.
	ErrAlreadyUsed = errors.New("already used")
)
