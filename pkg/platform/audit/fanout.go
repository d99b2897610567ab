package audit

import (
	"context"
	"errors"
)

// Fanout emits every event to each emitter in order and joins their errors.
type Fanout []Emitter

func (f Fanout) Emit(ctx context.Context, event Event) error {
	var errs []error
	for _, e := range f {
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
