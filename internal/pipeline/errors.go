package pipeline

import (
	"errors"
	"fmt"
)

// ErrNoIndex signals that no index is available to answer against. It is a
// client-correctable condition (add documents), not a system fault.
var ErrNoIndex = errors.New("no documents available for decisioning")

// ProcessingError wraps a provider or index fault that aborted one request.
// It carries the failing stage and the underlying cause; shared state is
// untouched when it occurs.
type ProcessingError struct {
	Stage string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing failed at %s: %v", e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}
