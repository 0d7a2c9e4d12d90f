package monitor

import (
	"errors"
	"fmt"

	"sla-service/internal/store"
)

var (
	// ErrDuplicateRecord is returned by Attach when the request already has an SLA.
	ErrDuplicateRecord = store.ErrDuplicateRecord
	// ErrInvalidRequest is returned for an empty request id.
	ErrInvalidRequest = errors.New("request id is required")
)

// PersistenceError reports a store failure from a state-changing operation.
type PersistenceError struct {
	Op        string
	RequestID string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: persistence failed: %v", e.Op, e.RequestID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
