package worker

import "fmt"

// DuplicateError reports an attempt to register a worker ID that already
// exists. Registration rejects duplicates rather than silently overwriting.
type DuplicateError struct {
	// ID is the conflicting worker ID.
	ID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("worker %q is already registered", e.ID)
}

// NotFoundError reports a lookup for a worker ID that is not registered.
type NotFoundError struct {
	// ID is the unknown worker ID.
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("worker %q is not registered", e.ID)
}
