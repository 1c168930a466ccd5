package dispatch

import "fmt"

// UnknownPrimaryError reports that the requested primary worker is not
// registered. It wraps the underlying registry lookup error.
type UnknownPrimaryError struct {
	ID  string
	err error
}

func (e *UnknownPrimaryError) Error() string {
	return fmt.Sprintf("unknown primary worker %q", e.ID)
}

func (e *UnknownPrimaryError) Unwrap() error { return e.err }
