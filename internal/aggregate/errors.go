package aggregate

import "fmt"

// ExecutionError reports a fatal primary worker failure. Secondary failures
// never surface as ExecutionError; they are absorbed and logged.
type ExecutionError struct {
	WorkerID string
	err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("primary worker %q failed: %v", e.WorkerID, e.err)
}

func (e *ExecutionError) Unwrap() error { return e.err }
