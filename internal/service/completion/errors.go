package completion

import "fmt"

// TransportError wraps failures that never produced a provider answer:
// connection errors, timeouts, cancelled contexts.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
