package spoolman

import "fmt"

// TransportError indicates a network or HTTP failure reaching Spoolman.
// A fetch-time TransportError aborts the whole sync cycle.
type TransportError struct {
	// URL is the endpoint that failed.
	URL string
	// Status is the HTTP status code, zero for connection-level failures.
	Status int
	// Err is the underlying error, nil for pure HTTP status failures.
	Err error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("spoolman: HTTP %d from %s", e.Status, e.URL)
	}
	return fmt.Sprintf("spoolman: request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SchemaError indicates that a Spoolman response could not be parsed into
// the expected record shape.
type SchemaError struct {
	// URL is the endpoint whose response failed to parse.
	URL string
	// Err is the underlying decode error.
	Err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("spoolman: invalid response from %s: %v", e.URL, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }
