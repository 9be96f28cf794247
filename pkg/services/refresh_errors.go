package services

import "fmt"

// OracleError means the oracle could not be reached or answered with a
// provider-level error. Nothing was written.
type OracleError struct {
	Message string // provider's message, safe to show to the caller
	Err     error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle request failed: %s", e.Message)
}

func (e *OracleError) Unwrap() error {
	return e.Err
}

// ResponseShapeError means the oracle answered but its text held no parseable
// JSON array. Raw is the concatenated response text for diagnosis. Nothing was written.
type ResponseShapeError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *ResponseShapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ResponseShapeError) Unwrap() error {
	return e.Err
}
