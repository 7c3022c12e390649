package alphavantage

import "fmt"

// FetchError reports a transport-level failure: connection error,
// timeout, unexpected status, or a body that is not JSON. The request
// never produced a usable payload. The client does not retry; whether a
// retry makes sense is the caller's decision.
type FetchError struct {
	// Op names the step that failed.
	Op string
	// Err is the underlying cause.
	Err error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FormatError reports a payload that passed transport but failed semantic
// validation: a provider-reported error, a missing time-series key, or an
// unparsable field. Retrying reproduces the same error deterministically,
// so callers should never retry on it.
type FormatError struct {
	// Message is the provider's error text verbatim, or a description of
	// the shape violation.
	Message string
	// Timestamp and Field identify the offending entry when a single
	// field failed to coerce. Empty for payload-level violations.
	Timestamp string
	Field     string
	// Err is the underlying parse error, if any.
	Err error
}

func (e *FormatError) Error() string {
	if e.Field != "" {
		if e.Err != nil {
			return fmt.Sprintf("parse %q at %s: %v", e.Field, e.Timestamp, e.Err)
		}
		return fmt.Sprintf("%s (%q at %s)", e.Message, e.Field, e.Timestamp)
	}
	return e.Message
}

func (e *FormatError) Unwrap() error { return e.Err }
