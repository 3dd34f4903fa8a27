package gme

import "fmt"

// AuthenticationError reports rejected credentials. It is not
// retriable without user action, so callers abort the whole fetch.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	if e.Reason == "" {
		return "authentication failed"
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// DecodeError reports a payload that stayed malformed past every
// decode fallback. A re-fetch may succeed.
type DecodeError struct {
	Stage string // transform that gave up: "base64", "zip", "json"
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode failed at %s stage: %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RequestError wraps transport or upstream status failures on one data
// call. Retriable by re-fetch; the HTTP layer has already retried
// transient statuses with backoff.
type RequestError struct {
	Segment  string
	DataName string
	Status   int
	Err      error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("request %s/%s failed with status %d", e.Segment, e.DataName, e.Status)
	}
	return fmt.Sprintf("request %s/%s failed: %v", e.Segment, e.DataName, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }
