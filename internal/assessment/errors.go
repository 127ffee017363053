package assessment

import (
	"errors"
	"fmt"
)

// ErrInFlight is returned by Submit when the form already has an outstanding submission. No request
// is sent in that case.
var ErrInFlight = errors.New("assessment already in flight")

// RequestFailure means the proxy endpoint did not accept the request: either it answered with a
// non-success status, or the request never got a response.
type RequestFailure struct {
	StatusCode int
	Status     string

	// Err is set when no response was received.
	Err error
}

func (e *RequestFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request failed: %v", e.Err)
	}
	return fmt.Sprintf("request failed: %s", e.Status)
}

func (e *RequestFailure) Unwrap() error {
	return e.Err
}

// StreamReadFailure means the response stream broke off before it ended normally. Text received
// before the failure stays in the form.
type StreamReadFailure struct {
	Err error
}

func (e *StreamReadFailure) Error() string {
	return fmt.Sprintf("stream read failed, result may be incomplete: %v", e.Err)
}

func (e *StreamReadFailure) Unwrap() error {
	return e.Err
}
