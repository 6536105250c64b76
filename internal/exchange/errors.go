package exchange

import (
	"errors"
	"fmt"
)

// ErrStaleResponse marks a response superseded by a newer request
var ErrStaleResponse = errors.New("stale response")

// NetworkError is a transport failure, a timeout or an HTTP error status
type NetworkError struct {
	Op     string
	Status int // 0 when no response was received
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s: HTTP %d: %v", e.Op, e.Status, e.Err)
		}
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// MalformedResponse is a response with an unexpected shape
type MalformedResponse struct {
	Reason string
	Err    error
}

func (e *MalformedResponse) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response: %s: %v", e.Reason, e.Err)
	}
	return "malformed response: " + e.Reason
}

func (e *MalformedResponse) Unwrap() error {
	return e.Err
}
