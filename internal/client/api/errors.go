package api

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork matches every failure where no HTTP response was received.
	ErrNetwork = errors.New("network error")

	// ErrAuthenticationRequired is returned after a 401 response, once the
	// stored credentials have been cleared.
	ErrAuthenticationRequired = errors.New("authentication required, please login again")

	// ErrRequestFailed matches every *RequestFailedError.
	ErrRequestFailed = errors.New("request failed")

	// ErrRejected matches a decoded envelope with success=false.
	ErrRejected = errors.New("request rejected")

	// ErrMalformed matches a body that does not decode into the expected shape.
	ErrMalformed = errors.New("malformed response")
)

// RequestFailedError is returned for any non-2xx response other than 401.
type RequestFailedError struct {
	Status  int
	Message string
}

func (e *RequestFailedError) Error() string {
	return e.Message
}

func (e *RequestFailedError) Is(target error) bool {
	return target == ErrRequestFailed
}

// StatusCode extracts the HTTP status of a *RequestFailedError anywhere in
// err's chain. It returns 0 when there is none.
func StatusCode(err error) int {
	var rf *RequestFailedError
	if errors.As(err, &rf) {
		return rf.Status
	}
	return 0
}

// NetworkError wraps a transport failure.
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Cause)
}

func (e *NetworkError) Unwrap() []error {
	return []error{ErrNetwork, e.Cause}
}
