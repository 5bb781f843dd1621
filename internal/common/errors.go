package common

import "errors"

var (
	// ErrValidation marks client-side form validation failures. Such errors
	// never reach the API client.
	ErrValidation = errors.New("validation error")

	// ErrNoData is returned when an export or report has nothing to write.
	ErrNoData = errors.New("no data")
)
