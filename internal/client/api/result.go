package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ErrKind classifies a failed decode.
type ErrKind string

const (
	KindRejected  ErrKind = "rejected"
	KindMalformed ErrKind = "malformed"
)

// Result is the outcome of decoding one response body: either Ok with data
// or Err with a kind and a message.
type Result[T any] struct {
	ok      bool
	data    T
	kind    ErrKind
	message string
}

func Ok[T any](data T) Result[T] {
	return Result[T]{ok: true, data: data}
}

func Err[T any](kind ErrKind, message string) Result[T] {
	return Result[T]{kind: kind, message: message}
}

func (r Result[T]) IsOk() bool { return r.ok }

func (r Result[T]) Data() T { return r.data }

func (r Result[T]) Kind() ErrKind { return r.kind }

func (r Result[T]) Message() string { return r.message }

// Unwrap converts the result into Go's (value, error) form. The error wraps
// ErrRejected or ErrMalformed.
func (r Result[T]) Unwrap() (T, error) {
	if r.ok {
		return r.data, nil
	}
	var zero T
	if r.kind == KindRejected {
		return zero, fmt.Errorf("%w: %s", ErrRejected, r.message)
	}
	return zero, fmt.Errorf("%w: %s", ErrMalformed, r.message)
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

// Decode validates body against the {success, data, error, message} envelope
// and decodes data into T. A body without a data field is decoded as T
// directly, which covers the public endpoints that answer with a flat object.
func Decode[T any](body []byte) Result[T] {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Err[T](KindMalformed, err.Error())
	}

	if env.Success != nil && !*env.Success {
		msg := errorText(env.Error)
		if msg == "" {
			msg = env.Message
		}
		if msg == "" {
			msg = "request was not successful"
		}
		return Err[T](KindRejected, msg)
	}

	payload := env.Data
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		if env.Success != nil {
			var zero T
			return Ok(zero)
		}
		payload = body
	}

	var out T
	if err := json.Unmarshal(payload, &out); err != nil {
		return Err[T](KindMalformed, err.Error())
	}
	return Ok(out)
}

// errorText reads an error field that is either a string or an object with
// a message.
func errorText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return obj.Message
	}
	return ""
}
