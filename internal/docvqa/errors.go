package docvqa

import (
	"errors"
)

// FallbackServerMessage is shown when a failed response carries no usable detail.
const FallbackServerMessage = "Something went wrong on the server."

var (
	// ErrValidation is returned before any network activity when the image or
	// the question is missing.
	ErrValidation = errors.New("an image and a question are required")

	// ErrMalformedResponse marks a response body that does not match the
	// answer contract.
	ErrMalformedResponse = errors.New("malformed response body")
)

// ServerError is a non-2xx response from the backend.
type ServerError struct {
	StatusCode int
	// Detail is the body's "detail" field. Empty when the field is absent or
	// the body is not JSON.
	Detail string
}

func (e *ServerError) Error() string {
	if e.Detail == "" {
		return FallbackServerMessage
	}
	return e.Detail
}

// TransportError is any failure that left the client without a well-formed
// response: the request never completed, the body could not be read, or the
// body did not match the contract.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
