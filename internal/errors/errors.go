package errors

import "errors"

// This package defines a centralized set of sentinel errors for the
// application. Using sentinel errors allows services to return specific,
// recognizable error types without coupling them to implementation details
// like HTTP status codes. The API layer can then use `errors.Is()` to check
// for these specific errors and map them to the correct HTTP responses.

var (
	// ErrNotFound signifies that a requested resource could not be located.
	// This is typically mapped to a 404 Not Found HTTP status.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation signifies that input data provided by a client failed
	// business rule validation.
	// This is typically mapped to a 400 Bad Request HTTP status.
	ErrValidation = errors.New("validation failed")

	// ErrBusy signifies that an operation was rejected because another
	// generation is already in flight for the copilot.
	// This is typically mapped to a 409 Conflict HTTP status.
	ErrBusy = errors.New("generation already in progress")

	// ErrNoSession signifies that an operation requires an active session
	// but none is selected.
	ErrNoSession = errors.New("no active session")

	// ErrInternal signifies an unexpected error on the server. This is a
	// generic error used to prevent leaking sensitive implementation details
	// to the client.
	ErrInternal = errors.New("internal server error")
)
