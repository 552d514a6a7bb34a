package core

import "fmt"

// UserError reports malformed or inconsistent caller input: mismatched list
// lengths, unknown feature names, malformed order-by entries, key-count
// mismatches, name collisions. It is always fatal to the calling operation
// and its message aggregates every offending item found in one pass.
type UserError struct {
	Msg string
}

func (e *UserError) Error() string { return e.Msg }

// UserErrorf builds a UserError with a formatted message.
func UserErrorf(format string, args ...any) *UserError {
	return &UserError{Msg: fmt.Sprintf(format, args...)}
}

// ServerError reports a query or publish failure from the remote service.
// The message carries the service's failure text verbatim.
type ServerError struct {
	Msg string
}

func (e *ServerError) Error() string { return e.Msg }

// ValidationError maps HTTP 400 responses from the service.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// AuthenticationError maps HTTP 401 responses from the service.
type AuthenticationError struct {
	Msg string
}

func (e *AuthenticationError) Error() string { return e.Msg }

// AccessError maps HTTP 403 responses from the service.
type AccessError struct {
	Msg string
}

func (e *AccessError) Error() string { return e.Msg }

// InaccessibleAPIError maps HTTP 404 responses from the service.
type InaccessibleAPIError struct {
	Msg string
}

func (e *InaccessibleAPIError) Error() string { return e.Msg }

// DisabledDesignCenterError maps HTTP 503 responses from the service.
type DisabledDesignCenterError struct {
	Msg string
}

func (e *DisabledDesignCenterError) Error() string { return e.Msg }
