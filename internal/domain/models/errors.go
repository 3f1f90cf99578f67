// internal/domain/models/errors.go
package models

import "fmt"

// ErrorKind classifies session errors with a stable code the client can
// switch on for localization. The text in Message is a fallback only.
type ErrorKind string

const (
	ErrNetwork            ErrorKind = "network"            // transport failure or timeout
	ErrInvalidCredentials ErrorKind = "invalid_credentials"
	ErrRemoteValidation   ErrorKind = "remote_validation" // e.g. duplicate email on sign-up
	ErrNotFound           ErrorKind = "not_found"
	ErrPersistence        ErrorKind = "persistence" // local snapshot read/write failure
)

// SessionError is the structured error descriptor recorded in
// Session.LastError. Transitions never fail outright at the store
// boundary; failures land here and the session stays in its prior state.
//
// Precondition violations (e.g. updateProfile with no registered user)
// are deliberately absent: those are silent no-ops, not errors.
//
// No bson tags: LastError is transient and never part of a snapshot.
type SessionError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Op      string    `json:"op,omitempty"` // transition that produced the error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Op, e.Message)
}

// WithOp returns a copy of the error tagged with the transition name.
func (e *SessionError) WithOp(op string) *SessionError {
	c := *e
	c.Op = op
	return &c
}

func NewNetworkError(reason string) *SessionError {
	if reason == "" {
		reason = "the server could not be reached"
	}
	return &SessionError{Kind: ErrNetwork, Message: reason}
}

func NewInvalidCredentialsError() *SessionError {
	return &SessionError{Kind: ErrInvalidCredentials, Message: "incorrect email or password"}
}

func NewRemoteValidationError(reason string) *SessionError {
	return &SessionError{Kind: ErrRemoteValidation, Message: reason}
}

func NewNotFoundError(what string) *SessionError {
	return &SessionError{Kind: ErrNotFound, Message: what + " not found"}
}

func NewPersistenceError(reason string) *SessionError {
	return &SessionError{Kind: ErrPersistence, Message: reason}
}
