package domain

import (
	"errors"
	"fmt"
	"time"
)

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

// ErrBusy is returned when a reconciliation request is already in flight
// for the same attempt.
var ErrBusy = errors.New("payment attempt is busy")

// TransportError covers anything that kept a backend answer from reaching us:
// network failures, timeouts, 5xx responses and bodies that do not parse.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e TransportError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s: backend status %d: %v", e.Op, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: backend status %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": transport error"
	}
}

func (e TransportError) Unwrap() error { return e.Err }

// RejectionError is the backend's authoritative refusal of a payment.
type RejectionError struct {
	Msg string
}

func (e RejectionError) Error() string {
	if e.Msg == "" {
		return "payment rejected"
	}
	return "payment rejected: " + e.Msg
}

// StaleAttemptError marks an attempt older than the freshness window.
type StaleAttemptError struct {
	Age time.Duration
}

func (e StaleAttemptError) Error() string {
	return fmt.Sprintf("payment attempt is stale (age %s)", e.Age.Round(time.Second))
}

// MalformedStateError is raised when a persisted attempt cannot be decoded.
type MalformedStateError struct {
	Err error
}

func (e MalformedStateError) Error() string {
	if e.Err == nil {
		return "malformed payment attempt"
	}
	return "malformed payment attempt: " + e.Err.Error()
}

func (e MalformedStateError) Unwrap() error { return e.Err }

func IsTransport(err error) bool {
	var target TransportError
	return errors.As(err, &target)
}

func IsRejection(err error) bool {
	var target RejectionError
	return errors.As(err, &target)
}

func IsStale(err error) bool {
	var target StaleAttemptError
	return errors.As(err, &target)
}

func IsMalformed(err error) bool {
	var target MalformedStateError
	return errors.As(err, &target)
}
