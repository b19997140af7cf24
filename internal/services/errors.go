package services

import (
	"errors"
	"strings"

	"ridehail/internal/access"
	"ridehail/internal/domain/entities"
	"ridehail/internal/repository"
)

// Re-exported so handlers only need to know about this package.
var (
	ErrNotPermitted  = access.ErrNotPermitted
	ErrUsernameTaken = repository.ErrUsernameTaken

	ErrRideNotFound     = errors.New("ride not found")
	ErrVehicleNotFound  = errors.New("vehicle not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidLogin     = errors.New("invalid username or password")
)

// ValidationError carries every problem found in a request, in the order
// they were detected.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// validation collects messages and turns them into an error at the end.
type validation struct {
	messages []string
}

func (v *validation) require(ok bool, msg string) {
	if !ok {
		v.messages = append(v.messages, msg)
	}
}

func (v *validation) err() error {
	if len(v.messages) == 0 {
		return nil
	}
	return &ValidationError{Messages: v.messages}
}

// ConflictError reports a rejected state transition together with the
// ride's current status.
type ConflictError struct {
	Err    error
	Status entities.RideStatus
}

func (e *ConflictError) Error() string {
	return e.Err.Error()
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}
