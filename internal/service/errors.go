package service

import (
	"errors"
	"fmt"
)

// NotFoundError indicates the referenced resource does not exist or is not
// visible to the caller (soft-deleted comments count as absent)
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// PermissionError indicates the actor is neither the owner nor an admin
type PermissionError struct {
	Action string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("access denied: %s", e.Action)
}

// ValidationError indicates a request failed validation before persistence
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DuplicateError indicates an operation that must happen at most once per
// user was repeated (e.g. reporting the same comment twice)
type DuplicateError struct {
	Message string
}

func (e *DuplicateError) Error() string {
	return e.Message
}

// Error classification helpers used by the HTTP layer

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsPermission(err error) bool {
	var e *PermissionError
	return errors.As(err, &e)
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsDuplicate(err error) bool {
	var e *DuplicateError
	return errors.As(err, &e)
}
