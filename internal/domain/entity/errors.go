package entity

import "errors"

var (
	// ErrInvalidInput is returned for malformed or missing input, before any write
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidAction is returned when the action is not approved or rejected
	ErrInvalidAction = errors.New("invalid action")

	// ErrRequestNotFound is returned when the request does not exist
	ErrRequestNotFound = errors.New("request not found")

	// ErrStepNotFound is returned when the role is not part of the request's chain
	ErrStepNotFound = errors.New("approval step not found")

	// ErrAlreadyDecided is returned when acting on an approved or rejected request
	ErrAlreadyDecided = errors.New("request already decided")

	// ErrStepAlreadyDecided is returned when re-acting on a step that has an outcome
	ErrStepAlreadyDecided = errors.New("approval step already decided")

	// ErrStorageConflict is returned when the store aborted a transaction due to contention.
	// Callers retry the whole operation.
	ErrStorageConflict = errors.New("storage conflict")

	// ErrEmployeeNotFound is returned by the directory when the employee is unknown
	ErrEmployeeNotFound = errors.New("employee not found")
)
