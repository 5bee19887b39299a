package entity

import (
	"errors"
)

var (
	ErrForbidden            = errors.New("forbidden: access denied")
	ErrUnauthenticated      = errors.New("authentication required")
	ErrProjectNotFound      = errors.New("project not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrCommentNotFound      = errors.New("comment not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrMissingReference     = errors.New("referenced entity does not exist")
	ErrInvalidInput         = errors.New("invalid input")
	ErrConcurrencyConflict  = errors.New("row was modified concurrently")
	ErrUserHasAssignedTasks = errors.New("user still has assigned tasks")
	ErrUsernameTaken        = errors.New("username already taken")
	ErrUpstream             = errors.New("upstream service failure")
)

// MissingReferenceError reports a create/update payload that points at a row which does
// not exist. Its message is shown to the client as is.
type MissingReferenceError struct {
	Kind string
}

func (e *MissingReferenceError) Error() string {
	if e.Kind == "Project" {
		return "Project with this ID does not exist."
	}
	return e.Kind + " with the specified ID does not exist."
}

func (e *MissingReferenceError) Is(target error) bool {
	return target == ErrMissingReference
}

func MissingReference(kind string) error {
	return &MissingReferenceError{Kind: kind}
}

// IsNotFound matches any of the per-entity not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProjectNotFound) ||
		errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrCommentNotFound) ||
		errors.Is(err, ErrUserNotFound)
}
