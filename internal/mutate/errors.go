package mutate

import (
	"errors"
	"fmt"
)

var ErrInvalidStatus = errors.New("invalid status")

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// RolledBackError is returned by Move when the server rejected the change and
// the cache was restored.
type RolledBackError struct {
	Notice Notice
	Err    error
}

func (e *RolledBackError) Error() string {
	return fmt.Sprintf("task %s: %s (reverted to %s)", e.Notice.TaskID, e.Notice.Message, e.Notice.From)
}

func (e *RolledBackError) Unwrap() error { return e.Err }
