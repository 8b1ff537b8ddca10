package task

import "fmt"

// ValidationError is returned when input to Create or Update is malformed.
// The store rejects before mutating, so state is unchanged.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError is returned when an operation targets a nonexistent task ID.
type NotFoundError struct {
	TaskID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.TaskID)
}

// IndexError is returned when a subtask index is out of range.
type IndexError struct {
	TaskID string
	Index  int
	Len    int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("subtask index %d out of range for task %s (have %d)", e.Index, e.TaskID, e.Len)
}
