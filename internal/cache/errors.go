package cache

import "fmt"

// InitError indicates the store could not be created or its schema could
// not be applied.
type InitError struct {
	Path string
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("cache init failed at %s: %v", e.Path, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// WriteError indicates a row could not be written for an entity.
type WriteError struct {
	EntityID int64
	Err      error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cache write failed for entity %d: %v", e.EntityID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
