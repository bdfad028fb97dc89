package db

import "fmt"

// StorageError wraps a persistence-layer failure so callers can tell it
// apart from validation and remote errors.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
