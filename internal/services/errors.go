package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrEmptyName = errors.New("name is required")
	ErrNoObject  = errors.New("node has no backing object")
)

// FolderNotEmptyError aborts a delete batch before any side effect. It names
// the first offending folder so the client can report it.
type FolderNotEmptyError struct {
	Name string
}

func (e *FolderNotEmptyError) Error() string {
	return fmt.Sprintf("folder %q is not empty", e.Name)
}
