package tpa

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrProgramTooLarge is returned when a program or segment does not fit the arena.
	ErrProgramTooLarge = errors.New("program too large")
	// ErrSystemStartOutside is returned when the system start address lies outside
	// the region. The memory map cannot be trusted and the host should stop.
	ErrSystemStartOutside = errors.New("transient program area does not contain system start address")
	// ErrBadAddress is returned for entry points outside the arena or misaligned.
	ErrBadAddress = errors.New("bad address")
	// ErrFilesystem classifies failures of the filesystem collaborator.
	ErrFilesystem = errors.New("filesystem error")
	// ErrElf classifies malformed or truncated executables.
	ErrElf = errors.New("elf error")
)

// LoadError pairs a classification (ErrFilesystem, ErrElf) with its cause.
// errors.Is matches both.
type LoadError struct {
	Kind error
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

// Unwrap exposes both the classification and the cause.
func (e *LoadError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Cause returns the underlying error for github.com/pkg/errors.Cause.
func (e *LoadError) Cause() error {
	return e.Err
}

func newLoadError(kind, err error) error {
	return &LoadError{Kind: kind, Err: err}
}
