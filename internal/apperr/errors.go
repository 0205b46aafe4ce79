package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrUnsavedChanges = errors.New("unsaved changes")
	ErrScanFailure    = errors.New("scan failed")
	ErrStoreIO        = errors.New("index store unreadable")
	ErrStoreConflict  = errors.New("index store write conflict")
)

// ScanError describes one failed scanner invocation.
type ScanError struct {
	Path     string
	Reason   string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ScanError) Error() string {
	msg := fmt.Sprintf("scan %s: %s", e.Path, e.Reason)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Is makes every ScanError match ErrScanFailure.
func (e *ScanError) Is(target error) bool {
	return target == ErrScanFailure
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
