// Package failure classifies the errors blobpack/blobunpack can raise
// and maps each class to the process exit code spec.md §6/§7 assigns it.
//
// Adapted from the teacher's core/errors package: same shape (a Kind
// value per class, a context-carrying struct type, New/Wrap helpers), but the
// classes themselves are spec.md §7's five failure kinds rather than a
// general-purpose REST-API error taxonomy.
package failure

import (
	"errors"
	"fmt"
)

// Kind identifies which of spec.md §7's failure classes an error belongs
// to. None of these are recovered locally; they all propagate to main.
type Kind int

const (
	// ArgInvalid is a command-line parse error. Exit code 11.
	ArgInvalid Kind = iota
	// StorageOpen covers opening the destination, attaching the source,
	// or setting the page size. Exit code 1.
	StorageOpen
	// StoragePrepare is a malformed embedded SQL statement — a build-time
	// bug, never something user input can trigger. Exit code 1.
	StoragePrepare
	// StorageStep is a runtime storage failure: a failed step/exec,
	// including out-of-space and I/O errors. Exit code 1.
	StorageStep
	// Allocation is an out-of-memory condition while concatenating blob
	// fragments. Exit code 1.
	Allocation
)

func (k Kind) String() string {
	switch k {
	case ArgInvalid:
		return "argument-invalid"
	case StorageOpen:
		return "storage-open"
	case StoragePrepare:
		return "storage-prepare"
	case StorageStep:
		return "storage-step"
	case Allocation:
		return "allocation"
	default:
		return "unknown"
	}
}

// ExitCode returns the process exit code spec.md §6 assigns this Kind.
func (k Kind) ExitCode() int {
	if k == ArgInvalid {
		return 11
	}
	return 1
}

// Error is a failure tagged with its spec.md §7 class and the operation
// that was being attempted when it occurred.
type Error struct {
	Kind Kind
	Op   string // e.g. "open destination", "prepare insert_temp_frag"
	Err  error  // underlying error, if any
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs an *Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// ExitCode walks err's Unwrap chain for a *failure.Error and returns the
// exit code its Kind maps to. An err with no *failure.Error anywhere in
// its chain (a programming bug, not a classified failure) maps to 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind.ExitCode()
	}
	return 1
}

// Wrap adds an operation label to err under the given Kind. Returns nil
// if err is nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return New(kind, op, err)
}
