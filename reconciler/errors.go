package reconciler

import (
	"errors"
	"fmt"

	"github.com/crmarques/declarm/faults"
)

// WriteError marks a failed create-or-update call. Mutation failures are
// fatal for the run: no partial result is returned and no retry is attempted
// here.
type WriteError struct {
	Name string
	err  error
}

func (e *WriteError) Error() string {
	if e == nil || e.err == nil {
		return "<nil>"
	}
	return e.err.Error()
}

func (e *WriteError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

func NewWriteError(name string, cause error) error {
	return &WriteError{
		Name: name,
		err: faults.NewTypedError(
			faults.CategoryOf(cause),
			fmt.Sprintf("failed to create or update resource %s", name),
			cause,
		),
	}
}

func IsWriteError(err error) bool {
	var target *WriteError
	return errors.As(err, &target)
}

// DeleteError marks a failed delete call, with the same fatality semantics
// as WriteError.
type DeleteError struct {
	Name string
	err  error
}

func (e *DeleteError) Error() string {
	if e == nil || e.err == nil {
		return "<nil>"
	}
	return e.err.Error()
}

func (e *DeleteError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

func NewDeleteError(name string, cause error) error {
	return &DeleteError{
		Name: name,
		err: faults.NewTypedError(
			faults.CategoryOf(cause),
			fmt.Sprintf("deleting resource %s failed", name),
			cause,
		),
	}
}

func IsDeleteError(err error) bool {
	var target *DeleteError
	return errors.As(err, &target)
}
