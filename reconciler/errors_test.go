package reconciler

import (
	"errors"
	"testing"

	"github.com/crmarques/declarm/faults"
)

func TestWriteAndDeleteErrors(t *testing.T) {
	t.Parallel()

	cause := faults.NewTypedError(faults.TransportError, "remote request failed", errors.New("503"))

	writeErr := NewWriteError("vm", cause)
	if !IsWriteError(writeErr) {
		t.Fatalf("expected write error marker")
	}
	if IsDeleteError(writeErr) {
		t.Fatalf("write error must not match delete marker")
	}
	if !errors.Is(writeErr, cause) {
		t.Fatalf("expected cause preserved in chain")
	}
	if !faults.IsCategory(writeErr, faults.TransportError) {
		t.Fatalf("expected category inherited from cause")
	}
	if got := writeErr.Error(); got != "failed to create or update resource vm: remote request failed: 503" {
		t.Fatalf("unexpected message: %q", got)
	}

	deleteErr := NewDeleteError("vm", cause)
	if !IsDeleteError(deleteErr) {
		t.Fatalf("expected delete error marker")
	}
	if got := deleteErr.Error(); got != "deleting resource vm failed: remote request failed: 503" {
		t.Fatalf("unexpected message: %q", got)
	}
}
