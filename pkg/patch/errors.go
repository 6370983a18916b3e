package patch

import (
	"errors"
	"fmt"

	herrors "github.com/humus-dev/humus/internal/errors"
	"github.com/humus-dev/humus/pkg/vdom"
)

// Structural failure classes, matched with errors.Is.
var (
	ErrPathNotFound    error = herrors.New("P001")
	ErrIndexOutOfRange error = herrors.New("P002")
)

// OpError records a host failure for one patch.
type OpError struct {
	Index int        // Position of the patch in the script
	Patch vdom.Patch // The patch that failed
	Err   error      // Host error(s)
}

// Error implements the error interface.
func (e *OpError) Error() string {
	return fmt.Sprintf("patch %d (%s %s): %v", e.Index, e.Patch.Op, e.Patch.Path, e.Err)
}

// Unwrap returns the underlying host error.
func (e *OpError) Unwrap() error {
	return e.Err
}

// StructuralError reports that the host tree no longer corresponds to the
// virtual tree. Patches from Index onward were not applied.
type StructuralError struct {
	Index int
	Patch vdom.Patch
	Err   error
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	return fmt.Sprintf("patch aborted at %d (%s %s): %v", e.Index, e.Patch.Op, e.Patch.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *StructuralError) Unwrap() error {
	return e.Err
}

// Report summarizes one application of an edit script.
type Report struct {
	// Applied is the number of patches processed, including failed ones.
	Applied int

	// Failures lists host failures in script order.
	Failures []*OpError
}

// OK reports whether every processed patch succeeded.
func (r *Report) OK() bool {
	return r == nil || len(r.Failures) == 0
}

// Err joins the recorded failures, or returns nil.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

func notFound(path vdom.Path, detail string) error {
	return herrors.New("P001").WithPath(path).WithDetail(detail)
}

func outOfRange(path vdom.Path, index, length int) error {
	return herrors.New("P002").WithPath(path).WithDetailf("index %d, %d children", index, length)
}

func hostFailure(err error) error {
	return herrors.FromError(err, "H001")
}
