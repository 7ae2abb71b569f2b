// Package invariant guards engine invariants that must hold for any
// well-formed document. Checks are active in test binaries and in builds
// tagged loom_debug; release builds skip them and degrade gracefully.
package invariant

import (
	"errors"
	"fmt"
	"testing"
)

// ErrViolation marks an internal engine defect.
var ErrViolation = errors.New("invariant violation")

// Enabled reports whether invariant checks are active.
func Enabled() bool {
	return debugBuild || testing.Testing()
}

// Errorf builds an error wrapping ErrViolation.
func Errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrViolation, fmt.Sprintf(format, args...))
}

// Assert panics with an ErrViolation error when checks are enabled and cond is false.
func Assert(cond bool, format string, args ...any) {
	if cond || !Enabled() {
		return
	}
	panic(Errorf(format, args...))
}
