package invariant

import (
	"errors"
	"testing"
)

func TestAssertPanicsUnderTest(t *testing.T) {
	if !Enabled() {
		t.Fatal("checks must be enabled in test binaries")
	}
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrViolation) {
			t.Fatalf("expected ErrViolation panic, got %v", r)
		}
	}()
	Assert(true, "never")
	Assert(false, "boom %d", 1)
}
