package apierr

import (
	"errors"
	"testing"
)

func TestKindOf_PlainErrorDefaultsToInternal(t *testing.T) {
	base := Conflict("already indexing")
	plain := errors.New("context: " + base.Error())
	if KindOf(plain) != KindInternal {
		t.Errorf("plain error should default to KindInternal")
	}
	if KindOf(base) != KindConflict {
		t.Errorf("KindOf(base) = %v, want KindConflict", KindOf(base))
	}
}

func TestUpstream_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream("upstream call failed", cause)
	if !errors.Is(err, cause) {
		t.Errorf("expected errors.Is to find wrapped cause")
	}
	if err.Kind != KindUpstream {
		t.Errorf("Kind = %v, want KindUpstream", err.Kind)
	}
}

func TestErrorMessage_NoCause(t *testing.T) {
	err := BadRequest("No user message found")
	if err.Error() != "No user message found" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestErrorMessage_WithCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal("write version", cause)
	want := "write version: disk full"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
