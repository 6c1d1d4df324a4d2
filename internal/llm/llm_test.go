package llm

import (
	"errors"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	base := errors.New("dial tcp: connection refused")
	err := ConnectionErr("groq", base)

	if got := err.Error(); got != "groq connection error: dial tcp: connection refused" {
		t.Errorf("unexpected message: %q", got)
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error should unwrap to the cause")
	}
}

func TestErrorsAsRecoversCategory(t *testing.T) {
	var wrapped error = ResponseErr("gemini", "no candidates")

	var provErr *Error
	if !errors.As(wrapped, &provErr) {
		t.Fatal("errors.As should match *Error")
	}
	if provErr.Provider != "gemini" || provErr.Kind != KindResponse {
		t.Errorf("unexpected category: %+v", provErr)
	}
}
