package kerrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(APIError, "completion request failed", errors.New("boom"))
	want := "[API_ERROR] completion request failed: boom"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	err = New(NotFound, "decision not found", nil)
	if err.Error() != "[NOT_FOUND] decision not found" {
		t.Errorf("unexpected message without cause: %q", err.Error())
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := New(StorageError, "save failed", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is should see through KontextError to the cause")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"typed error", New(ParseError, "bad json", nil), ParseError},
		{"wrapped typed error", fmt.Errorf("extract: %w", New(NoCoverage, "nothing", nil)), NoCoverage},
		{"rate limit sentinel", fmt.Errorf("call: %w", ErrRateLimited), RateLimited},
		{"plain error", errors.New("whatever"), InternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %s, want %s", got, tt.want)
			}
		})
	}
}
