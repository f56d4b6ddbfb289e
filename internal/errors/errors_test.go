package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("no such file or directory")
	err := New(MissingInput, "old revision not found", cause)

	if err.Code != MissingInput {
		t.Errorf("Code = %v, want %v", err.Code, MissingInput)
	}
	if len(err.SuggestedFixes) == 0 {
		t.Error("expected registered suggested fixes")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want []string
	}{
		{
			name: "plain",
			err:  New(InternalError, "boom", nil),
			want: []string{"[INTERNAL_ERROR]", "boom"},
		},
		{
			name: "with path and cause",
			err:  Missing("new", "/tmp/v2", errors.New("stat failed")),
			want: []string{"[MISSING_INPUT]", "new revision not found", "(/tmp/v2)", "stat failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Error() = %q, missing %q", got, w)
				}
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", New(InvalidInput, "bad snapshot", nil))

	if got := CodeOf(wrapped); got != InvalidInput {
		t.Errorf("CodeOf() = %v, want %v", got, InvalidInput)
	}
	if got := CodeOf(errors.New("plain")); got != InternalError {
		t.Errorf("CodeOf(plain) = %v, want %v", got, InternalError)
	}
	if got := CodeOf(nil); got != "" {
		t.Errorf("CodeOf(nil) = %q, want empty", got)
	}
	if !Is(wrapped, InvalidInput) {
		t.Error("Is(wrapped, InvalidInput) = false")
	}
	if Is(wrapped, MissingInput) {
		t.Error("Is(wrapped, MissingInput) = true")
	}
}
