package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeSchema, "node entry %d has no identifier", 3)

	if err.Code != ErrCodeSchema {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeSchema)
	}

	if err.Message != "node entry 3 has no identifier" {
		t.Errorf("Message = %v, want %v", err.Message, "node entry 3 has no identifier")
	}

	expected := "INVALID_SCHEMA: node entry 3 has no identifier"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := Parse(cause, "cannot parse %s", "a.json")

	if err.Code != ErrCodeInvalidJSON {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidJSON)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      Schema("dangling edge"),
			code:     ErrCodeSchema,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      Schema("dangling edge"),
			code:     ErrCodeInvalidJSON,
			expected: false,
		},
		{
			name:     "wrapped with fmt",
			err:      fmt.Errorf("load: %w", NotFound(nil, "missing")),
			code:     ErrCodeFileNotFound,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeSchema,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeSchema,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if code := GetCode(NotFound(nil, "x")); code != ErrCodeFileNotFound {
		t.Errorf("GetCode() = %v, want %v", code, ErrCodeFileNotFound)
	}
	if code := GetCode(errors.New("plain")); code != "" {
		t.Errorf("GetCode() = %v, want empty", code)
	}
}

func TestUserMessage(t *testing.T) {
	err := Parse(errors.New("syntax"), "line 2, column 5: invalid character")
	if got := UserMessage(err); got != "line 2, column 5: invalid character" {
		t.Errorf("UserMessage() = %q", got)
	}

	plain := errors.New("plain error")
	if got := UserMessage(plain); got != "plain error" {
		t.Errorf("UserMessage() = %q, want %q", got, "plain error")
	}
}

func TestTitle(t *testing.T) {
	if Title(ErrCodeInvalidJSON) != "Invalid JSON file" {
		t.Errorf("Title(INVALID_JSON) = %q", Title(ErrCodeInvalidJSON))
	}
	if Title(Code("SOMETHING")) != "Error" {
		t.Errorf("Title(unknown) = %q", Title(Code("SOMETHING")))
	}
}
