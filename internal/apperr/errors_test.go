package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestConflictError_Is(t *testing.T) {
	err := fmt.Errorf("register: %w", &ConflictError{Field: "email"})
	if !errors.Is(err, ErrConflict) {
		t.Fatal("wrapped ConflictError should match ErrConflict")
	}
	var ce *ConflictError
	if !errors.As(err, &ce) || ce.Field != "email" {
		t.Fatalf("errors.As = %+v", ce)
	}
	if ce.Error() != "email already in use" {
		t.Errorf("Error() = %q", ce.Error())
	}
	custom := &ConflictError{Field: "session", Message: "session already active"}
	if custom.Error() != "session already active" {
		t.Errorf("Error() = %q", custom.Error())
	}
}

func TestRules(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		ok   bool
	}{
		{"required ok", Required("f", "x"), true},
		{"required blank", Required("f", "  "), false},
		{"email ok", Email("email", "john@example.com"), true},
		{"email bad", Email("email", "john@"), false},
		{"email blank", Email("email", ""), false},
		{"password ok", Password("password", "secret"), true},
		{"password short", Password("password", "12345"), false},
		{"phone ok", Phone("phone", "+584121234567"), true},
		{"phone letters", Phone("phone", "call-me"), false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.ok && tc.err != nil {
				t.Fatalf("unexpected error: %v", tc.err)
			}
			if !tc.ok {
				var ve *ValidationError
				if !errors.As(tc.err, &ve) {
					t.Fatalf("want *ValidationError, got %v", tc.err)
				}
			}
		})
	}
}

func TestFirst(t *testing.T) {
	a, b := errors.New("a"), errors.New("b")
	if First(nil, a, b) != a {
		t.Error("First should return the first non-nil error")
	}
	if First(nil, nil) != nil {
		t.Error("First of nils should be nil")
	}
}
