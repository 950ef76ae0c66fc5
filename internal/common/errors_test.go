package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_CollectsAllRules(t *testing.T) {
	verr := &ValidationError{}

	if verr.Err() != nil {
		t.Errorf("empty ValidationError must yield a nil error")
	}

	verr.Add("email", "email is required")
	verr.Add("credential", "credential is required")

	err := verr.Err()
	if err == nil {
		t.Fatalf("expected an error after Add")
	}
	want := "validation failed: email: email is required; credential: credential is required"
	if err.Error() != want {
		t.Errorf("Error() = %q; want %q", err.Error(), want)
	}
}

func TestAsValidation(t *testing.T) {
	verr := &ValidationError{}
	verr.Add("pin", "PIN must be exactly 4 digits")

	wrapped := fmt.Errorf("enroll: %w", verr.Err())
	got, ok := AsValidation(wrapped)
	if !ok {
		t.Fatalf("AsValidation failed to unwrap %v", wrapped)
	}
	if len(got.Fields) != 1 || got.Fields[0].Field != "pin" {
		t.Errorf("unexpected fields: %+v", got.Fields)
	}

	if _, ok := AsValidation(errors.New("plain")); ok {
		t.Errorf("AsValidation matched a plain error")
	}
	if _, ok := AsValidation(nil); ok {
		t.Errorf("AsValidation matched nil")
	}
}
