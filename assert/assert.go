// Package assert provides minimal test helpers used across the repo.
package assert

import (
	"reflect"
	"testing"
)

// Equal fails the test if got != want.
func Equal[T any](t *testing.T, want, got T, label string) {
	t.Helper()
	if !reflect.DeepEqual(want, got) {
		t.Errorf("%s: want %v, got %v", label, want, got)
	}
}

// True fails the test if cond is false.
func True(t *testing.T, cond bool, label string) {
	t.Helper()
	if !cond {
		t.Errorf("%s: expected true", label)
	}
}

// False fails the test if cond is true.
func False(t *testing.T, cond bool, label string) {
	t.Helper()
	if cond {
		t.Errorf("%s: expected false", label)
	}
}

// NoError fails the test if err is non-nil.
func NoError(t *testing.T, err error, label string) {
	t.Helper()
	if err != nil {
		t.Errorf("%s: unexpected error: %v", label, err)
	}
}

// Error fails the test if err is nil.
func Error(t *testing.T, err error, label string) {
	t.Helper()
	if err == nil {
		t.Errorf("%s: expected error, got nil", label)
	}
}
