package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errBackend = errors.New("backend failed")

func fail() (interface{}, error)    { return nil, errBackend }
func succeed() (interface{}, error) { return "ok", nil }

func TestCircuitOpensAfterThreshold(t *testing.T) {
	cb := New(2, 1, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(fail); !errors.Is(err, errBackend) {
			t.Fatalf("Expected the backend error, got %v", err)
		}
	}
	if cb.State() != Open {
		t.Fatalf("Expected the circuit to be open, got %s", cb.State())
	}

	if _, err := cb.Execute(succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen while open, got %v", err)
	}
}

func TestCircuitRecoversThroughHalfOpen(t *testing.T) {
	cb := New(1, 1, 10*time.Millisecond)

	if _, err := cb.Execute(fail); !errors.Is(err, errBackend) {
		t.Fatalf("Expected the backend error, got %v", err)
	}
	if cb.State() != Open {
		t.Fatalf("Expected the circuit to be open, got %s", cb.State())
	}

	// After the timeout a trial request is let through; its success
	// closes the circuit again.
	time.Sleep(25 * time.Millisecond)
	if _, err := cb.Execute(succeed); err != nil {
		t.Fatalf("Expected the trial request to pass, got %v", err)
	}
	if cb.State() != Closed {
		t.Errorf("Expected the circuit to close after recovery, got %s", cb.State())
	}
}

func TestCircuitStaysClosedOnSuccess(t *testing.T) {
	cb := New(2, 1, time.Minute)

	for i := 0; i < 5; i++ {
		if _, err := cb.Execute(succeed); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
	}
	if cb.State() != Closed {
		t.Errorf("Expected the circuit to stay closed, got %s", cb.State())
	}
}
