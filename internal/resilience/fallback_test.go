package resilience

import (
	"errors"
	"testing"
)

// countingBackend records how often it was called and fails while failing is
// set.
type countingBackend struct {
	name    string
	calls   int
	failing bool
}

func (b *countingBackend) call() (string, error) {
	b.calls++
	if b.failing {
		return "", errProvider
	}
	return b.name, nil
}

func TestFallbackGroup_PrimaryPreferred(t *testing.T) {
	primary := &countingBackend{name: "primary"}
	secondary := &countingBackend{name: "secondary"}

	fg := NewFallbackGroup[*countingBackend](primary, "primary", FallbackConfig{})
	fg.AddFallback("secondary", secondary)

	got, err := ExecuteWithResult(fg, func(b *countingBackend) (string, error) {
		return b.call()
	})
	if err != nil {
		t.Fatalf("ExecuteWithResult: %v", err)
	}
	if got != "primary" {
		t.Errorf("result = %q, want primary", got)
	}
	if secondary.calls != 0 {
		t.Errorf("secondary calls = %d, want 0", secondary.calls)
	}
}

func TestFallbackGroup_FailsOverInOrder(t *testing.T) {
	primary := &countingBackend{name: "primary", failing: true}
	second := &countingBackend{name: "second", failing: true}
	third := &countingBackend{name: "third"}

	fg := NewFallbackGroup[*countingBackend](primary, "primary", FallbackConfig{})
	fg.AddFallback("second", second)
	fg.AddFallback("third", third)

	got, err := ExecuteWithResult(fg, func(b *countingBackend) (string, error) {
		return b.call()
	})
	if err != nil {
		t.Fatalf("ExecuteWithResult: %v", err)
	}
	if got != "third" {
		t.Errorf("result = %q, want third", got)
	}
	if primary.calls != 1 || second.calls != 1 || third.calls != 1 {
		t.Errorf("calls = %d/%d/%d, want 1/1/1", primary.calls, second.calls, third.calls)
	}
}

func TestFallbackGroup_AllFailed(t *testing.T) {
	primary := &countingBackend{name: "primary", failing: true}
	secondary := &countingBackend{name: "secondary", failing: true}

	fg := NewFallbackGroup[*countingBackend](primary, "primary", FallbackConfig{})
	fg.AddFallback("secondary", secondary)

	_, err := ExecuteWithResult(fg, func(b *countingBackend) (string, error) {
		return b.call()
	})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestFallbackGroup_SkipsOpenBreaker(t *testing.T) {
	primary := &countingBackend{name: "primary", failing: true}
	secondary := &countingBackend{name: "secondary"}

	fg := NewFallbackGroup[*countingBackend](primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 1},
	})
	fg.AddFallback("secondary", secondary)

	call := func(b *countingBackend) (string, error) { return b.call() }

	// First call trips the primary's breaker and lands on the secondary.
	if _, err := ExecuteWithResult(fg, call); err != nil {
		t.Fatalf("first call: %v", err)
	}
	// Second call must skip the primary entirely.
	if _, err := ExecuteWithResult(fg, call); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if primary.calls != 1 {
		t.Errorf("primary calls = %d, want 1 (breaker open)", primary.calls)
	}
	if secondary.calls != 2 {
		t.Errorf("secondary calls = %d, want 2", secondary.calls)
	}
}
