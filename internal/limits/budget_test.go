package limits

import (
	"errors"
	"testing"
	"time"
)

func TestDepthBudgetCharge(t *testing.T) {
	b := NewDepthBudget(2)
	if err := b.Charge("f"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.Charge("f"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := b.Charge("g")
	if err == nil {
		t.Fatalf("expected error")
	}
	var de MaxDepthError
	if !errors.As(err, &de) || de.Function != "g" || de.Limit != 2 {
		t.Fatalf("unexpected error %v", err)
	}
	if b.Used() != 2 {
		t.Fatalf("failed charge must not count, used=%d", b.Used())
	}

	b.Release()
	if err := b.Charge("g"); err != nil {
		t.Fatalf("unexpected error after release: %v", err)
	}
}

func TestDepthBudgetDefault(t *testing.T) {
	b := NewDepthBudget(0)
	if b.Limit() != DefaultMaxCallDepth {
		t.Fatalf("expected default limit %d, got %d", DefaultMaxCallDepth, b.Limit())
	}
}

func TestNilBudget(t *testing.T) {
	var b *DepthBudget
	if err := b.Charge("f"); err != nil {
		t.Fatalf("nil budget must be unlimited: %v", err)
	}
	b.Release()
}

func TestValidate(t *testing.T) {
	if err := ValidateCallDepth(0); err == nil {
		t.Fatal("expected error for depth 0")
	}
	if err := ValidateCallDepth(DefaultMaxCallDepth); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateCacheSize(MaxCacheSize + 1); err == nil {
		t.Fatal("expected error for oversized cache")
	}
	if err := ValidateCacheTTL(-time.Second); err == nil {
		t.Fatal("expected error for negative ttl")
	}
}
