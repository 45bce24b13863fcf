package limits

import (
	"fmt"
	"time"
)

const (
	DefaultMaxCallDepth = 10000
	MaxCallDepthCeiling = 1_000_000

	DefaultCacheSize = 1000
	MaxCacheSize     = 1_000_000
	DefaultCacheTTL  = 300 * time.Second

	// MaxStringBytes bounds strings built by repetition.
	MaxStringBytes = 64 << 20
)

// DepthBudget counts active function frames against a maximum.
type DepthBudget struct {
	limit int
	used  int
}

func NewDepthBudget(limit int) *DepthBudget {
	if limit <= 0 {
		limit = DefaultMaxCallDepth
	}
	return &DepthBudget{limit: limit}
}

func (b *DepthBudget) Limit() int {
	if b == nil {
		return 0
	}
	return b.limit
}

func (b *DepthBudget) Used() int {
	if b == nil {
		return 0
	}
	return b.used
}

func MaxDepthMessage(limit int, function string) string {
	return fmt.Sprintf("stack depth exceeded: maximum call depth %d reached while calling '%s'", limit, function)
}

type MaxDepthError struct {
	Limit    int
	Function string
}

func (e MaxDepthError) Error() string {
	return MaxDepthMessage(e.Limit, e.Function)
}

// Check reports whether one more frame for function fits.
func (b *DepthBudget) Check(function string) error {
	if b == nil {
		return nil
	}
	if b.used+1 > b.limit {
		return MaxDepthError{Limit: b.limit, Function: function}
	}
	return nil
}

func (b *DepthBudget) Charge(function string) error {
	if err := b.Check(function); err != nil {
		return err
	}
	if b != nil {
		b.used++
	}
	return nil
}

func (b *DepthBudget) Release() {
	if b != nil && b.used > 0 {
		b.used--
	}
}

func ValidateCallDepth(n int) error {
	if n < 1 || n > MaxCallDepthCeiling {
		return fmt.Errorf("max call depth must be between 1 and %d, got %d", MaxCallDepthCeiling, n)
	}
	return nil
}

func ValidateCacheSize(n int) error {
	if n < 1 || n > MaxCacheSize {
		return fmt.Errorf("cache size must be between 1 and %d, got %d", MaxCacheSize, n)
	}
	return nil
}

func ValidateCacheTTL(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("cache ttl must not be negative, got %s", d)
	}
	return nil
}
