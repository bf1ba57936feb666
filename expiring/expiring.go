// Package expiring provides a value that stops being readable after a fixed
// lifetime. A Value has a single owner and is not safe for concurrent use
// without external locking.
package expiring

import (
	"errors"
	"time"
)

// ErrExpired is returned by Get once the lifetime has elapsed.
var ErrExpired = errors.New("value expired")

// now is replaced in tests.
var now = time.Now

// Value holds v until created+lifetime.
type Value[T any] struct {
	v        T
	created  time.Time
	lifetime time.Duration
}

func New[T any](v T, lifetime time.Duration) *Value[T] {
	return &Value[T]{v: v, created: now(), lifetime: lifetime}
}

// Get returns the held value, or ErrExpired once the lifetime has elapsed.
func (e *Value[T]) Get() (T, error) {
	if e.IsExpired() {
		var zero T
		return zero, ErrExpired
	}
	return e.v, nil
}

// IsExpired reports whether the lifetime has elapsed. A zero lifetime is
// expired immediately.
func (e *Value[T]) IsExpired() bool {
	return now().Sub(e.created) >= e.lifetime
}

func (e *Value[T]) ExpiresAt() time.Time {
	return e.created.Add(e.lifetime)
}
