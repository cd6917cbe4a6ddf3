package cache

import (
	"errors"
	"strings"
)

// MaxKeyLength is the longest key accepted by ValidateStringKey.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	// ErrNilCreator is returned by New when no creator is given.
	ErrNilCreator = errors.New("cache: creator is nil")

	// ErrInvalidKey is returned when the key validator rejects a key.
	ErrInvalidKey = errors.New("cache: key is invalid")

	// ErrKeyTooLong is returned by ValidateStringKey for oversized keys.
	ErrKeyTooLong = errors.New("cache: key exceeds max length")

	// ErrClosed is returned by operations that would create values after Close.
	ErrClosed = errors.New("cache: cache is closed")

	// ErrCreatorPanic is delivered to OnFailed subscribers when the creator panics.
	ErrCreatorPanic = errors.New("cache: creator panicked")

	// ErrDisposeFailed wraps errors returned by the disposer.
	ErrDisposeFailed = errors.New("cache: dispose failed")

	// ErrInvalidPolicy is returned for a policy that cannot be honored.
	ErrInvalidPolicy = errors.New("cache: invalid policy")

	// ErrOptionType is returned when a typed option does not match the
	// cache's key or value type.
	ErrOptionType = errors.New("cache: option type mismatch")
)

// ValidateStringKey rejects empty, blank, multi-line and oversized keys.
// It suits caches keyed by identifiers that end up in logs and span
// attributes.
func ValidateStringKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}

// rejectNilKey is the default key validator.
func rejectNilKey[K comparable](key K) error {
	if any(key) == nil {
		return errors.New("nil key")
	}
	return nil
}
