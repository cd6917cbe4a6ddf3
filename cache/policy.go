package cache

import (
	"fmt"
	"time"
)

// Policy configures how long values stay Present.
type Policy struct {
	// TTL is how long a value stays after it was stored.
	// Zero means values never expire.
	TTL time.Duration

	// Capacity bounds the number of Present values. When a new value would
	// exceed it, the least recently used value is evicted.
	// Zero means unbounded.
	Capacity uint64

	// Sliding restarts the TTL each time a value is read.
	// Requires a TTL.
	Sliding bool
}

// DefaultPolicy returns a policy that keeps every value until it is removed.
func DefaultPolicy() Policy {
	return Policy{}
}

// ExpiringPolicy returns a policy with a fixed TTL and no capacity bound.
func ExpiringPolicy(ttl time.Duration) Policy {
	return Policy{TTL: ttl}
}

// Expires reports whether values can expire under this policy.
func (p Policy) Expires() bool {
	return p.TTL > 0
}

// Validate reports whether the policy is usable.
func (p Policy) Validate() error {
	if p.TTL < 0 {
		return fmt.Errorf("%w: negative TTL %v", ErrInvalidPolicy, p.TTL)
	}
	if p.Sliding && p.TTL == 0 {
		return fmt.Errorf("%w: sliding expiration requires a TTL", ErrInvalidPolicy)
	}
	return nil
}
