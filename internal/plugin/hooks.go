// File: internal/plugin/hooks.go
package plugin

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionEvent describes one session at a lifecycle point.
type SessionEvent struct {
	ID         uuid.UUID
	AcquiredAt time.Time
	// Held is zero on acquire and the time the session was held on release.
	Held time.Duration
}

// Hooks defines lifecycle callbacks for sessions. Implementations must be
// safe for concurrent use.
type Hooks interface {
	AfterAcquire(ctx context.Context, ev SessionEvent)
	AfterRelease(ctx context.Context, ev SessionEvent)
	AcquireFailed(ctx context.Context, err error)
}

// Chain fans every callback out to each hook in order.
type Chain []Hooks

func (c Chain) AfterAcquire(ctx context.Context, ev SessionEvent) {
	for _, h := range c {
		h.AfterAcquire(ctx, ev)
	}
}

func (c Chain) AfterRelease(ctx context.Context, ev SessionEvent) {
	for _, h := range c {
		h.AfterRelease(ctx, ev)
	}
}

func (c Chain) AcquireFailed(ctx context.Context, err error) {
	for _, h := range c {
		h.AcquireFailed(ctx, err)
	}
}
