package sessionstore

import (
	"context"
	"time"
)

// ID is the opaque random identifier carried in the admin session cookie.
type ID string

// Record is one authenticated admin session.
type Record struct {
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store persists admin sessions between login and logout.
//
// Sessions are deliberately ephemeral: losing them on restart only forces a
// re-login, so an in-memory implementation is acceptable in production.
type Store interface {
	Get(ctx context.Context, id ID) (Record, bool, error)
	Put(ctx context.Context, id ID, rec Record) error
	Delete(ctx context.Context, id ID) error
}
