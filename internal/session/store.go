package session

import (
	"context"
	"time"
)

// Session represents an authenticated user session.
// It stores only the local account pointer, not auth state.
type Session struct {
	SessionID         string // unique session identifier
	UserID            string // references users.id
	CreatedAt         time.Time
	AbsoluteExpiresAt time.Time // hard upper bound, never extended
	ExpiresAt         time.Time // idle expiry, slides on use up to AbsoluteExpiresAt
}

// Store defines how sessions are stored and retrieved.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Update(ctx context.Context, s Session) error
	Delete(ctx context.Context, sessionID string) error
}
