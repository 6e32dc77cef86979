package session

import (
	"context"
	"errors"
	"time"
)

// Establisher opens a session for an account that the login flow has
// already resolved and synced.
type Establisher struct {
	store Store
	ttl   time.Duration
	idle  time.Duration
	now   func() time.Time
}

// NewEstablisher issues sessions that live at most ttl and expire after idle
// without use. An idle of zero or above ttl disables the idle limit.
func NewEstablisher(store Store, ttl, idle time.Duration) *Establisher {
	if idle <= 0 || idle > ttl {
		idle = ttl
	}
	return &Establisher{
		store: store,
		ttl:   ttl,
		idle:  idle,
		now:   time.Now,
	}
}

func (e *Establisher) Establish(ctx context.Context, userID string) (Session, error) {
	if userID == "" {
		return Session{}, errors.New("session: missing user_id")
	}

	sessionID, err := GenerateID()
	if err != nil {
		return Session{}, err
	}

	now := e.now()

	s := Session{
		SessionID:         sessionID,
		UserID:            userID,
		CreatedAt:         now,
		AbsoluteExpiresAt: now.Add(e.ttl),
		ExpiresAt:         now.Add(e.idle),
	}

	if err := e.store.Create(ctx, s); err != nil {
		return Session{}, err
	}

	return s, nil
}
