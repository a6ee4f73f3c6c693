package booking

import (
	"context"
	"sync"
)

type contextKey string

const (
	idempotencyKey contextKey = "idempotencyKey"
	sessionKey     contextKey = "session"
)

func NewContextWithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey, key)
}

func IdempotencyKeyFromContext(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(idempotencyKey).(string)

	return key, ok
}

// Session carries the caller's credentials to the booking API.
type Session interface {
	AccessToken() string
}

// Refresher is a Session that can renew its access token after a 401.
type Refresher interface {
	Session
	RefreshToken() string
	SetAccessToken(token string)
}

type BearerSession struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

func NewBearerSession(access, refresh string) *BearerSession {
	return &BearerSession{access: access, refresh: refresh}
}

func (s *BearerSession) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.access
}

func (s *BearerSession) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.refresh
}

func (s *BearerSession) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.access = token
}

func NewContextWithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)

	return s, ok && s != nil
}
