package user

import "context"

type sessionKey struct{}

// WithSession returns a copy of ctx carrying the authenticated identity.
func WithSession(ctx context.Context, s *SessionUser) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the identity attached by WithSession.
func SessionFromContext(ctx context.Context) (*SessionUser, bool) {
	s, ok := ctx.Value(sessionKey{}).(*SessionUser)
	return s, ok && s != nil
}
