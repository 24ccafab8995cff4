package web

import (
	"context"

	"github.com/JonMunkholm/calllist/internal/core"
)

type ctxKey int

const ctxKeySession ctxKey = iota

// withSession attaches the caller's import session to ctx.
func withSession(ctx context.Context, s *core.Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, s)
}

// sessionFrom returns the session set by the session middleware.
func sessionFrom(ctx context.Context) *core.Session {
	s, _ := ctx.Value(ctxKeySession).(*core.Session)
	return s
}
