// Package session carries the authenticated caller through request contexts.
package session

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/wsdrive/internal/server/auth"
)

// Session is the caller identity derived from a verified access token.
type Session struct {
	UserID     string
	Workspaces []string
	Admin      bool
}

type ctxKey struct{}

func FromClaims(c *auth.Claims) Session {
	return Session{UserID: c.UserID, Workspaces: slices.Clone(c.Workspaces), Admin: c.Admin}
}

// CanAccess reports whether the session is scoped to workspace ws.
func (s Session) CanAccess(ws string) bool {
	return slices.Contains(s.Workspaces, ws)
}

func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}
