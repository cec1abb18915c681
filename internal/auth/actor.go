package auth

import (
	"context"
	"strconv"
)

// Actor is the signed-in operator a request acts on behalf of.
type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// UserID returns the numeric user id backing the actor, or 0.
func (a *Actor) UserID() int64 {
	if a == nil {
		return 0
	}
	id, err := strconv.ParseInt(a.ID, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

type ctxKey string

const contextSessionKey ctxKey = "session"

func ContextWithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextSessionKey, s)
}

// SessionFromContext returns the resolved session. A request that never went
// through session resolution reads as settled and anonymous.
func SessionFromContext(ctx context.Context) Session {
	if s, ok := ctx.Value(contextSessionKey).(Session); ok {
		return s
	}
	return Session{Settled: true}
}

func ActorFromContext(ctx context.Context) (*Actor, bool) {
	s := SessionFromContext(ctx)
	return s.Actor, s.Actor != nil
}
