package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/fittracker/fittracker/internal/platform/apperr"
)

// ErrUnauthenticated is returned by every scoped operation called without a
// usable session.
var ErrUnauthenticated = apperr.ErrUnauthenticated

// Session identifies the trainer on whose behalf an operation runs. Services
// receive it explicitly; it is never looked up from ambient state.
type Session struct {
	UserID    uuid.UUID
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// Require fails when the session is missing or carries no user.
func (s *Session) Require() error {
	if s == nil || s.UserID == uuid.Nil {
		return ErrUnauthenticated
	}
	return nil
}

type contextKey string

const sessionKey contextKey = "session"

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey).(*Session)
	return s
}

// FromEcho returns the session the JWT middleware attached to the request,
// or nil.
func FromEcho(c echo.Context) *Session {
	return SessionFromContext(c.Request().Context())
}
