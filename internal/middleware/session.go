package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Jawadyyy/healthmate-portal/internal/model"
	"github.com/Jawadyyy/healthmate-portal/internal/session"
	"github.com/Jawadyyy/healthmate-portal/pkg/apiclient"
	apperrors "github.com/Jawadyyy/healthmate-portal/pkg/errors"
	"github.com/Jawadyyy/healthmate-portal/pkg/httputil"
)

const ContextSession = "session"

// SessionLoader resolves a session id from the cookie.
type SessionLoader interface {
	Load(ctx context.Context, id string) (*model.Session, error)
}

// RequireSession loads the session named by the cookie and puts its token on
// the request context for backend calls. Missing, expired and logged-out
// sessions get 401.
func RequireSession(sessions SessionLoader, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(cookieName)
		if err != nil || id == "" {
			abortUnauthorized(c, err)
			return
		}

		s, err := sessions.Load(c.Request.Context(), id)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) && !errors.Is(err, session.ErrExpired) {
				httputil.RespondWithError(c, apperrors.Internal(err))
				c.Abort()
				return
			}
			abortUnauthorized(c, err)
			return
		}

		c.Set(ContextSession, s)
		c.Request = c.Request.WithContext(apiclient.WithToken(c.Request.Context(), s.Token))
		c.Next()
	}
}

// RequireRole must run after RequireSession.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := CurrentSession(c)
		if !ok {
			abortUnauthorized(c, nil)
			return
		}
		for _, r := range roles {
			if s.Role == r {
				c.Next()
				return
			}
		}
		httputil.RespondWithError(c, apperrors.Forbidden("You do not have access to this page"))
		c.Abort()
	}
}

// CurrentSession returns the session loaded by RequireSession.
func CurrentSession(c *gin.Context) (*model.Session, bool) {
	v, ok := c.Get(ContextSession)
	if !ok {
		return nil, false
	}
	s, ok := v.(*model.Session)
	return s, ok && s != nil
}

func abortUnauthorized(c *gin.Context, err error) {
	httputil.RespondWithError(c, apperrors.Unauthorized(err))
	c.Abort()
}
