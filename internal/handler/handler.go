// Package handler holds the pieces every portal handler shares: body
// binding, the session cookie and list paging.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jawadyyy/healthmate-portal/internal/middleware"
	"github.com/Jawadyyy/healthmate-portal/internal/model"
	apperrors "github.com/Jawadyyy/healthmate-portal/pkg/errors"
	"github.com/Jawadyyy/healthmate-portal/pkg/httputil"
)

const (
	DefaultCookieName = "hm_session"
	maxPageSize       = 100
)

// Bind decodes the JSON body into req and answers 400 when it is malformed.
// Field rules are checked by the services, not here.
func Bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("Invalid request body", err))
		return false
	}
	return true
}

// BindQuery is Bind for query strings.
func BindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("Invalid query parameters", err))
		return false
	}
	return true
}

// Session returns the caller's session. Routes using it sit behind
// middleware.RequireSession, so a missing session answers 401.
func Session(c *gin.Context) (*model.Session, bool) {
	s, ok := middleware.CurrentSession(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(nil))
		return nil, false
	}
	return s, true
}

type CookieConfig struct {
	Name   string
	Secure bool
	Domain string
}

// SetSession writes the session cookie; it expires with the session.
func (cc CookieConfig) SetSession(c *gin.Context, s *model.Session) {
	maxAge := int(time.Until(s.ExpiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cc.name(), s.ID, maxAge, "/", cc.Domain, cc.Secure, true)
}

func (cc CookieConfig) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cc.name(), "", -1, "/", cc.Domain, cc.Secure, true)
}

// SessionID reads the cookie without requiring a valid session.
func (cc CookieConfig) SessionID(c *gin.Context) string {
	id, _ := c.Cookie(cc.name())
	return id
}

func (cc CookieConfig) name() string {
	if cc.Name == "" {
		return DefaultCookieName
	}
	return cc.Name
}

// RespondList answers with items, or with one page of them when the query
// names a page.
func RespondList[T any](c *gin.Context, items []T) {
	if c.Query("page") == "" {
		httputil.RespondWithSuccess(c, items)
		return
	}

	var p model.Pagination
	if !BindQuery(c, &p) {
		return
	}
	p = p.Normalize(maxPageSize)

	start := (p.Page - 1) * p.PageSize
	if start > len(items) {
		start = len(items)
	}
	end := start + p.PageSize
	if end > len(items) {
		end = len(items)
	}
	httputil.RespondWithPagination(c, items[start:end], p.Page, p.PageSize, len(items))
}
