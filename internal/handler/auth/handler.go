package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/Jawadyyy/healthmate-portal/internal/handler"
	"github.com/Jawadyyy/healthmate-portal/internal/middleware"
	"github.com/Jawadyyy/healthmate-portal/internal/model"
	"github.com/Jawadyyy/healthmate-portal/internal/service/auth"
	apperrors "github.com/Jawadyyy/healthmate-portal/pkg/errors"
	"github.com/Jawadyyy/healthmate-portal/pkg/httputil"
)

type Handler struct {
	svc            *auth.Service
	cookies        handler.CookieConfig
	requireSession gin.HandlerFunc
}

func NewHandler(svc *auth.Service, cookies handler.CookieConfig, requireSession gin.HandlerFunc) *Handler {
	return &Handler{svc: svc, cookies: cookies, requireSession: requireSession}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/login/:role", h.Login)
		auth.POST("/signup", h.Signup)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/logout", h.Logout)
	}

	protected := auth.Group("", h.requireSession)
	{
		protected.POST("/signup/profile", middleware.RequireRole(model.RolePatient), h.CompleteSignup)
		protected.GET("/signup/status", h.SignupStatus)
		protected.GET("/me", h.Me)
		protected.GET("/session", h.Session)
	}
}

func (h *Handler) Login(c *gin.Context) {
	role, ok := model.ParseRole(c.Param("role"))
	if !ok {
		httputil.RespondWithError(c, apperrors.NotFound("Portal", nil))
		return
	}

	var req model.LoginRequest
	if !handler.Bind(c, &req) {
		return
	}

	clientKey := h.cookies.SessionID(c)
	if clientKey == "" {
		clientKey = c.ClientIP()
	}

	result, err := h.svc.Login(c.Request.Context(), role, &req, clientKey)
	if err != nil {
		httputil.RespondWithErrorData(c, err, result)
		return
	}

	if old := h.cookies.SessionID(c); old != "" && old != result.Session.ID {
		h.svc.ReplaceSession(c.Request.Context(), old)
	}
	h.cookies.SetSession(c, result.Session)
	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if !handler.Bind(c, &req) {
		return
	}

	sess, err := h.svc.Signup(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.cookies.SetSession(c, sess)
	httputil.RespondCreated(c, sess)
}

func (h *Handler) CompleteSignup(c *gin.Context) {
	sess, ok := handler.Session(c)
	if !ok {
		return
	}

	var req model.PatientProfile
	if !handler.Bind(c, &req) {
		return
	}

	saved, err := h.svc.CompleteSignup(c.Request.Context(), sess, &req)
	if err != nil {
		httputil.RespondWithErrorData(c, err, gin.H{"signupPhase": sess.SignupPhase})
		return
	}

	httputil.RespondCreated(c, gin.H{
		"profile":     saved,
		"signupPhase": sess.SignupPhase,
	})
}

func (h *Handler) SignupStatus(c *gin.Context) {
	sess, ok := handler.Session(c)
	if !ok {
		return
	}
	httputil.RespondWithSuccess(c, gin.H{
		"signupPhase": sess.SignupPhase,
		"complete":    sess.SignupPhase != model.SignupPhaseProfile,
	})
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if !handler.Bind(c, &req) {
		return
	}

	msg, err := h.svc.ForgotPassword(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, msg)
}

// Logout always clears the cookie, even when the session is already gone.
func (h *Handler) Logout(c *gin.Context) {
	if id := h.cookies.SessionID(c); id != "" {
		if err := h.svc.Logout(c.Request.Context(), id); err != nil {
			httputil.RespondWithError(c, err)
			return
		}
	}
	h.cookies.Clear(c)
	httputil.RespondWithMessage(c, "Logged out successfully")
}

func (h *Handler) Me(c *gin.Context) {
	sess, ok := handler.Session(c)
	if !ok {
		return
	}

	user, err := h.svc.Me(c.Request.Context(), sess)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, user)
}

func (h *Handler) Session(c *gin.Context) {
	sess, ok := handler.Session(c)
	if !ok {
		return
	}
	httputil.RespondWithSuccess(c, sess)
}
