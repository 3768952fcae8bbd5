package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Jawadyyy/healthmate-portal/internal/email"
	"github.com/Jawadyyy/healthmate-portal/internal/model"
	"github.com/Jawadyyy/healthmate-portal/internal/service/profile"
	"github.com/Jawadyyy/healthmate-portal/internal/session"
	"github.com/Jawadyyy/healthmate-portal/pkg/apiclient"
	apperrors "github.com/Jawadyyy/healthmate-portal/pkg/errors"
	"github.com/Jawadyyy/healthmate-portal/pkg/logger"
	"github.com/Jawadyyy/healthmate-portal/pkg/metrics"
	"github.com/Jawadyyy/healthmate-portal/pkg/validator"
)

const (
	MsgForgotPassword = "If an account exists for this email, you will receive password reset instructions shortly."
	MsgLocked         = "Too many failed login attempts. Please try again later."
	MsgSignupDone     = "Signup is already complete"
	MsgNoSignup       = "No signup in progress for this session"
)

// errTokenExpired marks a backend token that was dead on arrival. The
// credentials were accepted, so it is not a failed attempt.
var errTokenExpired = errors.New("login token already expired")

var authMessages = validator.Messages{
	"LoginRequest.Email.required":            "Email is required",
	"LoginRequest.Email.email":               "Please enter a valid email address",
	"LoginRequest.Password.required":         "Password is required",
	"SignupRequest.Name.required":            "Full name is required",
	"SignupRequest.Email.required":           "Email is required",
	"SignupRequest.Email.email":              "Please enter a valid email address",
	"SignupRequest.Password.required":        "Password is required",
	"SignupRequest.Password.min":             "Password must be at least 6 characters",
	"SignupRequest.ConfirmPassword.required": "Please confirm your password",
	"SignupRequest.ConfirmPassword.eqfield":  "Passwords do not match",
	"ForgotPasswordRequest.Email.required":   "Email is required",
	"ForgotPasswordRequest.Email.email":      "Please enter a valid email address",
}

// Service runs login, the two-phase patient signup and logout on top of the
// backend auth endpoints and the session manager.
type Service struct {
	api       *apiclient.Client
	sessions  *session.Manager
	profiles  *profile.Service
	mailer    email.Service
	guard     *Guard
	validator validator.Validator
	log       *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

type Deps struct {
	API      *apiclient.Client
	Sessions *session.Manager
	Profiles *profile.Service
	Mailer   email.Service
	Guard    *Guard
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
}

func NewService(d Deps) *Service {
	if d.Mailer == nil {
		d.Mailer = email.NopService{}
	}
	if d.Guard == nil {
		d.Guard = NewGuard(GuardConfig{}, d.Metrics)
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	return &Service{
		api:       d.API,
		sessions:  d.Sessions,
		profiles:  d.Profiles,
		mailer:    d.Mailer,
		guard:     d.Guard,
		validator: validator.New(validator.WithMessages(authMessages)),
		log:       d.Logger,
		metrics:   d.Metrics,
		now:       time.Now,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginPayload struct {
	Token       string      `json:"token"`
	AccessToken string      `json:"accessToken"`
	User        *model.User `json:"user"`
}

func (p loginPayload) token() string {
	if p.Token != "" {
		return p.Token
	}
	return p.AccessToken
}

// Login authenticates against /auth/login/{role} and opens a session. Admin
// logins go through the guard keyed by clientKey; the returned result always
// carries the attempts left, also alongside an error.
func (s *Service) Login(ctx context.Context, role model.Role, req *model.LoginRequest, clientKey string) (*model.LoginResult, error) {
	guarded := role == model.RoleAdmin
	result := &model.LoginResult{AttemptsRemaining: s.guard.max}

	if guarded {
		st := s.guard.Check(clientKey)
		applyStatus(result, st)
		if st.Locked {
			return result, apperrors.TooManyRequests(MsgLocked, nil)
		}
	}

	if err := s.validator.Validate(req); err != nil {
		return result, err
	}

	token, user, err := s.authenticate(ctx, role, req)
	if err != nil {
		if s.metrics != nil {
			s.metrics.LoginFailures.WithLabelValues(string(role)).Inc()
		}
		if guarded && countsAsFailedAttempt(err) {
			st := s.guard.Fail(clientKey)
			applyStatus(result, st)
			s.log.Warn("admin login failed", "attempts", st.Attempts, "locked", st.Locked)
			if st.Locked {
				return result, apperrors.TooManyRequests(MsgLocked, err)
			}
		}
		return result, err
	}

	sess, err := s.sessions.Create(ctx, session.NewSession{
		Token: token,
		Role:  role,
		Email: firstNonEmpty(user.Email, req.Email),
		Name:  user.Name,
	})
	if err != nil {
		return result, apperrors.Internal(fmt.Errorf("failed to create session: %w", err))
	}

	if guarded {
		s.guard.Reset(clientKey)
	}
	result.Session = sess
	result.AttemptsRemaining = s.guard.max
	result.Locked = false
	result.LockedUntil = nil
	return result, nil
}

func (s *Service) authenticate(ctx context.Context, role model.Role, req *model.LoginRequest) (string, model.User, error) {
	var payload loginPayload
	path := "/auth/login/" + string(role)
	if err := s.api.Post(ctx, path, credentials{Email: req.Email, Password: req.Password}, &payload); err != nil {
		return "", model.User{}, apperrors.FromAPI(fmt.Errorf("failed to log in: %w", err))
	}
	token := payload.token()
	if token == "" {
		return "", model.User{}, apperrors.Upstream(http.StatusBadGateway, "", fmt.Errorf("login response for %s carried no token", role))
	}

	if claims, ok := session.InspectToken(token); ok {
		if claims.Role != "" && claims.Role != role {
			return "", model.User{}, apperrors.Forbidden(fmt.Sprintf("This account cannot sign in to the %s portal", role))
		}
		if !claims.ExpiresAt.IsZero() && !claims.ExpiresAt.After(s.now()) {
			return "", model.User{}, apperrors.Unauthorized(fmt.Errorf("%s login: %w", role, errTokenExpired))
		}
	}

	var user model.User
	if payload.User != nil {
		user = *payload.User
	}
	if user.Name == "" {
		if me, err := s.fetchMe(apiclient.WithToken(ctx, token)); err == nil {
			user = *me
		} else {
			s.log.Debug("could not read profile after login", "role", string(role), "error", err.Error())
		}
	}
	return token, user, nil
}

// Signup is phase one of patient registration: create the account, log in
// and keep the token in a session whose phase is "profile".
func (s *Service) Signup(ctx context.Context, req *model.SignupRequest) (*model.Session, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	register := struct {
		Name     string     `json:"name"`
		Email    string     `json:"email"`
		Password string     `json:"password"`
		Role     model.Role `json:"role"`
	}{req.Name, req.Email, req.Password, model.RolePatient}
	if err := s.api.Post(ctx, "/auth/register", register, nil); err != nil {
		return nil, apperrors.FromAPI(fmt.Errorf("failed to register patient: %w", err))
	}

	token, user, err := s.authenticate(ctx, model.RolePatient, &model.LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Create(ctx, session.NewSession{
		Token:       token,
		Role:        model.RolePatient,
		Email:       req.Email,
		Name:        firstNonEmpty(user.Name, req.Name),
		SignupPhase: model.SignupPhaseProfile,
	})
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to create session: %w", err))
	}
	s.log.Info("patient account registered", "session_id", sess.ID)
	return sess, nil
}

// CompleteSignup is phase two: create the patient profile with the token
// stored in phase one. A failure leaves the session in the "profile" phase
// so the caller can retry this step alone.
func (s *Service) CompleteSignup(ctx context.Context, sess *model.Session, p *model.PatientProfile) (*model.PatientProfile, error) {
	if sess.Role != model.RolePatient {
		return nil, apperrors.Forbidden("Only patients can complete signup")
	}
	switch sess.SignupPhase {
	case model.SignupPhaseProfile:
	case model.SignupPhaseComplete:
		return nil, apperrors.BadRequest(MsgSignupDone, nil)
	default:
		return nil, apperrors.BadRequest(MsgNoSignup, nil)
	}

	saved, err := s.profiles.CreatePatient(apiclient.WithToken(ctx, sess.Token), p)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.SetSignupPhase(ctx, sess, model.SignupPhaseComplete); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to update signup phase: %w", err))
	}
	if err := s.mailer.SendWelcome(ctx, sess.Email, sess.Name); err != nil {
		s.log.Error(err, "failed to send welcome mail", "session_id", sess.ID)
	}
	return saved, nil
}

// ForgotPassword answers with the same message whether or not the address is
// known. Nothing is sent upstream.
func (s *Service) ForgotPassword(ctx context.Context, req *model.ForgotPasswordRequest) (string, error) {
	if err := s.validator.Validate(req); err != nil {
		return "", err
	}
	if s.mailer.Enabled() {
		if err := s.mailer.SendPasswordResetNotice(ctx, req.Email); err != nil {
			s.log.Error(err, "failed to send password reset notice")
		}
	}
	return MsgForgotPassword, nil
}

// ReplaceSession drops the session a fresh login supersedes. The new login
// already succeeded, so a failure here is only logged.
func (s *Service) ReplaceSession(ctx context.Context, oldID string) {
	if err := s.sessions.Destroy(ctx, oldID); err != nil {
		s.log.Error(err, "failed to destroy replaced session", "session_id", oldID)
	}
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to destroy session: %w", err))
	}
	return nil
}

// Me reads the account behind the session from the backend.
func (s *Service) Me(ctx context.Context, sess *model.Session) (*model.User, error) {
	u, err := s.fetchMe(apiclient.WithToken(ctx, sess.Token))
	if err != nil {
		return nil, apperrors.FromAPI(fmt.Errorf("failed to get current user: %w", err))
	}
	if u.Role == "" {
		u.Role = sess.Role
	}
	return u, nil
}

func (s *Service) fetchMe(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := s.api.Get(ctx, "/auth/me", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// countsAsFailedAttempt is true when the backend rejected the credentials,
// not when it could not be reached.
func countsAsFailedAttempt(err error) bool {
	if errors.Is(err, errTokenExpired) {
		return false
	}
	appErr, ok := apperrors.As(err)
	if !ok {
		return false
	}
	switch appErr.Code {
	case apperrors.ErrUnauthorized, apperrors.ErrForbidden:
		return true
	case apperrors.ErrUpstream:
		return appErr.HTTPStatus() < http.StatusInternalServerError
	}
	return false
}

func applyStatus(r *model.LoginResult, st GuardStatus) {
	r.AttemptsRemaining = st.Remaining
	r.Locked = st.Locked
	if st.Locked {
		until := st.LockedUntil
		r.LockedUntil = &until
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
