package model

import "time"

// Role gates which portal and which backend endpoints a session may use.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// ParseRole validates a role from a path or token claim.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RolePatient, RoleDoctor, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// SignupPhase tracks the two-step patient registration.
type SignupPhase string

const (
	SignupPhaseNone     SignupPhase = ""
	SignupPhaseProfile  SignupPhase = "profile"
	SignupPhaseComplete SignupPhase = "complete"
)

// Session is the portal's server-side view of a logged-in browser.
type Session struct {
	ID          string      `json:"id" db:"id"`
	Token       string      `json:"-" db:"token"`
	Role        Role        `json:"role" db:"role"`
	IsLoggedIn  bool        `json:"isLoggedIn" db:"is_logged_in"`
	Email       string      `json:"email" db:"email"`
	Name        string      `json:"name" db:"name"`
	SignupPhase SignupPhase `json:"signupPhase,omitempty" db:"signup_phase"`
	ExpiresAt   time.Time   `json:"expiresAt" db:"expires_at"`
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time   `json:"updatedAt" db:"updated_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Active is true for a logged-in, unexpired session holding a token.
func (s *Session) Active(now time.Time) bool {
	return s != nil && s.IsLoggedIn && s.Token != "" && !s.Expired(now)
}

// User is the backend account behind a session, read via /auth/me.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// LoginRequest is the form posted to any of the three login pages.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest is phase one of patient registration.
type SignupRequest struct {
	Name            string `json:"name" validate:"notblank"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// ForgotPasswordRequest is the patient forgot-password form.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// LoginResult is what the portal returns after a login attempt.
type LoginResult struct {
	Session           *Session   `json:"session,omitempty"`
	AttemptsRemaining int        `json:"attemptsRemaining"`
	Locked            bool       `json:"locked"`
	LockedUntil       *time.Time `json:"lockedUntil,omitempty"`
}
