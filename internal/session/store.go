// Package session keeps the portal's server-side session records. A browser
// only ever holds the opaque session id; the backend token stays here,
// encrypted at rest.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/Jawadyyy/healthmate-portal/internal/model"
)

var ErrNotFound = errors.New("session not found")

// Store persists session records. Implementations must be safe for
// concurrent use. Records are stored as given; token encryption happens in
// the Manager.
type Store interface {
	Get(ctx context.Context, id string) (*model.Session, error)
	Save(ctx context.Context, s *model.Session) error
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes records whose expiry is at or before now and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
	Name() string
}

// record is the serialized form used by the key-value backends. Session.Token
// is hidden from JSON so it cannot leak into API responses.
type record struct {
	ID          string            `json:"id"`
	Token       string            `json:"token"`
	Role        model.Role        `json:"role"`
	IsLoggedIn  bool              `json:"isLoggedIn"`
	Email       string            `json:"email"`
	Name        string            `json:"name"`
	SignupPhase model.SignupPhase `json:"signupPhase"`
	ExpiresAt   time.Time         `json:"expiresAt"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func toRecord(s *model.Session) record {
	return record{
		ID:          s.ID,
		Token:       s.Token,
		Role:        s.Role,
		IsLoggedIn:  s.IsLoggedIn,
		Email:       s.Email,
		Name:        s.Name,
		SignupPhase: s.SignupPhase,
		ExpiresAt:   s.ExpiresAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func (r record) session() *model.Session {
	return &model.Session{
		ID:          r.ID,
		Token:       r.Token,
		Role:        r.Role,
		IsLoggedIn:  r.IsLoggedIn,
		Email:       r.Email,
		Name:        r.Name,
		SignupPhase: r.SignupPhase,
		ExpiresAt:   r.ExpiresAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// ttlUntil returns how long a record should live, never less than a second.
func ttlUntil(expiresAt, now time.Time) time.Duration {
	ttl := expiresAt.Sub(now)
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}
