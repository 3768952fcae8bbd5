package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Jawadyyy/healthmate-portal/internal/model"
	"github.com/Jawadyyy/healthmate-portal/pkg/logger"
	"github.com/Jawadyyy/healthmate-portal/pkg/metrics"
	"github.com/Jawadyyy/healthmate-portal/pkg/security"
)

// ErrExpired is returned by Load for a session past its expiry or logged out.
var ErrExpired = errors.New("session expired")

const tokenKeyPurpose = "healthmate-portal/session-token"

type Config struct {
	TTL    time.Duration
	Secret string
}

// Manager creates and resolves sessions on top of a Store, encrypting the
// backend token before it reaches the store.
type Manager struct {
	store   Store
	enc     security.Encryptor
	ttl     time.Duration
	now     func() time.Time
	log     *logger.Logger
	metrics *metrics.Metrics
}

type ManagerOption func(*Manager)

func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

func WithLogger(l *logger.Logger) ManagerOption {
	return func(m *Manager) { m.log = l }
}

func WithMetrics(mt *metrics.Metrics) ManagerOption {
	return func(m *Manager) { m.metrics = mt }
}

func NewManager(store Store, cfg Config, opts ...ManagerOption) (*Manager, error) {
	enc, err := security.NewSecretEncryptor(cfg.Secret, tokenKeyPurpose)
	if err != nil {
		return nil, fmt.Errorf("failed to init session encryption: %w", err)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	m := &Manager{
		store: store,
		enc:   enc,
		ttl:   ttl,
		now:   time.Now,
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// NewSession describes a freshly authenticated browser.
type NewSession struct {
	Token       string
	Role        model.Role
	Email       string
	Name        string
	SignupPhase model.SignupPhase
}

// Create stores a logged-in session for token. Expiry comes from the token's
// exp claim when it has one, capped by the configured TTL.
func (m *Manager) Create(ctx context.Context, in NewSession) (*model.Session, error) {
	if in.Token == "" {
		return nil, errors.New("token is required")
	}

	now := m.now()
	s := &model.Session{
		ID:          uuid.NewString(),
		Token:       in.Token,
		Role:        in.Role,
		IsLoggedIn:  true,
		Email:       in.Email,
		Name:        in.Name,
		SignupPhase: in.SignupPhase,
		ExpiresAt:   m.expiryFor(in.Token, now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *Manager) expiryFor(token string, now time.Time) time.Time {
	expires := now.Add(m.ttl)
	if claims, ok := InspectToken(token); ok && !claims.ExpiresAt.IsZero() && claims.ExpiresAt.Before(expires) {
		expires = claims.ExpiresAt
	}
	return expires
}

// Load returns the active session for id with its token decrypted.
func (m *Manager) Load(ctx context.Context, id string) (*model.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	stored, err := m.store.Get(ctx, id)
	m.observe("get", err)
	if err != nil {
		return nil, err
	}

	s := *stored
	if s.Token != "" {
		token, err := security.DecryptString(m.enc, s.Token)
		if err != nil {
			m.log.Warn("discarding session with undecryptable token", "session_id", id)
			return nil, ErrNotFound
		}
		s.Token = token
	}
	if !s.Active(m.now()) {
		return nil, ErrExpired
	}
	return &s, nil
}

// Update persists changes to a loaded session.
func (m *Manager) Update(ctx context.Context, s *model.Session) error {
	s.UpdatedAt = m.now()
	return m.save(ctx, s)
}

// SetSignupPhase records how far a patient registration got.
func (m *Manager) SetSignupPhase(ctx context.Context, s *model.Session, phase model.SignupPhase) error {
	s.SignupPhase = phase
	return m.Update(ctx, s)
}

// Destroy removes the session. Unknown ids are not an error.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	err := m.store.Delete(ctx, id)
	m.observe("delete", err)
	return err
}

// Purge deletes expired sessions and returns the count.
func (m *Manager) Purge(ctx context.Context) (int64, error) {
	n, err := m.store.DeleteExpired(ctx, m.now())
	m.observe("purge", err)
	if err == nil && m.metrics != nil {
		m.metrics.SessionsPurged.Add(float64(n))
	}
	return n, err
}

func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

func (m *Manager) Backend() string {
	return m.store.Name()
}

func (m *Manager) save(ctx context.Context, s *model.Session) error {
	stored := *s
	if stored.Token != "" {
		sealed, err := security.EncryptString(m.enc, stored.Token)
		if err != nil {
			return fmt.Errorf("failed to encrypt session token: %w", err)
		}
		stored.Token = sealed
	}
	err := m.store.Save(ctx, &stored)
	m.observe("save", err)
	return err
}

func (m *Manager) observe(op string, err error) {
	if m.metrics == nil {
		return
	}
	status := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		status = "miss"
	case err != nil:
		status = "error"
	}
	m.metrics.SessionOperations.WithLabelValues(m.store.Name(), op, status).Inc()
}
