package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jawadyyy/healthmate-portal/internal/model"
	"github.com/Jawadyyy/healthmate-portal/pkg/metrics"
)

const testSecret = "0123456789abcdef-test-secret"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-key"))
	require.NoError(t, err)
	return token
}

func newTestManager(t *testing.T, ttl time.Duration) (*Manager, *MemoryStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(time.Minute)
	store.now = clock.Now
	m, err := NewManager(store, Config{TTL: ttl, Secret: testSecret}, WithClock(clock.Now))
	require.NoError(t, err)
	return m, store, clock
}

func TestNewManager_WeakSecret(t *testing.T) {
	_, err := NewManager(NewMemoryStore(time.Minute), Config{Secret: "short"})
	assert.Error(t, err)
}

func TestManager_CreateAndLoad(t *testing.T) {
	m, store, _ := newTestManager(t, time.Hour)
	ctx := context.Background()

	s, err := m.Create(ctx, NewSession{Token: "opaque-token", Role: model.RoleDoctor, Email: "doc@example.com", Name: "Dr. Who"})
	require.NoError(t, err)
	assert.True(t, s.IsLoggedIn)
	assert.Equal(t, "opaque-token", s.Token)

	stored, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Token)
	assert.NotEqual(t, "opaque-token", stored.Token, "token must be encrypted at rest")

	loaded, err := m.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", loaded.Token)
	assert.Equal(t, model.RoleDoctor, loaded.Role)
	assert.Equal(t, "doc@example.com", loaded.Email)
}

func TestManager_ExpiryFromToken(t *testing.T) {
	m, _, clock := newTestManager(t, 24*time.Hour)
	ctx := context.Background()

	exp := clock.t.Add(2 * time.Hour)
	token := signedToken(t, jwt.MapClaims{"id": "u1", "role": "patient", "exp": exp.Unix()})

	s, err := m.Create(ctx, NewSession{Token: token, Role: model.RolePatient})
	require.NoError(t, err)
	assert.True(t, s.ExpiresAt.Equal(exp))

	clock.t = exp.Add(time.Second)
	_, err = m.Load(ctx, s.ID)
	assert.Error(t, err)
}

func TestManager_TTLCapsLongTokens(t *testing.T) {
	m, _, clock := newTestManager(t, time.Hour)
	token := signedToken(t, jwt.MapClaims{"exp": clock.t.Add(30 * 24 * time.Hour).Unix()})

	s, err := m.Create(context.Background(), NewSession{Token: token, Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.True(t, s.ExpiresAt.Equal(clock.t.Add(time.Hour)))
}

func TestManager_LoggedOutSessionRejected(t *testing.T) {
	m, _, _ := newTestManager(t, time.Hour)
	ctx := context.Background()

	s, err := m.Create(ctx, NewSession{Token: "tok", Role: model.RolePatient})
	require.NoError(t, err)

	s.IsLoggedIn = false
	require.NoError(t, m.Update(ctx, s))

	_, err = m.Load(ctx, s.ID)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestManager_LoadUnknown(t *testing.T) {
	m, _, _ := newTestManager(t, time.Hour)
	ctx := context.Background()

	_, err := m.Load(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Load(ctx, "5f0c6f0e-8a43-4c53-9d1f-9d0f3a0c8e11")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_SignupPhasePersisted(t *testing.T) {
	m, _, _ := newTestManager(t, time.Hour)
	ctx := context.Background()

	s, err := m.Create(ctx, NewSession{Token: "tok", Role: model.RolePatient, SignupPhase: model.SignupPhaseProfile})
	require.NoError(t, err)

	loaded, err := m.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SignupPhaseProfile, loaded.SignupPhase)

	require.NoError(t, m.SetSignupPhase(ctx, loaded, model.SignupPhaseComplete))
	loaded, err = m.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SignupPhaseComplete, loaded.SignupPhase)
	assert.Equal(t, "tok", loaded.Token)
}

func TestManager_DestroyAndPurge(t *testing.T) {
	reg := prometheus.NewRegistry()
	mt := metrics.NewMetrics("test", reg)

	clock := &fakeClock{t: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(time.Minute)
	store.now = clock.Now
	m, err := NewManager(store, Config{TTL: time.Hour, Secret: testSecret}, WithClock(clock.Now), WithMetrics(mt))
	require.NoError(t, err)
	ctx := context.Background()

	a, err := m.Create(ctx, NewSession{Token: "a", Role: model.RolePatient})
	require.NoError(t, err)
	b, err := m.Create(ctx, NewSession{Token: "b", Role: model.RolePatient})
	require.NoError(t, err)

	require.NoError(t, m.Destroy(ctx, a.ID))
	_, err = m.Load(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	clock.t = clock.t.Add(2 * time.Hour)
	n, err := m.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, float64(1), testutil.ToFloat64(mt.SessionsPurged))

	_, err = store.Get(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInspectToken(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	token := signedToken(t, jwt.MapClaims{"id": "user-1", "role": "doctor", "exp": exp.Unix()})

	claims, ok := InspectToken(token)
	require.True(t, ok)
	assert.Equal(t, model.RoleDoctor, claims.Role)
	assert.Equal(t, "user-1", claims.Subject)
	assert.True(t, claims.ExpiresAt.Equal(exp))

	_, ok = InspectToken("opaque")
	assert.False(t, ok)
}
