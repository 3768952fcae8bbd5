package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jawadyyy/healthmate-portal/internal/model"
	"github.com/Jawadyyy/healthmate-portal/internal/service/profile"
	"github.com/Jawadyyy/healthmate-portal/internal/session"
	"github.com/Jawadyyy/healthmate-portal/pkg/apiclient"
	apperrors "github.com/Jawadyyy/healthmate-portal/pkg/errors"
	"github.com/Jawadyyy/healthmate-portal/pkg/logger"
)

type route func(w http.ResponseWriter, r *http.Request)

// fakeBackend answers by "METHOD /path" and records every call.
type fakeBackend struct {
	mu     sync.Mutex
	routes map[string]route
	calls  []string
	auth   map[string]string
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	b.mu.Lock()
	b.calls = append(b.calls, key)
	b.auth[key] = r.Header.Get("Authorization")
	h, ok := b.routes[key]
	b.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message":"not found"}`)
		return
	}
	h(w, r)
}

func (b *fakeBackend) count(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c == key {
			n++
		}
	}
	return n
}

func respond(status int, body string) route {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

func roleToken(t *testing.T, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   "u1",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("backend-key"))
	require.NoError(t, err)
	return token
}

func newTestService(t *testing.T, routes map[string]route) (*Service, *fakeBackend, *session.Manager) {
	t.Helper()
	backend := &fakeBackend{routes: routes, auth: map[string]string{}}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	api := apiclient.New(apiclient.Config{BaseURL: srv.URL})
	sessions, err := session.NewManager(session.NewMemoryStore(time.Minute), session.Config{
		TTL:    time.Hour,
		Secret: "auth-service-test-secret-0123456789",
	})
	require.NoError(t, err)

	svc := NewService(Deps{
		API:      api,
		Sessions: sessions,
		Profiles: profile.NewService(api),
	})
	return svc, backend, sessions
}

func TestLogin_CreatesSession(t *testing.T) {
	token := roleToken(t, "doctor")
	svc, backend, sessions := newTestService(t, map[string]route{
		"POST /auth/login/doctor": respond(http.StatusOK, `{"data":{"token":"`+token+`"}}`),
		"GET /auth/me":            respond(http.StatusOK, `{"data":{"id":"u1","name":"Dr. Grey","email":"grey@example.com","role":"doctor"}}`),
	})

	res, err := svc.Login(context.Background(), model.RoleDoctor,
		&model.LoginRequest{Email: "grey@example.com", Password: "secret"}, "client")
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	assert.Equal(t, "Dr. Grey", res.Session.Name)
	assert.Equal(t, "Bearer "+token, backend.auth["GET /auth/me"])

	loaded, err := sessions.Load(context.Background(), res.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, token, loaded.Token)
	assert.Equal(t, model.RoleDoctor, loaded.Role)
	assert.True(t, loaded.IsLoggedIn)
}

func TestLogin_RoleMismatchIsRejected(t *testing.T) {
	svc, _, _ := newTestService(t, map[string]route{
		"POST /auth/login/doctor": respond(http.StatusOK, `{"token":"`+roleToken(t, "patient")+`"}`),
	})
	res, err := svc.Login(context.Background(), model.RoleDoctor,
		&model.LoginRequest{Email: "p@example.com", Password: "secret"}, "client")
	require.Error(t, err)
	assert.Nil(t, res.Session)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, appErr.HTTPStatus())
}

func TestLogin_ExpiredTokenIsRejected(t *testing.T) {
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   "u1",
		"role": "admin",
		"exp":  time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte("backend-key"))
	require.NoError(t, err)

	svc, backend, _ := newTestService(t, map[string]route{
		"POST /auth/login/admin": respond(http.StatusOK, `{"token":"`+expired+`","user":{"name":"Root"}}`),
	})

	res, err := svc.Login(context.Background(), model.RoleAdmin,
		&model.LoginRequest{Email: "admin@example.com", Password: "pw"}, "c")
	require.Error(t, err)
	assert.Nil(t, res.Session)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, appErr.HTTPStatus())
	assert.Equal(t, 0, backend.count("GET /auth/me"))

	// Correct credentials: the guard does not count it.
	assert.Equal(t, 5, res.AttemptsRemaining)
}

func TestLogin_TokenExpiryUsesServiceClock(t *testing.T) {
	token := roleToken(t, "doctor")
	svc, _, _ := newTestService(t, map[string]route{
		"POST /auth/login/doctor": respond(http.StatusOK, `{"token":"`+token+`","user":{"name":"Dr. Grey"}}`),
	})
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := svc.Login(context.Background(), model.RoleDoctor,
		&model.LoginRequest{Email: "grey@example.com", Password: "pw"}, "c")
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, appErr.HTTPStatus())
}

func TestLogin_InvalidEmailMakesNoCall(t *testing.T) {
	svc, backend, _ := newTestService(t, map[string]route{})
	_, err := svc.Login(context.Background(), model.RoleAdmin,
		&model.LoginRequest{Email: "not-an-email", Password: "x"}, "client")
	assert.EqualError(t, err, "Please enter a valid email address")
	assert.Empty(t, backend.calls)
}

func TestLogin_AdminLockout(t *testing.T) {
	svc, backend, _ := newTestService(t, map[string]route{
		"POST /auth/login/admin": respond(http.StatusUnauthorized, `{"message":"Invalid credentials"}`),
	})
	ctx := context.Background()
	req := &model.LoginRequest{Email: "admin@example.com", Password: "wrong"}

	for i := 1; i <= 4; i++ {
		res, err := svc.Login(ctx, model.RoleAdmin, req, "10.0.0.1")
		require.Error(t, err)
		assert.Equal(t, apperrors.MsgUnauthorized, err.(*apperrors.AppError).Message)
		assert.Equal(t, 5-i, res.AttemptsRemaining)
		assert.False(t, res.Locked)
	}

	res, err := svc.Login(ctx, model.RoleAdmin, req, "10.0.0.1")
	require.Error(t, err)
	assert.True(t, res.Locked)
	assert.NotNil(t, res.LockedUntil)
	assert.Equal(t, 0, res.AttemptsRemaining)

	// Locked: refused without reaching the backend.
	res, err = svc.Login(ctx, model.RoleAdmin, req, "10.0.0.1")
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, appErr.HTTPStatus())
	assert.Equal(t, MsgLocked, appErr.Message)
	assert.True(t, res.Locked)
	assert.Equal(t, 5, backend.count("POST /auth/login/admin"))

	// Another client is unaffected.
	res, _ = svc.Login(ctx, model.RoleAdmin, req, "10.0.0.2")
	assert.Equal(t, 4, res.AttemptsRemaining)
}

func TestLogin_AdminSuccessResetsCounter(t *testing.T) {
	fail := true
	token := roleToken(t, "admin")
	svc, _, _ := newTestService(t, map[string]route{
		"POST /auth/login/admin": func(w http.ResponseWriter, r *http.Request) {
			if fail {
				respond(http.StatusUnauthorized, `{"message":"Invalid credentials"}`)(w, r)
				return
			}
			respond(http.StatusOK, `{"token":"`+token+`","user":{"name":"Root","email":"admin@example.com"}}`)(w, r)
		},
	})
	ctx := context.Background()
	req := &model.LoginRequest{Email: "admin@example.com", Password: "pw"}

	svc.Login(ctx, model.RoleAdmin, req, "c")
	svc.Login(ctx, model.RoleAdmin, req, "c")
	fail = false
	res, err := svc.Login(ctx, model.RoleAdmin, req, "c")
	require.NoError(t, err)
	assert.Equal(t, 5, res.AttemptsRemaining)
	assert.Equal(t, 5, svc.guard.Check("c").Remaining)
}

func TestLogin_NetworkFailureDoesNotCount(t *testing.T) {
	svc, _, _ := newTestService(t, map[string]route{})
	svc.api = apiclient.New(apiclient.Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})

	res, err := svc.Login(context.Background(), model.RoleAdmin,
		&model.LoginRequest{Email: "admin@example.com", Password: "pw"}, "c")
	require.Error(t, err)
	assert.Equal(t, apperrors.MsgNetwork, err.(*apperrors.AppError).Message)
	assert.Equal(t, 5, res.AttemptsRemaining)
}

func validPatientProfile() *model.PatientProfile {
	return &model.PatientProfile{
		Age:                   30,
		Gender:                "female",
		BloodGroup:            "A+",
		Phone:                 "555-0101",
		Address:               "2 Elm St",
		EmergencyContactName:  "Sam",
		EmergencyContactPhone: "555-0102",
		MedicalConditions:     []string{"Asthma"},
	}
}

func TestSignup_ProfileFailureThenRetry(t *testing.T) {
	token := roleToken(t, "patient")
	profileAttempts := 0
	var profileBody map[string]interface{}

	createProfile := func(w http.ResponseWriter, r *http.Request) {
		profileAttempts++
		if profileAttempts == 1 {
			respond(http.StatusInternalServerError, `{"message":"Profile service unavailable"}`)(w, r)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &profileBody))
		respond(http.StatusCreated, `{"data":{"age":30,"gender":"female","bloodGroup":"A+","medicalConditions":"Asthma"}}`)(w, r)
	}

	svc, backend, sessions := newTestService(t, map[string]route{
		"POST /auth/register":      respond(http.StatusCreated, `{"message":"registered"}`),
		"POST /auth/login/patient": respond(http.StatusOK, `{"token":"`+token+`"}`),
		"GET /auth/me":             respond(http.StatusOK, `{"name":"Pat Doe","email":"pat@example.com"}`),
		"POST /patients/profile":   createProfile,
	})
	ctx := context.Background()

	sess, err := svc.Signup(ctx, &model.SignupRequest{
		Name: "Pat Doe", Email: "pat@example.com", Password: "secret1", ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, model.SignupPhaseProfile, sess.SignupPhase)

	_, err = svc.CompleteSignup(ctx, sess, validPatientProfile())
	require.Error(t, err)
	assert.Equal(t, "Profile service unavailable", err.(*apperrors.AppError).Message)

	stored, err := sessions.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, token, stored.Token)
	assert.Equal(t, model.RolePatient, stored.Role)
	assert.Equal(t, model.SignupPhaseProfile, stored.SignupPhase)

	saved, err := svc.CompleteSignup(ctx, stored, validPatientProfile())
	require.NoError(t, err)
	assert.Equal(t, []string{"Asthma"}, saved.MedicalConditions)
	assert.Equal(t, "Asthma", profileBody["medicalConditions"])

	assert.Equal(t, 1, backend.count("POST /auth/register"))
	assert.Equal(t, 2, backend.count("POST /patients/profile"))
	assert.Equal(t, "Bearer "+token, backend.auth["POST /patients/profile"])

	done, err := sessions.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SignupPhaseComplete, done.SignupPhase)

	_, err = svc.CompleteSignup(ctx, done, validPatientProfile())
	assert.EqualError(t, err, MsgSignupDone)
}

func TestSignup_Validation(t *testing.T) {
	svc, backend, _ := newTestService(t, map[string]route{})
	ctx := context.Background()

	_, err := svc.Signup(ctx, &model.SignupRequest{Name: "Pat", Email: "pat@example.com", Password: "12345", ConfirmPassword: "12345"})
	assert.EqualError(t, err, "Password must be at least 6 characters")

	_, err = svc.Signup(ctx, &model.SignupRequest{Name: "Pat", Email: "pat@example.com", Password: "123456", ConfirmPassword: "654321"})
	assert.EqualError(t, err, "Passwords do not match")
	assert.Empty(t, backend.calls)
}

func TestCompleteSignup_InvalidProfileKeepsPhase(t *testing.T) {
	svc, backend, _ := newTestService(t, map[string]route{})
	sess := &model.Session{Role: model.RolePatient, Token: "t", SignupPhase: model.SignupPhaseProfile}
	p := validPatientProfile()
	p.Age = 0

	_, err := svc.CompleteSignup(context.Background(), sess, p)
	assert.EqualError(t, err, "Age must be between 1 and 150")
	assert.Equal(t, model.SignupPhaseProfile, sess.SignupPhase)
	assert.Empty(t, backend.calls)
}

func TestForgotPassword_NeutralMessage(t *testing.T) {
	svc, backend, _ := newTestService(t, map[string]route{})

	msg, err := svc.ForgotPassword(context.Background(), &model.ForgotPasswordRequest{Email: "anyone@example.com"})
	require.NoError(t, err)
	assert.Equal(t, MsgForgotPassword, msg)
	assert.Empty(t, backend.calls)

	_, err = svc.ForgotPassword(context.Background(), &model.ForgotPasswordRequest{Email: "nope"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestLogoutAndMe(t *testing.T) {
	token := roleToken(t, "patient")
	svc, _, sessions := newTestService(t, map[string]route{
		"GET /auth/me": respond(http.StatusOK, `{"id":"u1","name":"Pat"}`),
	})
	ctx := context.Background()
	sess, err := sessions.Create(ctx, session.NewSession{Token: token, Role: model.RolePatient})
	require.NoError(t, err)

	me, err := svc.Me(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, model.RolePatient, me.Role)

	require.NoError(t, svc.Logout(ctx, sess.ID))
	_, err = sessions.Load(ctx, sess.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

// failingDeleteStore refuses every delete.
type failingDeleteStore struct {
	*session.MemoryStore
}

func (failingDeleteStore) Delete(context.Context, string) error {
	return errors.New("store offline")
}

func TestReplaceSession(t *testing.T) {
	t.Run("destroys the old session", func(t *testing.T) {
		svc, _, sessions := newTestService(t, map[string]route{})
		ctx := context.Background()
		old, err := sessions.Create(ctx, session.NewSession{Token: roleToken(t, "patient"), Role: model.RolePatient})
		require.NoError(t, err)

		svc.ReplaceSession(ctx, old.ID)
		_, err = sessions.Load(ctx, old.ID)
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("logs a store failure", func(t *testing.T) {
		var buf bytes.Buffer
		svc, _, _ := newTestService(t, map[string]route{})
		sessions, err := session.NewManager(failingDeleteStore{session.NewMemoryStore(time.Minute)}, session.Config{
			TTL:    time.Hour,
			Secret: "auth-service-test-secret-0123456789",
		})
		require.NoError(t, err)
		svc.sessions = sessions
		svc.log = logger.NewLogger(&logger.Config{Level: logger.DebugLevel, Output: &buf})

		svc.ReplaceSession(context.Background(), "0b7e2a52-6f0e-4c1a-9a55-3f1f7f2b9c11")
		assert.Contains(t, buf.String(), "failed to destroy replaced session")
		assert.Contains(t, buf.String(), "0b7e2a52-6f0e-4c1a-9a55-3f1f7f2b9c11")
		assert.Contains(t, buf.String(), "store offline")
	})
}
