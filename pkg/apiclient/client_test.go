package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func TestClient_AttachesTokenAndBaseURL(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Write([]byte(`{"data":{"id":"u1","email":"a@b.co"}}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/api/"})
	var u user
	err := c.Get(WithToken(context.Background(), "tok-123"), "/auth/me", &u)

	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "/api/auth/me", gotPath)
	assert.Equal(t, "u1", u.ID)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var hasAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.Header["Authorization"]
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	require.NoError(t, c.Post(context.Background(), "/auth/register", map[string]string{"name": "x"}, nil))
	assert.False(t, hasAuth)
}

func TestClient_BareAndEnvelopedBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bare" {
			w.Write([]byte(`{"id":"bare","email":"b@b.co"}`))
			return
		}
		w.Write([]byte(`{"data":{"id":"wrapped","email":"w@b.co"}}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	var a, b user
	require.NoError(t, c.Get(context.Background(), "/bare", &a))
	require.NoError(t, c.Get(context.Background(), "/wrapped", &b))
	assert.Equal(t, "bare", a.ID)
	assert.Equal(t, "wrapped", b.ID)
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    Kind
		message string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"bad token"}`, KindUnauthorized, "bad token"},
		{"forbidden", http.StatusForbidden, ``, KindUnauthorized, ""},
		{"rate limited", http.StatusTooManyRequests, `{"message":"slow down"}`, KindRateLimited, "slow down"},
		{"business", http.StatusBadRequest, `{"message":"Email already exists"}`, KindServer, "Email already exists"},
		{"error field", http.StatusConflict, `{"error":"conflict"}`, KindServer, "conflict"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := New(Config{BaseURL: srv.URL}).Get(context.Background(), "/x", nil)
			apiErr, ok := AsError(err)
			require.True(t, ok)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, tt.message, apiErr.Message)
		})
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := New(Config{BaseURL: url}).Get(context.Background(), "/x", nil)
	assert.True(t, IsNetwork(err))
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	start := time.Now()
	err := c.Get(context.Background(), "/slow", nil)

	assert.True(t, IsNetwork(err))
	assert.Less(t, time.Since(start), time.Second)
}

func TestClient_BreakerIgnoresBusinessErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, BreakerFailures: 1})
	for i := 0; i < 3; i++ {
		_ = c.Get(context.Background(), "/x", nil)
	}
	assert.Equal(t, 3, calls)
	assert.Equal(t, "closed", c.BreakerState())
}

func TestClient_CallerCancellationDoesNotTripBreaker(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"data":{"id":"u1"}}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, BreakerFailures: 5})

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 5; i++ {
		err := c.Get(cancelled, "/users/me", nil)
		assert.True(t, IsNetwork(err))
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, "closed", c.BreakerState())
	assert.Zero(t, calls)

	var u user
	require.NoError(t, c.Get(context.Background(), "/users/me", &u))
	assert.Equal(t, "u1", u.ID)
}

func TestClient_CancelledInFlightDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, BreakerFailures: 1})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := c.Get(ctx, "/slow", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "closed", c.BreakerState())
}

func TestClient_SendsJSONBody(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := New(Config{BaseURL: srv.URL}).Patch(context.Background(), "/appointments/1/status", map[string]string{"status": "completed"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "completed", got["status"])
}

func TestDecodeList(t *testing.T) {
	type item struct {
		ID string `json:"id"`
	}
	cases := map[string]string{
		"bare array":     `[{"id":"1"},{"id":"2"}]`,
		"data array":     `{"data":[{"id":"1"},{"id":"2"}]}`,
		"data keyed":     `{"data":{"appointments":[{"id":"1"},{"id":"2"}]}}`,
		"top-level keys": `{"appointments":[{"id":"1"},{"id":"2"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			var items []item
			require.NoError(t, DecodeList([]byte(body), &items, "appointments"))
			assert.Len(t, items, 2)
		})
	}

	var empty []item
	require.NoError(t, DecodeList([]byte(`{"data":{}}`), &empty, "appointments"))
	assert.Empty(t, empty)
}
