package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jawadyyy/healthmate-portal/internal/model"
)

// storeContract runs the behaviour every Store backend must share.
func storeContract(t *testing.T, store Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	live := &model.Session{
		ID:          uuid.NewString(),
		Token:       "sealed-token",
		Role:        model.RolePatient,
		IsLoggedIn:  true,
		Email:       "pat@example.com",
		Name:        "Pat",
		SignupPhase: model.SignupPhaseProfile,
		ExpiresAt:   now.Add(time.Hour),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, store.Save(ctx, live))

	got, err := store.Get(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, live.Token, got.Token)
	assert.Equal(t, live.Role, got.Role)
	assert.Equal(t, live.Email, got.Email)
	assert.Equal(t, live.SignupPhase, got.SignupPhase)
	assert.True(t, live.ExpiresAt.Equal(got.ExpiresAt))

	live.SignupPhase = model.SignupPhaseComplete
	require.NoError(t, store.Save(ctx, live))
	got, err = store.Get(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SignupPhaseComplete, got.SignupPhase)

	require.NoError(t, store.Delete(ctx, live.ID))
	_, err = store.Get(ctx, live.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, store.Delete(ctx, uuid.NewString()))
	assert.NoError(t, store.Ping(ctx))
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore(time.Minute))
}

func TestMemoryStore_DeleteExpired(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()
	now := time.Now()

	for _, exp := range []time.Time{now.Add(-time.Minute), now, now.Add(time.Hour)} {
		require.NoError(t, store.Save(ctx, &model.Session{ID: uuid.NewString(), ExpiresAt: exp}))
	}

	n, err := store.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 1, store.cache.ItemCount())
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("HEALTHMATE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("HEALTHMATE_TEST_REDIS_URL not set")
	}
	store, err := NewRedisStore(url)
	require.NoError(t, err)
	defer store.Close()

	storeContract(t, store)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("HEALTHMATE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("HEALTHMATE_TEST_DATABASE_URL not set")
	}
	db, err := ConnectPostgres(dsn, 2, 1)
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	require.NoError(t, store.Migrate(context.Background()))

	storeContract(t, store)

	expired := &model.Session{ID: uuid.NewString(), Role: model.RoleAdmin, ExpiresAt: time.Now().Add(-time.Hour), CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, store.Save(context.Background(), expired))
	n, err := store.DeleteExpired(context.Background(), time.Now())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))
}
