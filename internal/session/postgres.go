package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/Jawadyyy/healthmate-portal/internal/model"
)

// Schema creates the sessions table. It is applied by the migrate command.
const Schema = `
CREATE TABLE IF NOT EXISTS portal_sessions (
	id           UUID PRIMARY KEY,
	token        TEXT NOT NULL DEFAULT '',
	role         TEXT NOT NULL,
	is_logged_in BOOLEAN NOT NULL DEFAULT FALSE,
	email        TEXT NOT NULL DEFAULT '',
	name         TEXT NOT NULL DEFAULT '',
	signup_phase TEXT NOT NULL DEFAULT '',
	expires_at   TIMESTAMPTZ NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_portal_sessions_expires_at ON portal_sessions (expires_at);
`

// PostgresStore keeps sessions in a Postgres table. Expired rows stay until
// the cleanup worker removes them.
type PostgresStore struct {
	db *sqlx.DB
}

// ConnectPostgres opens and pings a lib/pq connection pool.
func ConnectPostgres(dsn string, maxOpen, maxIdle int) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate applies Schema.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}
	return nil
}

func (p *PostgresStore) Name() string { return "postgres" }

func (p *PostgresStore) Get(ctx context.Context, id string) (*model.Session, error) {
	query := `
		SELECT id, token, role, is_logged_in, email, name, signup_phase,
		       expires_at, created_at, updated_at
		FROM portal_sessions
		WHERE id = $1
	`

	var s model.Session
	err := p.db.GetContext(ctx, &s, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

func (p *PostgresStore) Save(ctx context.Context, s *model.Session) error {
	query := `
		INSERT INTO portal_sessions (
			id, token, role, is_logged_in, email, name, signup_phase,
			expires_at, created_at, updated_at
		) VALUES (
			:id, :token, :role, :is_logged_in, :email, :name, :signup_phase,
			:expires_at, :created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE SET
			token = EXCLUDED.token,
			role = EXCLUDED.role,
			is_logged_in = EXCLUDED.is_logged_in,
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			signup_phase = EXCLUDED.signup_phase,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := p.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM portal_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (p *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := p.db.ExecContext(ctx, `DELETE FROM portal_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
