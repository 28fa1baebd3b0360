package store

import (
	"context"
	"errors"
	"fmt"

	"supply-console/internal/api"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores one credential row per browser session of the web console.
// The table is created by migrations/001_console_sessions.sql.
type Postgres struct {
	pool *pgxpool.Pool
	id   string
}

// NewPostgres returns a store bound to sessionID.
func NewPostgres(pool *pgxpool.Pool, sessionID string) *Postgres {
	return &Postgres{pool: pool, id: sessionID}
}

func (p *Postgres) Load(ctx context.Context) (*api.Credentials, error) {
	var c api.Credentials
	err := p.pool.QueryRow(ctx, `
		SELECT access_token, refresh_token, token_type, user_id, username, email, full_name, role
		FROM console_sessions
		WHERE session_id = $1`, p.id,
	).Scan(&c.AccessToken, &c.RefreshToken, &c.TokenType, &c.UserID,
		&c.Username, &c.Email, &c.FullName, &c.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", p.id, err)
	}
	return &c, nil
}

func (p *Postgres) Save(ctx context.Context, c api.Credentials) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO console_sessions (session_id, access_token, refresh_token, token_type,
		                              user_id, username, email, full_name, role, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (session_id) DO UPDATE SET
			access_token  = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_type    = EXCLUDED.token_type,
			user_id       = EXCLUDED.user_id,
			username      = EXCLUDED.username,
			email         = EXCLUDED.email,
			full_name     = EXCLUDED.full_name,
			role          = EXCLUDED.role,
			updated_at    = NOW()`,
		p.id, c.AccessToken, c.RefreshToken, c.TokenType, c.UserID,
		c.Username, c.Email, c.FullName, c.Role,
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", p.id, err)
	}
	return nil
}

func (p *Postgres) Clear(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM console_sessions WHERE session_id = $1`, p.id); err != nil {
		return fmt.Errorf("clear session %s: %w", p.id, err)
	}
	return nil
}

// PurgeSessions deletes sessions not touched since the given interval, e.g. "7 days".
func PurgeSessions(ctx context.Context, pool *pgxpool.Pool, olderThan string) (int64, error) {
	tag, err := pool.Exec(ctx,
		`DELETE FROM console_sessions WHERE updated_at < NOW() - $1::interval`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
