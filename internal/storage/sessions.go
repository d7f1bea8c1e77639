package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Session is an issued recruiter session. Token issuance happens elsewhere
// (passwordless email link); this layer only answers "current session or nil".
type Session struct {
	Token     string
	UserEmail string
	ExpiresAt time.Time
}

// GetSession returns the session for a token, or nil when the token is
// unknown or expired. It never errors on a missing row.
func (db *DB) GetSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}
	s := &Session{}
	err := db.connection.QueryRowContext(ctx,
		`SELECT token, user_email, expires_at FROM sessions WHERE token = $1`,
		token,
	).Scan(&s.Token, &s.UserEmail, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(s.ExpiresAt) {
		return nil, nil
	}
	return s, nil
}
