package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/habit-tracker/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository.
type SessionRepository struct {
	store *Store
}

// NewSessionRepository creates a session repository backed by store.
func NewSessionRepository(store *Store) *SessionRepository {
	return &SessionRepository{store: store}
}

// CreateSession stores a new session token for a user.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	session.Token = strings.TrimSpace(session.Token)
	if session.ID == "" || session.UserID == "" || session.Token == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = session.CreatedAt
	}

	_, err := r.store.exec(ctx, `
		INSERT INTO sessions (id, user_id, token, expires_at, revoked_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.Token,
		formatTime(session.ExpiresAt),
		nullTime(session.RevokedAt),
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
	)
	if err != nil {
		return persistence.Session{}, r.store.mapper.MapError(err)
	}
	return cloneSession(session), nil
}

// GetSession retrieves a session by its token value.
func (r *SessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	var (
		session                         persistence.Session
		expiresAt, createdAt, updatedAt string
		revokedAt                       sql.NullString
	)
	err := r.store.queryRow(ctx, `
		SELECT id, user_id, token, expires_at, revoked_at, created_at, updated_at
		FROM sessions
		WHERE token = ?`, token).Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&expiresAt,
		&revokedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Session{}, r.store.mapper.MapError(err)
	}

	if session.ExpiresAt, err = parseTime("expires_at", expiresAt); err != nil {
		return persistence.Session{}, err
	}
	if session.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Session{}, err
	}
	if session.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Session{}, err
	}
	if session.RevokedAt, err = timePtr("revoked_at", revokedAt); err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}

// RevokeSession marks a session as revoked based on its token value.
func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}
	if revokedAt.IsZero() {
		revokedAt = time.Now()
	}

	result, err := r.store.exec(ctx, `
		UPDATE sessions
		SET revoked_at = ?, updated_at = ?
		WHERE token = ?`,
		formatTime(revokedAt), formatTime(revokedAt), token)
	if err != nil {
		return persistence.Session{}, r.store.mapper.MapError(err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return r.GetSession(ctx, token)
}

// DeleteExpiredSessions removes sessions that expired at or before reference.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := r.store.exec(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, formatTime(reference))
	return r.store.mapper.MapError(err)
}

func cloneSession(session persistence.Session) persistence.Session {
	clone := session
	if session.RevokedAt != nil {
		t := *session.RevokedAt
		clone.RevokedAt = &t
	}
	return clone
}
