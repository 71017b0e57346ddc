package repository

import (
	"context"
	"time"

	"github.com/example/habit-tracker/internal/application"
	"github.com/example/habit-tracker/internal/persistence"
)

// Users implements application.UserStore.
type Users struct {
	repo persistence.UserRepository
}

func NewUsers(repo persistence.UserRepository) *Users {
	return &Users{repo: repo}
}

func (a *Users) CreateUser(ctx context.Context, creds application.UserCredentials) (application.User, error) {
	record := persistence.User{
		ID:           creds.User.ID,
		Name:         creds.User.Name,
		Email:        creds.User.Email,
		PasswordHash: creds.PasswordHash,
		CreatedAt:    creds.User.CreatedAt,
		UpdatedAt:    creds.User.UpdatedAt,
	}
	if err := a.repo.CreateUser(ctx, record); err != nil {
		return application.User{}, mapError(err)
	}
	stored, err := a.repo.GetUser(ctx, record.ID)
	if err != nil {
		return application.User{}, mapError(err)
	}
	return toUser(stored), nil
}

func (a *Users) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, mapError(err)
	}
	return toUser(stored), nil
}

func (a *Users) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, mapError(err)
	}
	return application.UserCredentials{User: toUser(stored), PasswordHash: stored.PasswordHash}, nil
}

func toUser(u persistence.User) application.User {
	return application.User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Sessions implements application.SessionRepository.
type Sessions struct {
	repo persistence.SessionRepository
}

func NewSessions(repo persistence.SessionRepository) *Sessions {
	return &Sessions{repo: repo}
}

func (a *Sessions) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: session.RevokedAt,
	})
	if err != nil {
		return application.Session{}, mapError(err)
	}
	return toSession(stored), nil
}

func (a *Sessions) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, mapError(err)
	}
	return toSession(stored), nil
}

func (a *Sessions) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, mapError(err)
	}
	return toSession(stored), nil
}

func (a *Sessions) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return mapError(a.repo.DeleteExpiredSessions(ctx, reference))
}

func toSession(s persistence.Session) application.Session {
	return application.Session{
		ID:        s.ID,
		UserID:    s.UserID,
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		RevokedAt: s.RevokedAt,
	}
}
