package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func plainHash(password string) (string, error) { return "hashed:" + password, nil }

func plainVerify(hashed, password string) error {
	if hashed != "hashed:"+password {
		return ErrInvalidCredentials
	}
	return nil
}

func sequence(values ...string) func() string {
	return func() string {
		if len(values) == 0 {
			return "fallback"
		}
		v := values[0]
		values = values[1:]
		return v
	}
}

func TestAuthService_Signup(t *testing.T) {
	t.Parallel()

	t.Run("creates the account and a session", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
		users := newUserStoreStub()
		sessions := newSessionRepositoryStub()
		svc := NewAuthService(users, sessions, plainHash, plainVerify, sequence("user-1", "session-1"), sequence("token-1"), func() time.Time { return now }, time.Hour)

		result, err := svc.Signup(context.Background(), SignupParams{Name: " Aiko ", Email: "Aiko@Example.com", Password: "long-enough"})
		if err != nil {
			t.Fatalf("Signup failed: %v", err)
		}
		if result.User.ID != "user-1" || result.User.Name != "Aiko" || result.User.Email != "aiko@example.com" {
			t.Fatalf("unexpected user %#v", result.User)
		}
		if result.Session.Token != "token-1" || !result.Session.ExpiresAt.Equal(now.Add(time.Hour)) {
			t.Fatalf("unexpected session %#v", result.Session)
		}
		if users.byEmail["aiko@example.com"].PasswordHash != "hashed:long-enough" {
			t.Fatalf("expected password to be hashed before storing")
		}
	})

	t.Run("validates fields", func(t *testing.T) {
		t.Parallel()

		svc := NewAuthService(newUserStoreStub(), nil, plainHash, plainVerify, nil, nil, nil, time.Hour)
		_, err := svc.Signup(context.Background(), SignupParams{Email: "not-an-email", Password: "short"})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"name", "email", "password"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s error, got %#v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("reports taken emails", func(t *testing.T) {
		t.Parallel()

		users := newUserStoreStub()
		users.seed(UserCredentials{User: User{ID: "existing", Email: "taken@example.com"}})
		svc := NewAuthService(users, nil, plainHash, plainVerify, sequence("user-2"), nil, nil, time.Hour)

		_, err := svc.Signup(context.Background(), SignupParams{Name: "Ken", Email: "taken@example.com", Password: "password1"})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	t.Run("issues sessions for valid credentials", func(t *testing.T) {
		t.Parallel()

		now := time.Now().UTC()
		users := newUserStoreStub()
		users.seed(UserCredentials{User: User{ID: "user-1", Email: "user@example.com"}, PasswordHash: "hashed:secret"})
		repo := newSessionRepositoryStub()
		svc := NewAuthService(users, repo, plainHash, plainVerify, sequence("session-id"), sequence("session-token"), func() time.Time { return now }, time.Hour)

		result, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "User@example.com", Password: "secret"})
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if result.Session.Token != "session-token" || result.Session.ID != "session-id" {
			t.Fatalf("unexpected session %#v", result.Session)
		}
		if len(repo.deleteCalls) != 1 || !repo.deleteCalls[0].Equal(now) {
			t.Fatalf("expected DeleteExpiredSessions to be called with now, got %#v", repo.deleteCalls)
		}
	})

	t.Run("rejects invalid credentials with sentinel error", func(t *testing.T) {
		t.Parallel()

		users := newUserStoreStub()
		users.seed(UserCredentials{User: User{ID: "user", Email: "user@example.com"}, PasswordHash: "hashed:expected"})
		svc := NewAuthService(users, nil, plainHash, plainVerify, nil, nil, time.Now, time.Hour)

		for _, params := range []AuthenticateParams{
			{Email: "user@example.com", Password: "wrong"},
			{Email: "nobody@example.com", Password: "expected"},
			{Email: "", Password: ""},
		} {
			if _, err := svc.Authenticate(context.Background(), params); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials for %#v, got %v", params, err)
			}
		}
	})

	t.Run("propagates repository failures", func(t *testing.T) {
		t.Parallel()

		expected := errors.New("boom")
		users := newUserStoreStub()
		users.seed(UserCredentials{User: User{ID: "user", Email: "user@example.com"}, PasswordHash: "hashed:secret"})
		repo := newSessionRepositoryStub()
		repo.createErr = expected
		svc := NewAuthService(users, repo, plainHash, plainVerify, sequence("id"), nil, time.Now, time.Hour)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "user@example.com", Password: "secret"})
		if !errors.Is(err, expected) {
			t.Fatalf("expected error %v, got %v", expected, err)
		}
	})

	t.Run("works with argon2id hashes", func(t *testing.T) {
		t.Parallel()

		params := Argon2idParams{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
		hash, err := CreatePasswordHash("correct horse", params)
		if err != nil {
			t.Fatalf("CreatePasswordHash: %v", err)
		}
		if !strings.HasPrefix(hash, "$argon2id$") {
			t.Fatalf("unexpected hash format %q", hash)
		}

		users := newUserStoreStub()
		users.seed(UserCredentials{User: User{ID: "user", Email: "user@example.com"}, PasswordHash: hash})
		svc := NewAuthService(users, nil, nil, nil, sequence("id"), nil, time.Now, time.Hour)

		if _, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "user@example.com", Password: "correct horse"}); err != nil {
			t.Fatalf("expected argon2id verification to succeed: %v", err)
		}
		if _, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "user@example.com", Password: "wrong horse"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestAuthService_RevokeSession(t *testing.T) {
	t.Parallel()

	t.Run("revokes active sessions", func(t *testing.T) {
		t.Parallel()

		now := time.Now().UTC()
		repo := newSessionRepositoryStub()
		repo.seed(Session{ID: "session-1", UserID: "user", Token: "token", ExpiresAt: now.Add(time.Hour), UpdatedAt: now, CreatedAt: now})
		svc := NewAuthService(nil, repo, nil, nil, nil, nil, func() time.Time { return now }, time.Hour)

		if err := svc.RevokeSession(context.Background(), "token"); err != nil {
			t.Fatalf("RevokeSession failed: %v", err)
		}
		stored := repo.sessionsByID["session-1"]
		if stored.RevokedAt == nil || stored.RevokedAt.IsZero() {
			t.Fatalf("expected RevokedAt to be set, got %#v", stored.RevokedAt)
		}
	})

	t.Run("maps missing tokens to invalid credentials", func(t *testing.T) {
		t.Parallel()

		svc := NewAuthService(nil, newSessionRepositoryStub(), nil, nil, nil, nil, time.Now, time.Hour)
		if err := svc.RevokeSession(context.Background(), "missing"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
		if err := svc.RevokeSession(context.Background(), "  "); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials for blank token, got %v", err)
		}
	})
}

func TestAuthService_ValidateSession(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	revoked := now.Add(-time.Minute)
	users := newUserStoreStub()
	users.seed(UserCredentials{User: User{ID: "user-1", Email: "user@example.com"}})

	cases := []struct {
		name    string
		session Session
		token   string
		wantErr error
	}{
		{name: "active", session: Session{ID: "s", UserID: "user-1", Token: "token", ExpiresAt: now.Add(time.Hour)}, token: " token "},
		{name: "expired", session: Session{ID: "s", UserID: "user-1", Token: "token", ExpiresAt: now.Add(-time.Minute)}, token: "token", wantErr: ErrSessionExpired},
		{name: "revoked", session: Session{ID: "s", UserID: "user-1", Token: "token", ExpiresAt: now.Add(time.Hour), RevokedAt: &revoked}, token: "token", wantErr: ErrSessionRevoked},
		{name: "unknown token", session: Session{ID: "s", UserID: "user-1", Token: "token", ExpiresAt: now.Add(time.Hour)}, token: "other", wantErr: ErrUnauthorized},
		{name: "deleted user", session: Session{ID: "s", UserID: "gone", Token: "token", ExpiresAt: now.Add(time.Hour)}, token: "token", wantErr: ErrUnauthorized},
		{name: "blank token", session: Session{ID: "s", UserID: "user-1", Token: "token", ExpiresAt: now.Add(time.Hour)}, token: "  ", wantErr: ErrInvalidCredentials},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := newSessionRepositoryStub()
			repo.seed(tc.session)
			svc := NewAuthService(users, repo, nil, nil, nil, nil, func() time.Time { return now }, time.Hour)

			principal, err := svc.ValidateSession(context.Background(), tc.token)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateSession failed: %v", err)
			}
			if principal.UserID != "user-1" {
				t.Fatalf("unexpected principal: %#v", principal)
			}
		})
	}
}

// userStoreStub implements UserStore for tests.
type userStoreStub struct {
	byEmail map[string]UserCredentials
	err     error
}

func newUserStoreStub() *userStoreStub {
	return &userStoreStub{byEmail: make(map[string]UserCredentials)}
}

func (u *userStoreStub) seed(creds UserCredentials) {
	u.byEmail[creds.User.Email] = creds
}

func (u *userStoreStub) CreateUser(ctx context.Context, creds UserCredentials) (User, error) {
	if u.err != nil {
		return User{}, u.err
	}
	if _, taken := u.byEmail[creds.User.Email]; taken {
		return User{}, ErrAlreadyExists
	}
	u.seed(creds)
	return creds.User, nil
}

func (u *userStoreStub) GetUser(ctx context.Context, id string) (User, error) {
	if u.err != nil {
		return User{}, u.err
	}
	for _, creds := range u.byEmail {
		if creds.User.ID == id {
			return creds.User, nil
		}
	}
	return User{}, ErrNotFound
}

func (u *userStoreStub) GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error) {
	if u.err != nil {
		return UserCredentials{}, u.err
	}
	creds, ok := u.byEmail[email]
	if !ok {
		return UserCredentials{}, ErrNotFound
	}
	return creds, nil
}

// sessionRepositoryStub provides an in-memory implementation of SessionRepository for tests.
type sessionRepositoryStub struct {
	sessionsByID map[string]Session
	tokenToID    map[string]string

	createErr error
	getErr    error
	revokeErr error
	deleteErr error

	deleteCalls []time.Time
}

func newSessionRepositoryStub() *sessionRepositoryStub {
	return &sessionRepositoryStub{
		sessionsByID: make(map[string]Session),
		tokenToID:    make(map[string]string),
	}
}

func (s *sessionRepositoryStub) seed(session Session) {
	s.sessionsByID[session.ID] = cloneSession(session)
	s.tokenToID[session.Token] = session.ID
}

func (s *sessionRepositoryStub) CreateSession(ctx context.Context, session Session) (Session, error) {
	if s.createErr != nil {
		return Session{}, s.createErr
	}
	s.seed(session)
	return cloneSession(session), nil
}

func (s *sessionRepositoryStub) GetSession(ctx context.Context, token string) (Session, error) {
	if s.getErr != nil {
		return Session{}, s.getErr
	}
	id, ok := s.tokenToID[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	return cloneSession(s.sessionsByID[id]), nil
}

func (s *sessionRepositoryStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error) {
	if s.revokeErr != nil {
		return Session{}, s.revokeErr
	}
	id, ok := s.tokenToID[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	session := s.sessionsByID[id]
	revoked := revokedAt.UTC()
	session.RevokedAt = &revoked
	session.UpdatedAt = revoked
	s.sessionsByID[id] = session
	return cloneSession(session), nil
}

func (s *sessionRepositoryStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	cutoff := reference.UTC()
	s.deleteCalls = append(s.deleteCalls, cutoff)
	for id, session := range s.sessionsByID {
		if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(cutoff) {
			delete(s.sessionsByID, id)
			delete(s.tokenToID, session.Token)
		}
	}
	return nil
}

func cloneSession(session Session) Session {
	clone := session
	if session.RevokedAt != nil {
		revoked := session.RevokedAt.UTC()
		clone.RevokedAt = &revoked
	}
	return clone
}
