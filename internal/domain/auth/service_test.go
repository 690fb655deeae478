package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
)

// In-memory repositories for service tests.

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*User // by id
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*User)}
}

func (r *memUserRepo) Create(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID.String()] = &cp
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, userID id.ID) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID.String()]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, errors.New("not found")
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *memUserRepo) Update(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID.String()] = &cp
	return nil
}

func (r *memUserRepo) List(_ context.Context, _ UserFilter) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *memUserRepo) Exists(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

type memTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*RefreshToken // by hash
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: make(map[string]*RefreshToken)}
}

func (r *memTokenRepo) SaveRefreshToken(_ context.Context, token *RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	r.tokens[token.TokenHash] = &cp
	return nil
}

func (r *memTokenRepo) GetRefreshToken(_ context.Context, tokenHash string) (*RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[tokenHash]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, errors.New("not found")
}

func (r *memTokenRepo) RevokeRefreshToken(_ context.Context, tokenID id.ID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.ID == tokenID {
			now := time.Now()
			t.RevokedAt = &now
			t.RevokedReason = reason
		}
	}
	return nil
}

func (r *memTokenRepo) RevokeAllUserTokens(_ context.Context, userID id.ID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			now := time.Now()
			t.RevokedAt = &now
			t.RevokedReason = reason
		}
	}
	return nil
}

func (r *memTokenRepo) CleanupExpiredTokens(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for hash, t := range r.tokens {
		if !t.IsValid() {
			delete(r.tokens, hash)
			removed++
		}
	}
	return removed, nil
}

type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService() (*Service, *memUserRepo, *memTokenRepo) {
	users := newMemUserRepo()
	tokens := newMemTokenRepo()
	svc := NewService(
		users,
		tokens,
		nopTxManager{},
		NewJWTService(DefaultJWTConfig("test-secret")),
		DefaultServiceConfig(),
	)
	return svc, users, tokens
}

func TestRegister(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		Username: "alice",
		Password: "correct-horse",
		Name:     "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"cashier"}, user.Roles, "default role")
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	// Duplicate username.
	_, err = svc.Register(ctx, RegisterRequest{Username: "alice", Password: "correct-horse"})
	assert.True(t, apperror.Is(err, apperror.CodeConflict))

	// Short password.
	_, err = svc.Register(ctx, RegisterRequest{Username: "bob", Password: "short"})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "correct-horse", Name: "Alice"})
	require.NoError(t, err)

	tokens, user, err := svc.Login(ctx, Credentials{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.Equal(t, "alice", user.Username)

	// The issued access token validates.
	jwtSvc := NewJWTService(DefaultJWTConfig("test-secret"))
	uc, err := jwtSvc.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), uc.UserID)

	_, _, err = svc.Login(ctx, Credentials{Username: "alice", Password: "wrong"})
	assert.True(t, apperror.Is(err, apperror.CodeUnauthorized))

	_, _, err = svc.Login(ctx, Credentials{Username: "nobody", Password: "whatever"})
	assert.True(t, apperror.Is(err, apperror.CodeUnauthorized))
}

func TestLogin_LockoutAfterRepeatedFailures(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)

	for i := 0; i < DefaultServiceConfig().MaxLoginAttempts; i++ {
		_, _, err = svc.Login(ctx, Credentials{Username: "alice", Password: "wrong"})
		require.Error(t, err)
	}

	stored, err := users.GetByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsLocked())

	// Even the right password is rejected while locked.
	_, _, err = svc.Login(ctx, Credentials{Username: "alice", Password: "correct-horse"})
	assert.True(t, apperror.Is(err, apperror.CodeForbidden))
}

func TestRefreshToken_Rotation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)
	tokens, _, err := svc.Login(ctx, Credentials{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, refreshed.RefreshToken)

	// The old refresh token was rotated out.
	_, err = svc.RefreshToken(ctx, tokens.RefreshToken)
	assert.True(t, apperror.Is(err, apperror.CodeUnauthorized))

	// The new one works.
	_, err = svc.RefreshToken(ctx, refreshed.RefreshToken)
	require.NoError(t, err)
}

func TestLogout_RevokesAllTokens(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)
	tokens, _, err := svc.Login(ctx, Credentials{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, user.ID))

	_, err = svc.RefreshToken(ctx, tokens.RefreshToken)
	assert.True(t, apperror.Is(err, apperror.CodeUnauthorized))
}
