package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haeyeon/festabot/internal/config"
	"github.com/haeyeon/festabot/internal/core"
)

type memUsers struct {
	byName map[string]*core.User
	nextID int64
}

func newMemUsers() *memUsers {
	return &memUsers{byName: make(map[string]*core.User)}
}

func (m *memUsers) Create(_ context.Context, username, passwordHash string) (*core.User, error) {
	m.nextID++
	u := &core.User{ID: m.nextID, Username: username, PasswordHash: passwordHash}
	m.byName[username] = u
	return u, nil
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (*core.User, error) {
	return m.byName[username], nil
}

func newTestService() (*Service, *memUsers) {
	users := newMemUsers()
	svc := NewService(&config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}, users)
	return svc, users
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	user, err := svc.Signup(ctx, "haeyeon", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "haeyeon", user.Username)
	assert.NotEqual(t, "hunter22", user.PasswordHash, "password must be hashed")

	token, err := svc.Login(ctx, "haeyeon", "hunter22")
	require.NoError(t, err)

	subject, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "haeyeon", subject)
}

func TestSignup_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.Signup(ctx, "haeyeon", "hunter22")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "haeyeon", "other")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.Signup(ctx, "haeyeon", "hunter22")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "haeyeon", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyToken_Expired(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.Signup(ctx, "haeyeon", "hunter22")
	require.NoError(t, err)

	issued := time.Now()
	svc.now = func() time.Time { return issued }
	token, err := svc.Login(ctx, "haeyeon", "hunter22")
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_Garbage(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.VerifyToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
