package service

import (
	"testing"
	"time"

	"pressroom/internal/auth/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserStore struct {
	users map[string]*model.User
}

func (f *fakeUserStore) FindByEmail(email string) (*model.User, error) {
	return f.users[email], nil
}

func newTestService(t *testing.T) (*AuthService, *model.User) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &model.User{ID: 42, Name: "Alice", Email: "alice@example.com", PasswordHash: string(hash), Role: "editor"}
	store := &fakeUserStore{users: map[string]*model.User{user.Email: user}}
	return NewAuthService(store, []byte("test-secret")), user
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc, user := newTestService(t)
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	tokenString, got, err := svc.Login(user.Email, "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(func() time.Time { return issued }))
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "42", claims["sub"])
	assert.Equal(t, "Alice", claims["name"])
	assert.Equal(t, "editor", claims["role"])
	assert.Equal(t, float64(issued.Add(tokenLifetime).Unix()), claims["exp"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, user := newTestService(t)

	_, _, err := svc.Login(user.Email, "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login("nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login("", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
