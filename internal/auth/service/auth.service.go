package service

import (
	"errors"
	"strconv"
	"time"

	"pressroom/internal/auth/model"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials deliberately covers both unknown accounts and wrong
// passwords so a caller cannot probe which emails exist.
var ErrInvalidCredentials = errors.New("invalid email or password")

const tokenLifetime = 24 * time.Hour

// UserStore is the lookup surface Login needs.
type UserStore interface {
	FindByEmail(email string) (*model.User, error)
}

type AuthService struct {
	Repo   UserStore
	secret []byte
	now    func() time.Time
}

func NewAuthService(repo UserStore, secret []byte) *AuthService {
	return &AuthService{Repo: repo, secret: secret, now: time.Now}
}

// Login verifies the password and issues a signed token carrying the actor's
// id, display name and role.
func (s *AuthService) Login(email, password string) (string, *model.User, error) {
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.Repo.FindByEmail(email)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatInt(user.ID, 10),
		"name": user.Name,
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(tokenLifetime).Unix(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, user, nil
}
