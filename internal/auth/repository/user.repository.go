package repository

import (
	"database/sql"

	"pressroom/internal/auth/model"
	"pressroom/pkg/logger"
)

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// FindByEmail returns the user or nil when no account matches.
func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRow(`SELECT id, name, email, password_hash, role, created_at
		FROM users WHERE email = $1`, email).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to find user by email: %v", err)
		return nil, err
	}
	return &u, nil
}
