package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"adopt-meow/internal/domain/users"
	"adopt-meow/internal/ports/auth"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, username, email, password_hash, image, user_type,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		u.ID,
		u.Username,
		strings.ToLower(u.Email),
		u.PasswordHash,
		u.Image,
		string(u.UserType),
		u.CreatedAt,
		u.UpdatedAt,
	)
	return err
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	return r.get(ctx, `WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

func (r *UsersRepo) get(ctx context.Context, where string, arg any) (users.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, username, email, password_hash, image, user_type,
			created_at, updated_at
		FROM users
	`+where, arg)

	var u users.User
	var userType string
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Image,
		&userType,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, err
	}

	u.UserType = auth.UserType(userType)
	return u, nil
}
