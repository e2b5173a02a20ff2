package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"hackmate/internal/model"
)

const userColumns = `id, name, email, password_hashed, github, avatar_url, privacy, skills,
		       hackathons_attended, collaborations, wins, created_at, updated_at`

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query := r.db.Rebind(`
		INSERT INTO users (id, name, email, password_hashed, github, avatar_url, privacy, skills,
		                   hackathons_attended, collaborations, wins, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		u.ID,
		u.Name,
		u.Email,
		u.PasswordHashed,
		u.Github,
		u.AvatarURL,
		u.Privacy,
		u.Skills,
		u.HackathonsAttended,
		u.Collaborations,
		u.Wins,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrEmailAlreadyExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &u, nil
}

// GetByEmail matches the email exactly (case-sensitive)
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)

	var u model.User
	err := r.db.GetContext(ctx, &u, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &u, nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := r.db.Rebind(`SELECT COUNT(1) FROM users WHERE email = ?`)

	var n int
	if err := r.db.GetContext(ctx, &n, query, email); err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return n > 0, nil
}

// Update writes the mutable profile fields
func (r *userRepository) Update(ctx context.Context, u *model.User) error {
	query := r.db.Rebind(`
		UPDATE users
		SET name = ?, github = ?, avatar_url = ?, privacy = ?, skills = ?, updated_at = ?
		WHERE id = ?
	`)

	res, err := r.db.ExecContext(ctx, query, u.Name, u.Github, u.AvatarURL, u.Privacy, u.Skills, u.UpdatedAt, u.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return expectOneRow(res, model.ErrUserNotFound)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHashed string) error {
	query := r.db.Rebind(`UPDATE users SET password_hashed = ? WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query, passwordHashed, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return expectOneRow(res, model.ErrUserNotFound)
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM users`); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	query := r.db.Rebind(`DELETE FROM users WHERE id = ?`)

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// expectOneRow maps an update that touched nothing to notFound.
func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
