// Package auth_repo provides PostgreSQL implementations for auth repositories.
package auth_repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/auth"
	"tillbook/internal/infrastructure/storage/postgres"
)

// UserRepo implements auth.UserRepository over the sys_users table.
type UserRepo struct {
	txm *postgres.TxManager
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txm *postgres.TxManager) *UserRepo {
	return &UserRepo{txm: txm}
}

// Create creates a new user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	q := r.txm.GetQuerier(ctx)

	query := `
		INSERT INTO sys_users (
			id, username, name, password_hash, roles,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := q.Exec(ctx, query,
		user.ID, user.Username, user.Name, user.PasswordHash, user.Roles,
		user.IsActive, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return postgres.WrapError("insert user", err)
	}

	return nil
}

// GetByID retrieves user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.getBy(ctx, "id = $1", userID)
}

// GetByUsername retrieves user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	return r.getBy(ctx, "username = $1", username)
}

func (r *UserRepo) getBy(ctx context.Context, where string, arg any) (*auth.User, error) {
	q := r.txm.GetQuerier(ctx)

	query := `
		SELECT id, username, name, password_hash, roles,
			   is_active, last_login_at, failed_login_attempts, locked_until,
			   created_at, updated_at
		FROM sys_users
		WHERE ` + where

	var user auth.User
	err := q.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Name, &user.PasswordHash, &user.Roles,
		&user.IsActive, &user.LastLoginAt, &user.FailedLoginAttempts, &user.LockedUntil,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, apperror.NewNotFound("user", fmt.Sprint(arg))
	}
	if err != nil {
		return nil, postgres.WrapError("query user", err)
	}

	return &user, nil
}

// Update updates user data.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	q := r.txm.GetQuerier(ctx)

	query := `
		UPDATE sys_users SET
			name = $2,
			roles = $3,
			is_active = $4,
			last_login_at = $5,
			failed_login_attempts = $6,
			locked_until = $7,
			updated_at = now()
		WHERE id = $1
	`

	result, err := q.Exec(ctx, query,
		user.ID, user.Name, user.Roles, user.IsActive,
		user.LastLoginAt, user.FailedLoginAttempts, user.LockedUntil,
	)
	if err != nil {
		return postgres.WrapError("update user", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("user", user.ID.String())
	}

	return nil
}

// List retrieves users with filtering.
func (r *UserRepo) List(ctx context.Context, filter auth.UserFilter) ([]auth.User, error) {
	q := r.txm.GetQuerier(ctx)

	query := `
		SELECT id, username, name, password_hash, roles,
			   is_active, last_login_at, failed_login_attempts, locked_until,
			   created_at, updated_at
		FROM sys_users
		WHERE TRUE
	`

	var args []any
	argIdx := 1

	if filter.Search != "" {
		query += fmt.Sprintf(" AND (username ILIKE $%d OR name ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}
	if filter.IsActive != nil {
		query += fmt.Sprintf(" AND is_active = $%d", argIdx)
		args = append(args, *filter.IsActive)
		argIdx++
	}
	if filter.Role != "" {
		query += fmt.Sprintf(" AND $%d = ANY(roles)", argIdx)
		args = append(args, filter.Role)
		argIdx++
	}

	query += " ORDER BY username ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.WrapError("query users", err)
	}
	defer rows.Close()

	var users []auth.User
	for rows.Next() {
		var user auth.User
		err := rows.Scan(
			&user.ID, &user.Username, &user.Name, &user.PasswordHash, &user.Roles,
			&user.IsActive, &user.LastLoginAt, &user.FailedLoginAttempts, &user.LockedUntil,
			&user.CreatedAt, &user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, nil
}

// Exists checks if username is taken.
func (r *UserRepo) Exists(ctx context.Context, username string) (bool, error) {
	q := r.txm.GetQuerier(ctx)

	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM sys_users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, postgres.WrapError("check user exists", err)
	}

	return exists, nil
}

// Ensure interface compliance
var _ auth.UserRepository = (*UserRepo)(nil)
