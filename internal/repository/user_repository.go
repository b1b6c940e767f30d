package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/mo"
	"github.com/zhirschtritt/orderly/internal/domain"
)

var _ domain.UserRepository = new(DBUserRepository)

type DBUserRepository struct {
	db *pgxpool.Pool
}

func NewDBUserRepository(db *pgxpool.Pool) *DBUserRepository {
	return &DBUserRepository{
		db: db,
	}
}

func (r *DBUserRepository) GetByID(ctx context.Context, id string) (mo.Option[*domain.User], error) {
	query := `
		SELECT id, email, name, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user domain.User
	err := conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mo.None[*domain.User](), nil
		}
		return mo.None[*domain.User](), fmt.Errorf("failed to get user by ID: %w", err)
	}

	return mo.Some(&user), nil
}

func (r *DBUserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user.ID == "" {
		return r.insert(ctx, user)
	}
	return r.update(ctx, user)
}

func (r *DBUserRepository) insert(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (id, email, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, email, name, created_at, updated_at
	`

	var saved domain.User
	err := conn(ctx, r.db).QueryRow(ctx, query,
		uuid.New().String(), user.Email, user.Name, user.CreatedAt, user.UpdatedAt).Scan(
		&saved.ID, &saved.Email, &saved.Name, &saved.CreatedAt, &saved.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &saved, nil
}

func (r *DBUserRepository) update(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		UPDATE users
		SET email = $2, name = $3, updated_at = $4
		WHERE id = $1
		RETURNING id, email, name, created_at, updated_at
	`

	var saved domain.User
	err := conn(ctx, r.db).QueryRow(ctx, query,
		user.ID, user.Email, user.Name, user.UpdatedAt).Scan(
		&saved.ID, &saved.Email, &saved.Name, &saved.CreatedAt, &saved.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return &saved, nil
}

func (r *DBUserRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
