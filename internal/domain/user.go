package domain

import (
	"context"
	"errors"
	"time"

	"github.com/samber/mo"
)

var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateUserRequest struct {
	Name  string `json:"name" validate:"required,notblank"`
	Email string `json:"email" validate:"required,notblank,email"`
}

// UpdateUserRequest carries an optional ID; the HTTP layer fills it from
// the path.
type UpdateUserRequest struct {
	ID   string `json:"id"`
	Name string `json:"name" validate:"required,notblank"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func NewUserResponse(u *User) *UserResponse {
	return &UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (mo.Option[*User], error)
	// Save inserts when ID is empty and updates the existing row otherwise.
	Save(ctx context.Context, user *User) (*User, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
}

type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserCache is a read-through cache. Every Invalidate bumps the id's
// generation; Fill writes only if the generation still equals the one read
// before the database lookup, so a fill racing a write never lands.
type UserCache interface {
	Get(ctx context.Context, id string) (mo.Option[*User], error)
	Generation(ctx context.Context, id string) (int64, error)
	Fill(ctx context.Context, user *User, generation int64) error
	Invalidate(ctx context.Context, id string) error
}
