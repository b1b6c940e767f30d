package domain

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type UserService struct {
	userRepo   UserRepository
	transactor Transactor
	cache      UserCache
	logger     *slog.Logger
	now        func() time.Time
}

// NewUserService wires the service. cache may be nil.
func NewUserService(userRepo UserRepository, transactor Transactor, cache UserCache, logger *slog.Logger) *UserService {
	return &UserService{
		userRepo:   userRepo,
		transactor: transactor,
		cache:      cache,
		logger:     logger,
		now:        time.Now,
	}
}

// timestamp matches PostgreSQL's microsecond timestamptz precision so the
// returned entity equals what a later read yields.
func (s *UserService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	now := s.timestamp()
	user := &User{
		Name:      req.Name,
		Email:     req.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var saved *User
	err := s.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		saved, err = s.userRepo.Save(ctx, user)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created", "user_id", saved.ID)
	return NewUserResponse(saved), nil
}

func (s *UserService) UpdateUser(ctx context.Context, req UpdateUserRequest) (*User, error) {
	var updated *User
	err := s.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		user, err := s.findUser(ctx, req.ID)
		if err != nil {
			return err
		}

		now := s.timestamp()
		if now.Before(user.UpdatedAt) {
			now = user.UpdatedAt
		}
		user.Name = req.Name
		user.UpdatedAt = now

		updated, err = s.userRepo.Save(ctx, user)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", req.ID, err)
	}

	s.cacheInvalidate(ctx, updated.ID)
	s.logger.Info("user updated", "user_id", updated.ID)
	return updated, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*User, error) {
	if cached := s.cacheGet(ctx, id); cached != nil {
		return cached, nil
	}
	generation, fillable := s.cacheGeneration(ctx, id)

	var user *User
	err := s.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.findUser(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}

	if fillable {
		s.cacheFill(ctx, user, generation)
	}
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := s.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		found, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if found.IsAbsent() {
			return nil
		}

		deleted, err = s.userRepo.DeleteByID(ctx, id)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete user %s: %w", id, err)
	}

	if deleted {
		s.cacheInvalidate(ctx, id)
		s.logger.Info("user deleted", "user_id", id)
	}
	return deleted, nil
}

func (s *UserService) findUser(ctx context.Context, id string) (*User, error) {
	found, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user, ok := found.Get()
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) cacheGet(ctx context.Context, id string) *User {
	if s.cache == nil {
		return nil
	}

	cached, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.Warn("failed to read user from cache", "error", err, "user_id", id)
		return nil
	}
	return cached.OrEmpty()
}

func (s *UserService) cacheGeneration(ctx context.Context, id string) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}

	generation, err := s.cache.Generation(ctx, id)
	if err != nil {
		s.logger.Warn("failed to read cache generation", "error", err, "user_id", id)
		return 0, false
	}
	return generation, true
}

func (s *UserService) cacheFill(ctx context.Context, user *User, generation int64) {
	if err := s.cache.Fill(ctx, user, generation); err != nil {
		s.logger.Warn("failed to write user to cache", "error", err, "user_id", user.ID)
	}
}

// cacheInvalidate must run after the write commits.
func (s *UserService) cacheInvalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn("failed to invalidate cached user", "error", err, "user_id", id)
	}
}
