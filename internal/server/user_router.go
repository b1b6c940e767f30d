package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/zhirschtritt/orderly/internal/domain"
)

type UserService interface {
	CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.UserResponse, error)
	UpdateUser(ctx context.Context, req domain.UpdateUserRequest) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
}

type UserRouter struct {
	userService UserService
	logger      *slog.Logger
}

func NewUserRouter(userService UserService, logger *slog.Logger) *UserRouter {
	return &UserRouter{
		userService: userService,
		logger:      logger,
	}
}

func (ur *UserRouter) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", ur.createUser)
	r.Put("/{id}", ur.updateUser)
	r.Get("/{id}", ur.getUser)
	r.Delete("/{id}", ur.deleteUser)
	return r
}

func (ur *UserRouter) createUser(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := decodeBody(w, r, &req); err != nil {
		ur.logger.Warn("failed to decode create user request", "error", err)
		writeError(w, r, ur.logger, err)
		return
	}

	if err := domain.ValidateRequest(req); err != nil {
		writeError(w, r, ur.logger, err)
		return
	}

	user, err := ur.userService.CreateUser(r.Context(), req)
	if err != nil {
		writeError(w, r, ur.logger, err)
		return
	}

	writeJSON(w, ur.logger, http.StatusCreated, user)
}

func (ur *UserRouter) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, ur.logger, err)
		return
	}

	var req domain.UpdateUserRequest
	if err := decodeBody(w, r, &req); err != nil {
		ur.logger.Warn("failed to decode update user request", "error", err, "user_id", id)
		writeError(w, r, ur.logger, err)
		return
	}

	if req.ID != "" {
		bodyID, err := uuid.Parse(req.ID)
		if err != nil || bodyID.String() != id {
			writeError(w, r, ur.logger, domain.NewValidationError("id", "Id does not match path"))
			return
		}
	}
	req.ID = id

	if err := domain.ValidateRequest(req); err != nil {
		writeError(w, r, ur.logger, err)
		return
	}

	user, err := ur.userService.UpdateUser(r.Context(), req)
	if err != nil {
		writeError(w, r, ur.logger, err)
		return
	}

	writeJSON(w, ur.logger, http.StatusOK, user)
}

func (ur *UserRouter) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, ur.logger, err)
		return
	}

	user, err := ur.userService.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, ur.logger, err)
		return
	}

	writeJSON(w, ur.logger, http.StatusOK, user)
}

func (ur *UserRouter) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, ur.logger, err)
		return
	}

	deleted, err := ur.userService.DeleteUser(r.Context(), id)
	if err != nil {
		writeError(w, r, ur.logger, err)
		return
	}

	writeJSON(w, ur.logger, http.StatusOK, deleted)
}

// pathID returns the canonical form of the {id} URL parameter.
func pathID(r *http.Request) (string, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return "", domain.NewValidationError("id", "Id is invalid")
	}
	return id.String(), nil
}

// maxBodyBytes caps request bodies; larger bodies fail as malformed.
const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errMalformedRequest, err)
	}
	return nil
}
