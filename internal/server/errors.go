package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/zhirschtritt/orderly/internal/domain"
)

const (
	CodeUserNotFound     = "USER_NOT_FOUND"
	CodeValidationError  = "VALIDATION_ERROR"
	CodeMalformedRequest = "MALFORMED_REQUEST"
	CodeInternalError    = "INTERNAL_ERROR"
)

type ErrorResponse struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Status    int       `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// errMalformedRequest marks a body that could not be decoded.
var errMalformedRequest = errors.New("malformed request body")

// writeError is the single place where errors become HTTP responses.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	resp := ErrorResponse{Timestamp: time.Now().UTC()}

	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		resp.Code = CodeUserNotFound
		resp.Message = domain.ErrUserNotFound.Error()
		resp.Status = http.StatusNotFound
	case errors.As(err, &verr):
		resp.Code = CodeValidationError
		resp.Message = verr.Message
		resp.Status = http.StatusBadRequest
	case errors.Is(err, errMalformedRequest):
		resp.Code = CodeMalformedRequest
		resp.Message = errMalformedRequest.Error()
		resp.Status = http.StatusBadRequest
	default:
		logger.Error("request failed", "error", err, "request_id", middleware.GetReqID(r.Context()),
			"method", r.Method, "path", r.URL.Path)
		resp.Code = CodeInternalError
		resp.Message = "internal server error"
		resp.Status = http.StatusInternalServerError
	}

	writeJSON(w, logger, resp.Status, resp)
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
