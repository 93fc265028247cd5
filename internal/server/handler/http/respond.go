package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/scrollie/internal/kv"
	"github.com/atinyakov/scrollie/internal/models"
	"github.com/atinyakov/scrollie/internal/service"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	// Set for usage_limit_reached only.
	Plan   models.Plan        `json:"plan,omitempty"`
	Type   models.ProjectType `json:"type,omitempty"`
	Usage  *models.Usage      `json:"usage,omitempty"`
	Limits *models.Limits     `json:"limits,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Message: msg})
}

// decodeBody reads a JSON request body into dst, rejecting unknown fields.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeError maps a service error to a status code and JSON body.
// Unexpected errors are logged and reported as 500.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var (
		verr  *service.ValidationError
		limit *models.LimitError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.Fields})
	case errors.As(err, &limit):
		writeJSON(w, http.StatusPaymentRequired, errorResponse{
			Error:   "usage_limit_reached",
			Message: limit.Error(),
			Plan:    limit.Plan,
			Type:    limit.Type,
			Usage:   &limit.Usage,
			Limits:  &limit.Limits,
		})
	case errors.Is(err, models.ErrUnknownPlan):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrNotLoggedIn), errors.Is(err, models.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, models.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, kv.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "concurrent update, please retry"})
	case errors.Is(err, models.ErrIndexOutOfRange),
		errors.Is(err, models.ErrLastBullet),
		errors.Is(err, models.ErrWrongProjectType),
		errors.Is(err, models.ErrEmptyContent):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
