package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"

	"rallyrank/internal/back"
	"rallyrank/internal/elo"
	"rallyrank/internal/util"
)

const (
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeStorage    = "STORAGE_ERROR"
	CodeRateLimit  = "RATE_LIMITED"
	CodeInternal   = "INTERNAL_ERROR"
)

type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

// classify maps an error returned by the ledger to an HTTP status, the
// message is safe to send back.
func classify(err error) (status int, code, message string) {
	if msg, ok := util.PublicMessage(err); ok {
		return http.StatusBadRequest, CodeValidation, msg
	}

	switch {
	case errors.Is(err, elo.ErrNegativeScore), errors.Is(err, elo.ErrScoreTooLarge):
		return http.StatusBadRequest, CodeValidation, err.Error()
	case errors.Is(err, back.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, err.Error()
	case errors.Is(err, back.ErrStorage):
		return http.StatusServiceUnavailable, CodeStorage, "storage is unavailable, retry later"
	default:
		return http.StatusInternalServerError, CodeInternal, "internal error"
	}
}

func (s *Server) error(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classify(err)

	event := hlog.FromRequest(r).Warn()
	if status >= http.StatusInternalServerError {
		event = hlog.FromRequest(r).Error()
	}
	event.Err(err).Int("status", status).Str("path", r.URL.Path).Msg("request failed")

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}

	s.response(w, status, errorResponse{Error: apiError{
		Code:      code,
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
	}})
}

func (s *Server) tooManyRequests(w http.ResponseWriter, r *http.Request) {
	s.response(w, http.StatusTooManyRequests, errorResponse{Error: apiError{
		Code:      CodeRateLimit,
		Message:   "too many requests",
		RequestID: middleware.GetReqID(r.Context()),
	}})
}
