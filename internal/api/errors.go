package api

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/abhisek/socratic/internal/dialogue"
	"github.com/abhisek/socratic/internal/llm"
	"github.com/abhisek/socratic/internal/session"
)

// defaultRetryAfter is suggested when a rate-limited provider gave no hint.
const defaultRetryAfter = 5

type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

// writeError maps err to a status code and a {error, retryable} body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		badReq  *badRequestError
		provErr *dialogue.ProviderError
	)
	switch {
	case errors.As(err, &badReq):
		writeErrorBody(w, http.StatusBadRequest, badReq.msg, false)
	case errors.Is(err, dialogue.ErrEmptyProblem),
		errors.Is(err, dialogue.ErrEmptyMessage),
		errors.Is(err, dialogue.ErrUnknownDifficulty):
		writeErrorBody(w, http.StatusBadRequest, err.Error(), false)
	case errors.Is(err, session.ErrSessionNotFound):
		writeErrorBody(w, http.StatusNotFound, "session not found", false)
	case errors.Is(err, session.ErrSessionExpired):
		writeErrorBody(w, http.StatusGone, "session expired, start a new one", false)
	case errors.As(err, &provErr):
		s.writeProviderError(w, r, provErr)
	default:
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
		writeErrorBody(w, http.StatusInternalServerError, "internal error", false)
	}
}

func (s *Server) writeProviderError(w http.ResponseWriter, r *http.Request, err error) {
	class := llm.Classify(err)
	status := http.StatusBadGateway
	switch class {
	case llm.ClassRateLimited:
		status = http.StatusServiceUnavailable
		secs := defaultRetryAfter
		if d := llm.RetryAfter(err); d > 0 {
			secs = max(1, int(math.Ceil(d.Seconds())))
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	case llm.ClassTimeout:
		status = http.StatusGatewayTimeout
	}
	s.logger.Warn("tutor reply unavailable",
		"class", string(class),
		"status", status,
		"request_id", middleware.GetReqID(r.Context()),
		slog.Any("error", err))
	writeErrorBody(w, status, llm.UserMessage(err), llm.Retryable(err))
}

func writeErrorBody(w http.ResponseWriter, status int, msg string, retryable bool) {
	JSON(w, status, errorView{Error: msg, Retryable: retryable})
}
