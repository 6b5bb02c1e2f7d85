package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tbxark/loanagent/agent"
	"github.com/tbxark/loanagent/dialogue"
)

// ErrorBody is the error object of every failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func (s *Server) respondError(c *gin.Context, status int, code, message string) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(c.Request.Context(), level, "Request failed",
		"status", status,
		"code", code,
		"message", message,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetString(requestIDKey),
	)
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{Code: code, Message: message},
	})
}

// respondErr maps engine and flow errors to HTTP statuses.
func (s *Server) respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, agent.ErrSessionNotFound):
		s.respondError(c, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, dialogue.ErrUnknownField):
		s.respondError(c, http.StatusNotFound, "unknown_field", err.Error())
	case errors.Is(err, dialogue.ErrInvalidPrefill):
		s.respondError(c, http.StatusBadRequest, "invalid_prefill", err.Error())
	case errors.Is(err, dialogue.ErrNotRepeatable):
		s.respondError(c, http.StatusUnprocessableEntity, "not_repeatable", err.Error())
	default:
		s.respondError(c, http.StatusInternalServerError, "internal", err.Error())
	}
}
