package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"

	tgerrors "github.com/matzehuels/thoughtgraph/pkg/errors"
)

// errorBody is the JSON shape of every API error and of the error recorded on
// a session.
type errorBody struct {
	Code    string `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

func newErrorBody(err error) *errorBody {
	if err == nil {
		return nil
	}
	code := tgerrors.GetCode(err)
	if code == "" {
		code = tgerrors.ErrCodeInternal
	}
	return &errorBody{
		Code:    string(code),
		Title:   tgerrors.Title(code),
		Message: tgerrors.UserMessage(err),
	}
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch tgerrors.GetCode(err) {
	case tgerrors.ErrCodeFileNotFound, tgerrors.ErrCodeNotFound:
		return http.StatusNotFound
	case tgerrors.ErrCodeInvalidJSON, tgerrors.ErrCodeInvalidInput, tgerrors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case tgerrors.ErrCodeSchema:
		return http.StatusUnprocessableEntity
	case tgerrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, logger *log.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, s.logger, status, newErrorBody(err))
}
