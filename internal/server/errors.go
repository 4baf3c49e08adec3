package server

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonathan/interview-kit/internal/apperrors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string         `json:"error"`
	Kind  apperrors.Kind `json:"kind"`
}

// writeError maps err to its status code and writes the caller-facing message.
// Internal causes are logged, never returned.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	kind := apperrors.KindOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.String("kind", string(kind)),
			zap.Error(err))
	} else {
		s.logger.Debug("Request rejected",
			zap.String("path", r.URL.Path),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
	s.jsonResponse(w, status, ErrorResponse{Error: apperrors.Message(err), Kind: kind})
}

// validationError converts validator errors into an invalid-input error naming the first field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		ve := verrs[0]
		return apperrors.Invalid("validation error: %s - %s", ve.Field(), ve.Tag())
	}
	return apperrors.Invalid("validation error: %s", err)
}

func errNoInput() error {
	return apperrors.Invalid("no input provided")
}

func errBadID(name, raw string) error {
	return apperrors.Invalid("%s must be a positive integer, got %q", name, raw)
}
