package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/interview-kit/internal/apperrors"
	"github.com/jonathan/interview-kit/internal/regenerate"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// SyncRequest is the body of POST /sync.
type SyncRequest struct {
	ReqID  string `json:"req_id" validate:"required"`
	UserID string `json:"user_id" validate:"required"`
}

// RegenerateQuestionRequest is the optional body of POST /questions/{id}/regenerate.
type RegenerateQuestionRequest struct {
	Reason   string  `json:"reason,omitempty"`
	Feedback *string `json:"feedback,omitempty"`
}

// RegenerateRecordRequest is the body of POST /records/{id}/regenerate.
type RegenerateRecordRequest struct {
	Items    []FeedbackItemRequest `json:"items" validate:"required,min=1,dive"`
	Feedback string                `json:"feedback,omitempty"`
}

// FeedbackItemRequest names one question to replace.
type FeedbackItemRequest struct {
	QuestionID int64  `json:"question_id" validate:"required,gt=0"`
	Feedback   string `json:"feedback"`
}

// handleSync reconciles one record with the recruiting platform.
// With ?dry_run=true the planned mutations are returned and nothing is written.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := s.decodeRequired(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if dry, _ := strconv.ParseBool(r.URL.Query().Get("dry_run")); dry {
		plan, err := s.syncer.Preview(r.Context(), req.ReqID, req.UserID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, plan)
		return
	}

	summary, err := s.syncer.SyncRecord(r.Context(), req.ReqID, req.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, summary)
}

// handleRegenerateQuestion replaces one question. The body is optional.
func (s *Server) handleRegenerateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	req, ok := decodeOptional[RegenerateQuestionRequest](r)
	if !ok {
		s.logger.Debug("No input provided, using defaults", zap.Int64("question_id", id))
	}

	q, err := s.regenerator.RegenerateQuestion(r.Context(), id, req.Reason, req.Feedback)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, q)
}

// handleRegenerateRecord replaces a set of questions of one record using per-question feedback.
func (s *Server) handleRegenerateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req RegenerateRecordRequest
	if err := s.decodeRequired(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	items := make([]regenerate.FeedbackItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = regenerate.FeedbackItem{QuestionID: it.QuestionID, Feedback: it.Feedback}
	}

	res, err := s.regenerator.RegenerateWithFeedback(r.Context(), id, items, req.Feedback)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, res)
}

// handleListRegenerations returns the audit history of a question.
func (s *Server) handleListRegenerations(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	history, err := s.regenerator.History(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"question_id": id, "regenerations": history})
}

// decodeRequired decodes and validates a mandatory JSON body.
func (s *Server) decodeRequired(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperrors.Invalid("failed to read request body")
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return errNoInput()
	}
	if err := json.Unmarshal(body, dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &typeErr):
			return apperrors.Invalid("invalid request body: field %s must be %s", typeErr.Field, typeErr.Type)
		case errors.As(err, &syntaxErr):
			return apperrors.Invalid("invalid request body: malformed JSON")
		}
		return apperrors.Invalid("invalid request body")
	}
	if err := s.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

// decodeOptional decodes an optional JSON body. An absent or unparseable body yields the zero
// value and false: no input provided.
func decodeOptional[T any](r *http.Request) (T, bool) {
	var zero, v T
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(strings.TrimSpace(string(body))) == 0 {
		return zero, false
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return zero, false
	}
	return v, true
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID(name, raw)
	}
	return id, nil
}
