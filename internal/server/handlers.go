package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/xeipuuv/gojsonschema"

	commonerrors "faq-assistant/internal/common/errors"
	"faq-assistant/internal/models"
	"faq-assistant/internal/session"
)

const maxBodyBytes = 64 << 10

type chatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

type faqRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type sessionStartRequest struct {
	UserID string `json:"user_id,omitempty"`
}

type sessionEndRequest struct {
	SessionID string           `json:"session_id"`
	Feedback  *feedbackPayload `json:"feedback,omitempty"`
}

type feedbackPayload struct {
	SessionID string `json:"session_id,omitempty"`
	Satisfied bool   `json:"satisfied"`
	Rating    *int   `json:"rating,omitempty"`
	Comment   string `json:"comment,omitempty"`
}

// decodeValidated reads the body, checks it against the schema and unmarshals
// it into dst. Schema violations come back as a single validation error.
func decodeValidated(r *http.Request, schema *gojsonschema.Schema, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return commonerrors.NewValidationError("unable to read request body")
	}
	if len(body) == 0 {
		return commonerrors.NewValidationError("request body is required")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return commonerrors.NewValidationError("request body is not valid JSON")
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return commonerrors.NewValidationError(strings.Join(details, "; "))
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return commonerrors.NewValidationError("request body is not valid JSON")
	}
	return nil
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeValidated(r, chatSchema, &req); err != nil {
		s.writeError(w, err)
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		s.writeError(w, commonerrors.NewValidationError("question must not be blank"))
		return
	}

	ctx := r.Context()

	if req.SessionID != "" {
		if _, err := s.sessions.IncrementQuestions(ctx, req.SessionID); err != nil {
			switch {
			case errors.Is(err, session.ErrNotFound):
				s.writeError(w, commonerrors.NewSessionNotFoundError(req.SessionID))
			case errors.Is(err, session.ErrQuestionLimit):
				s.writeError(w, commonerrors.NewSessionLimitError(req.SessionID))
			default:
				s.writeError(w, err)
			}
			return
		}
	}

	corpus, err := s.faqs.ListFAQs(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := s.assistant.Route(ctx, question, corpus)

	// Logging the question is best effort; the answer is already decided.
	kw := s.keywords.Process(question)
	if err := s.faqs.InsertQuestionLog(ctx, models.QuestionLog{
		Question:  question,
		Keywords:  kw.KeywordsCSV,
		Category:  kw.Category,
		SessionID: req.SessionID,
	}); err != nil {
		s.logger.WithError(err).Warn("question log insert failed", map[string]interface{}{
			"session_id": req.SessionID,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"answer":           resp.Answer,
		"source":           resp.Source,
		"confidence":       resp.Confidence,
		"similarity":       resp.Similarity,
		"emotion_analysis": resp.Emotion,
		"requires_human":   resp.RequiresHuman,
		"keywords":         kw.Keywords,
		"category":         kw.Category,
		"session_id":       req.SessionID,
	})
}

func (s *Server) handleListFAQs(w http.ResponseWriter, r *http.Request) {
	faqs, err := s.faqs.ListFAQs(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if faqs == nil {
		faqs = []models.FAQ{}
	}
	writeJSON(w, http.StatusOK, faqs)
}

func (s *Server) handleGetFAQ(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	faq, err := s.faqs.GetFAQ(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, faq)
}

func (s *Server) handleCreateFAQ(w http.ResponseWriter, r *http.Request) {
	var req faqRequest
	if err := decodeValidated(r, faqSchema, &req); err != nil {
		s.writeError(w, err)
		return
	}
	faq, err := s.faqs.CreateFAQ(r.Context(), strings.TrimSpace(req.Question), strings.TrimSpace(req.Answer))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, faq)
}

func (s *Server) handleUpdateFAQ(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req faqRequest
	if err := decodeValidated(r, faqSchema, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.faqs.UpdateFAQ(r.Context(), id, strings.TrimSpace(req.Question), strings.TrimSpace(req.Answer)); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.FAQ{ID: id, Question: strings.TrimSpace(req.Question), Answer: strings.TrimSpace(req.Answer)})
}

func (s *Server) handleDeleteFAQ(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.faqs.DeleteFAQ(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	var req sessionStartRequest
	// The body is optional here; an anonymous session has no user id.
	if r.ContentLength > 0 {
		if err := decodeValidated(r, sessionStartSchema, &req); err != nil {
			s.writeError(w, err)
			return
		}
	}
	sess, err := s.sessions.Start(r.Context(), req.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleSessionEnd(w http.ResponseWriter, r *http.Request) {
	var req sessionEndRequest
	if err := decodeValidated(r, sessionEndSchema, &req); err != nil {
		s.writeError(w, err)
		return
	}

	ctx := r.Context()
	sess, err := s.sessions.End(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			s.writeError(w, commonerrors.NewSessionNotFoundError(req.SessionID))
			return
		}
		s.writeError(w, err)
		return
	}

	if err := s.faqs.InsertQuestionLog(ctx, models.QuestionLog{
		Question:     "[session ended]",
		SessionID:    req.SessionID,
		IsSessionEnd: true,
	}); err != nil {
		s.logger.WithError(err).Warn("session end log insert failed", map[string]interface{}{
			"session_id": req.SessionID,
		})
	}

	if req.Feedback != nil {
		if err := s.faqs.InsertFeedback(ctx, models.Feedback{
			SessionID: req.SessionID,
			Satisfied: req.Feedback.Satisfied,
			Rating:    req.Feedback.Rating,
			Comment:   req.Feedback.Comment,
		}); err != nil {
			s.writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			s.writeError(w, commonerrors.NewSessionNotFoundError(id))
			return
		}
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackPayload
	if err := decodeValidated(r, feedbackSchema, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.faqs.InsertFeedback(r.Context(), models.Feedback{
		SessionID: req.SessionID,
		Satisfied: req.Satisfied,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

func (s *Server) handleTopQuestions(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 7)
	limit := queryInt(r, "limit", 10)
	top, err := s.faqs.TopQuestions(r.Context(), days, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, top)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	counts, err := s.faqs.CategoryCounts(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleDailyCounts(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 30)
	counts, err := s.faqs.DailyCounts(r.Context(), days)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleCSAT(w http.ResponseWriter, r *http.Request) {
	summary, err := s.faqs.CSAT(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, commonerrors.NewValidationError("id must be an integer")
	}
	return id, nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	stdErr := commonerrors.Normalize(err)
	status := commonerrors.HTTPStatus(stdErr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("request failed", map[string]interface{}{
			"code": string(stdErr.Code),
		})
	}
	writeJSON(w, status, map[string]interface{}{"error": stdErr})
}
