package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faq-assistant/internal/assistant/emotion"
	"faq-assistant/internal/assistant/index"
	"faq-assistant/internal/assistant/keyword"
	"faq-assistant/internal/assistant/router"
	"faq-assistant/internal/common/config"
	commonerrors "faq-assistant/internal/common/errors"
	"faq-assistant/internal/common/logger"
	"faq-assistant/internal/models"
	"faq-assistant/internal/session"
	"faq-assistant/internal/store"
)

type fakeAssistant struct {
	resp         router.Response
	calls        int
	lastQuestion string
	lastCorpus   []models.FAQ
}

func (f *fakeAssistant) Route(_ context.Context, question string, corpus []models.FAQ) router.Response {
	f.calls++
	f.lastQuestion = question
	f.lastCorpus = corpus
	return f.resp
}

type fakeFAQStore struct {
	faqs     []models.FAQ
	listErr  error
	logs     []models.QuestionLog
	logErr   error
	feedback []models.Feedback
	top      []store.QuestionCount
	topDays  int
	topLimit int
}

func (f *fakeFAQStore) ListFAQs(context.Context) ([]models.FAQ, error) {
	return f.faqs, f.listErr
}

func (f *fakeFAQStore) GetFAQ(_ context.Context, id int64) (models.FAQ, error) {
	for _, faq := range f.faqs {
		if faq.ID == id {
			return faq, nil
		}
	}
	return models.FAQ{}, commonerrors.NewFAQNotFoundError(id)
}

func (f *fakeFAQStore) CreateFAQ(_ context.Context, question, answer string) (models.FAQ, error) {
	faq := models.FAQ{ID: int64(len(f.faqs) + 1), Question: question, Answer: answer}
	f.faqs = append(f.faqs, faq)
	return faq, nil
}

func (f *fakeFAQStore) UpdateFAQ(_ context.Context, id int64, question, answer string) error {
	for i, faq := range f.faqs {
		if faq.ID == id {
			f.faqs[i].Question = question
			f.faqs[i].Answer = answer
			return nil
		}
	}
	return commonerrors.NewFAQNotFoundError(id)
}

func (f *fakeFAQStore) DeleteFAQ(_ context.Context, id int64) error {
	for i, faq := range f.faqs {
		if faq.ID == id {
			f.faqs = append(f.faqs[:i], f.faqs[i+1:]...)
			return nil
		}
	}
	return commonerrors.NewFAQNotFoundError(id)
}

func (f *fakeFAQStore) InsertQuestionLog(_ context.Context, entry models.QuestionLog) error {
	if f.logErr != nil {
		return f.logErr
	}
	f.logs = append(f.logs, entry)
	return nil
}

func (f *fakeFAQStore) InsertFeedback(_ context.Context, fb models.Feedback) error {
	f.feedback = append(f.feedback, fb)
	return nil
}

func (f *fakeFAQStore) TopQuestions(_ context.Context, days, limit int) ([]store.QuestionCount, error) {
	f.topDays = days
	f.topLimit = limit
	return f.top, nil
}

func (f *fakeFAQStore) CategoryCounts(context.Context) ([]store.CategoryCount, error) {
	return []store.CategoryCount{{Category: "general", Count: 3}}, nil
}

func (f *fakeFAQStore) DailyCounts(context.Context, int) ([]store.DailyCount, error) {
	return []store.DailyCount{{Date: "2026-08-27", Count: 5}}, nil
}

func (f *fakeFAQStore) CSAT(context.Context) (store.CSATSummary, error) {
	return store.CSATSummary{Total: 4, Satisfied: 3, Score: 0.75}, nil
}

type fakeSessions struct {
	sessions     map[string]*models.Session
	incrementErr error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]*models.Session{}}
}

func (f *fakeSessions) Start(_ context.Context, userID string) (models.Session, error) {
	sess := models.Session{
		SessionID: "sess-1",
		UserID:    userID,
		StartTime: time.Now().UTC(),
		Active:    true,
	}
	f.sessions[sess.SessionID] = &sess
	return sess, nil
}

func (f *fakeSessions) Get(_ context.Context, id string) (models.Session, error) {
	sess, ok := f.sessions[id]
	if !ok {
		return models.Session{}, session.ErrNotFound
	}
	return *sess, nil
}

func (f *fakeSessions) IncrementQuestions(_ context.Context, id string) (int, error) {
	if f.incrementErr != nil {
		return 0, f.incrementErr
	}
	sess, ok := f.sessions[id]
	if !ok || !sess.Active {
		return 0, session.ErrNotFound
	}
	sess.QuestionCount++
	return sess.QuestionCount, nil
}

func (f *fakeSessions) End(_ context.Context, id string) (models.Session, error) {
	sess, ok := f.sessions[id]
	if !ok || !sess.Active {
		return models.Session{}, session.ErrNotFound
	}
	now := time.Now().UTC()
	sess.Active = false
	sess.EndTime = &now
	return *sess, nil
}

func setupServer(t *testing.T) (*Server, *fakeAssistant, *fakeFAQStore, *fakeSessions) {
	t.Helper()

	assistant := &fakeAssistant{
		resp: router.Response{
			Answer:     "Use the HR portal.",
			Source:     router.SourceFAQMatch,
			Confidence: index.ConfidenceHigh,
			Similarity: 0.95,
			Emotion:    emotion.Verdict{Sentiment: "neutral"},
		},
	}
	faqs := &fakeFAQStore{
		faqs: []models.FAQ{
			{ID: 1, Question: "How do I apply for vacation leave?", Answer: "Use the HR portal."},
		},
	}
	sessions := newFakeSessions()

	srv := New(config.ServerConfig{Host: "127.0.0.1", Port: 0},
		assistant, faqs, sessions,
		keyword.NewService(keyword.DefaultCategories()),
		logger.NewTestLogger(t))
	return srv, assistant, faqs, sessions
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	return rec
}

func TestChat(t *testing.T) {
	srv, assistant, faqs, _ := setupServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/chat", map[string]string{
		"question": "How do I apply for vacation leave?",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Use the HR portal.", resp["answer"])
	assert.Equal(t, "faq_match", resp["source"])
	assert.Equal(t, "vacation leave", resp["category"])

	assert.Equal(t, 1, assistant.calls)
	assert.Len(t, assistant.lastCorpus, 1)

	require.Len(t, faqs.logs, 1)
	assert.Equal(t, "How do I apply for vacation leave?", faqs.logs[0].Question)
	assert.Equal(t, "vacation leave", faqs.logs[0].Category)
}

func TestChat_BlankQuestion(t *testing.T) {
	srv, assistant, _, _ := setupServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/chat", map[string]string{"question": "   "})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, assistant.calls)
}

func TestChat_MissingQuestion(t *testing.T) {
	srv, _, _, _ := setupServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/chat", map[string]string{"user_id": "u1"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_MalformedBody(t *testing.T) {
	srv, _, _, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_UnknownSession(t *testing.T) {
	srv, assistant, _, _ := setupServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/chat", map[string]string{
		"question":   "How do I apply for vacation leave?",
		"session_id": "missing",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, assistant.calls)
}

func TestChat_SessionQuestionLimit(t *testing.T) {
	srv, _, _, sessions := setupServer(t)
	sessions.incrementErr = session.ErrQuestionLimit

	rec := doJSON(t, srv, http.MethodPost, "/api/chat", map[string]string{
		"question":   "How do I apply for vacation leave?",
		"session_id": "sess-1",
	})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestChat_LogFailureDoesNotFailRequest(t *testing.T) {
	srv, _, faqs, _ := setupServer(t)
	faqs.logErr = commonerrors.NewFAQQueryError("insert failed")

	rec := doJSON(t, srv, http.MethodPost, "/api/chat", map[string]string{
		"question": "How do I apply for vacation leave?",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateFAQ(t *testing.T) {
	srv, _, faqs, _ := setupServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/faqs", map[string]string{
		"question": "What is the dress code?",
		"answer":   "Business casual.",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, faqs.faqs, 2)
}

func TestCreateFAQ_MissingAnswer(t *testing.T) {
	srv, _, faqs, _ := setupServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/faqs", map[string]string{
		"question": "What is the dress code?",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, faqs.faqs, 1)
}

func TestGetFAQ_NotFound(t *testing.T) {
	srv, _, _, _ := setupServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/faqs/99", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteFAQ(t *testing.T) {
	srv, _, faqs, _ := setupServer(t)

	rec := doJSON(t, srv, http.MethodDelete, "/api/faqs/1", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, faqs.faqs)
}

func TestSessionLifecycle(t *testing.T) {
	srv, _, faqs, _ := setupServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/session/start", map[string]string{"user_id": "u1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var sess models.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, "u1", sess.UserID)

	rec = doJSON(t, srv, http.MethodGet, "/api/session/status/"+sess.SessionID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/session/end", map[string]interface{}{
		"session_id": sess.SessionID,
		"feedback":   map[string]interface{}{"satisfied": true, "rating": 5},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, faqs.feedback, 1)
	assert.True(t, faqs.feedback[0].Satisfied)
	require.NotNil(t, faqs.feedback[0].Rating)
	assert.Equal(t, 5, *faqs.feedback[0].Rating)

	require.Len(t, faqs.logs, 1)
	assert.True(t, faqs.logs[0].IsSessionEnd)
}

func TestSessionStatus_Unknown(t *testing.T) {
	srv, _, _, _ := setupServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/session/status/missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFeedback_RatingOutOfRange(t *testing.T) {
	srv, _, faqs, _ := setupServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/feedback", map[string]interface{}{
		"satisfied": true,
		"rating":    9,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, faqs.feedback)
}

func TestFeedback(t *testing.T) {
	srv, _, faqs, _ := setupServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/feedback", map[string]interface{}{
		"satisfied": false,
		"comment":   "answer missed the point",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, faqs.feedback, 1)
	assert.False(t, faqs.feedback[0].Satisfied)
}

func TestTopQuestions_Defaults(t *testing.T) {
	srv, _, faqs, _ := setupServer(t)
	faqs.top = []store.QuestionCount{{Question: "How to reset my password?", Count: 12}}

	rec := doJSON(t, srv, http.MethodGet, "/api/top-questions", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, faqs.topDays)
	assert.Equal(t, 10, faqs.topLimit)
}

func TestTopQuestions_QueryParams(t *testing.T) {
	srv, _, faqs, _ := setupServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/top-questions?days=30&limit=5", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30, faqs.topDays)
	assert.Equal(t, 5, faqs.topLimit)
}

func TestCSATEndpoint(t *testing.T) {
	srv, _, _, _ := setupServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/csat", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var summary store.CSATSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.InDelta(t, 0.75, summary.Score, 1e-9)
}

func TestHealth(t *testing.T) {
	srv, _, _, _ := setupServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}
