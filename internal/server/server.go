// Package server exposes the assistant over HTTP: the chat endpoint, FAQ
// management, conversation sessions, feedback and analytics.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"faq-assistant/internal/assistant/keyword"
	"faq-assistant/internal/assistant/router"
	"faq-assistant/internal/common/config"
	"faq-assistant/internal/common/logger"
	"faq-assistant/internal/common/metrics"
	"faq-assistant/internal/models"
	"faq-assistant/internal/store"
)

// Assistant routes one question against the current FAQ corpus.
type Assistant interface {
	Route(ctx context.Context, question string, corpus []models.FAQ) router.Response
}

// FAQStore is the persistence surface the handlers need.
type FAQStore interface {
	ListFAQs(ctx context.Context) ([]models.FAQ, error)
	GetFAQ(ctx context.Context, id int64) (models.FAQ, error)
	CreateFAQ(ctx context.Context, question, answer string) (models.FAQ, error)
	UpdateFAQ(ctx context.Context, id int64, question, answer string) error
	DeleteFAQ(ctx context.Context, id int64) error
	InsertQuestionLog(ctx context.Context, entry models.QuestionLog) error
	InsertFeedback(ctx context.Context, fb models.Feedback) error
	TopQuestions(ctx context.Context, days, limit int) ([]store.QuestionCount, error)
	CategoryCounts(ctx context.Context) ([]store.CategoryCount, error)
	DailyCounts(ctx context.Context, days int) ([]store.DailyCount, error)
	CSAT(ctx context.Context) (store.CSATSummary, error)
}

// Sessions is the conversation-session surface the handlers need.
type Sessions interface {
	Start(ctx context.Context, userID string) (models.Session, error)
	Get(ctx context.Context, id string) (models.Session, error)
	IncrementQuestions(ctx context.Context, id string) (int, error)
	End(ctx context.Context, id string) (models.Session, error)
}

// Server is the HTTP front of the assistant.
type Server struct {
	assistant Assistant
	faqs      FAQStore
	sessions  Sessions
	keywords  *keyword.Service
	logger    logger.Logger

	httpServer *http.Server
}

// New wires the routes and builds the Server.
func New(cfg config.ServerConfig, assistant Assistant, faqs FAQStore, sessions Sessions, keywords *keyword.Service, log logger.Logger) *Server {
	s := &Server{
		assistant: assistant,
		faqs:      faqs,
		sessions:  sessions,
		keywords:  keywords,
		logger: log.With(map[string]interface{}{
			"component": "server",
		}),
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.Routes(),
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Millisecond,
	}
	return s
}

// Routes builds the request router.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.observeRequests)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)

	api.HandleFunc("/faqs", s.handleListFAQs).Methods(http.MethodGet)
	api.HandleFunc("/faqs", s.handleCreateFAQ).Methods(http.MethodPost)
	api.HandleFunc("/faqs/{id:[0-9]+}", s.handleGetFAQ).Methods(http.MethodGet)
	api.HandleFunc("/faqs/{id:[0-9]+}", s.handleUpdateFAQ).Methods(http.MethodPut)
	api.HandleFunc("/faqs/{id:[0-9]+}", s.handleDeleteFAQ).Methods(http.MethodDelete)

	api.HandleFunc("/session/start", s.handleSessionStart).Methods(http.MethodPost)
	api.HandleFunc("/session/end", s.handleSessionEnd).Methods(http.MethodPost)
	api.HandleFunc("/session/status/{id}", s.handleSessionStatus).Methods(http.MethodGet)

	api.HandleFunc("/feedback", s.handleFeedback).Methods(http.MethodPost)

	api.HandleFunc("/top-questions", s.handleTopQuestions).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.handleCategories).Methods(http.MethodGet)
	api.HandleFunc("/daily-question-counts", s.handleDailyCounts).Methods(http.MethodGet)
	api.HandleFunc("/csat", s.handleCSAT).Methods(http.MethodGet)

	return r
}

// Start begins serving; it blocks until the listener fails or is closed.
func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{
		"addr": s.httpServer.Addr,
	})
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// observeRequests records per-route request counters.
func (s *Server) observeRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		routeName := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				routeName = tpl
			}
		}
		metrics.HTTPRequests.WithLabelValues(r.Method, routeName, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
