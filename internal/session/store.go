// Package session manages conversation sessions in Redis so a user's
// consecutive questions can be grouped and capped.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"faq-assistant/internal/common/logger"
	"faq-assistant/internal/common/metrics"
	"faq-assistant/internal/models"
)

var (
	ErrNotFound      = errors.New("SESSION_NOT_FOUND")
	ErrQuestionLimit = errors.New("SESSION_QUESTION_LIMIT")
)

// Config holds session lifecycle settings.
type Config struct {
	Timeout      time.Duration // idle timeout before a session expires
	MaxQuestions int           // hard cap of questions per session
}

// Store keeps sessions as Redis hashes with a TTL equal to the idle
// timeout; every question refreshes the TTL.
type Store struct {
	client *redis.Client
	config *Config
	logger logger.Logger
}

// NewStore builds a session store.
func NewStore(client *redis.Client, config *Config, log logger.Logger) *Store {
	return &Store{
		client: client,
		config: config,
		logger: log.With(map[string]interface{}{
			"component": "session",
		}),
	}
}

func sessionKey(id string) string {
	return "session:" + id
}

// Start creates a new active session and returns it.
func (s *Store) Start(ctx context.Context, userID string) (models.Session, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	key := sessionKey(id)
	fields := map[string]interface{}{
		"user_id":        userID,
		"start_time":     now.Format(time.RFC3339Nano),
		"active":         "1",
		"question_count": 0,
	}
	if err := s.client.HSet(ctx, key, fields).Err(); err != nil {
		return models.Session{}, fmt.Errorf("start session: %w", err)
	}
	if err := s.client.Expire(ctx, key, s.config.Timeout).Err(); err != nil {
		return models.Session{}, fmt.Errorf("set session ttl: %w", err)
	}

	metrics.ActiveSessions.Inc()
	s.logger.Info("session started", map[string]interface{}{
		"sessionID": id,
		"userID":    userID,
	})

	return models.Session{
		SessionID:     id,
		UserID:        userID,
		StartTime:     now,
		Active:        true,
		QuestionCount: 0,
	}, nil
}

// Get returns the session, or ErrNotFound when it never existed or expired.
func (s *Store) Get(ctx context.Context, id string) (models.Session, error) {
	values, err := s.client.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return models.Session{}, fmt.Errorf("get session: %w", err)
	}
	if len(values) == 0 {
		return models.Session{}, ErrNotFound
	}
	return parseSession(id, values), nil
}

// IncrementQuestions counts one more question against the session,
// refreshing its TTL. It fails with ErrQuestionLimit once the cap is
// reached and with ErrNotFound for unknown, expired or ended sessions.
func (s *Store) IncrementQuestions(ctx context.Context, id string) (int, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if !sess.Active {
		return 0, ErrNotFound
	}
	if sess.QuestionCount >= s.config.MaxQuestions {
		return sess.QuestionCount, ErrQuestionLimit
	}

	key := sessionKey(id)
	count, err := s.client.HIncrBy(ctx, key, "question_count", 1).Result()
	if err != nil {
		return 0, fmt.Errorf("increment question count: %w", err)
	}
	if err := s.client.Expire(ctx, key, s.config.Timeout).Err(); err != nil {
		return 0, fmt.Errorf("refresh session ttl: %w", err)
	}
	return int(count), nil
}

// End marks the session inactive. The hash is retained for the idle
// timeout so late status queries still resolve.
func (s *Store) End(ctx context.Context, id string) (models.Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return models.Session{}, err
	}
	if !sess.Active {
		return models.Session{}, ErrNotFound
	}

	now := time.Now().UTC()
	key := sessionKey(id)
	if err := s.client.HSet(ctx, key,
		"active", "0",
		"end_time", now.Format(time.RFC3339Nano),
	).Err(); err != nil {
		return models.Session{}, fmt.Errorf("end session: %w", err)
	}
	if err := s.client.Expire(ctx, key, s.config.Timeout).Err(); err != nil {
		return models.Session{}, fmt.Errorf("set session retention: %w", err)
	}

	metrics.ActiveSessions.Dec()
	s.logger.Info("session ended", map[string]interface{}{
		"sessionID":     id,
		"questionCount": sess.QuestionCount,
	})

	sess.Active = false
	sess.EndTime = &now
	return sess, nil
}

func parseSession(id string, values map[string]string) models.Session {
	sess := models.Session{
		SessionID: id,
		UserID:    values["user_id"],
		Active:    values["active"] == "1",
	}
	if t, err := time.Parse(time.RFC3339Nano, values["start_time"]); err == nil {
		sess.StartTime = t
	}
	if raw, ok := values["end_time"]; ok {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			sess.EndTime = &t
		}
	}
	if n, err := strconv.Atoi(values["question_count"]); err == nil {
		sess.QuestionCount = n
	}
	return sess
}
