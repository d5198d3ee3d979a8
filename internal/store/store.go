// Package store persists FAQ entries, question logs and feedback in
// PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	commonerrors "faq-assistant/internal/common/errors"
	"faq-assistant/internal/common/logger"
	"faq-assistant/internal/models"
)

// Store wraps all database access of the assistant.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

// New builds a Store on an open database handle.
func New(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db: db,
		logger: log.With(map[string]interface{}{
			"component": "store",
		}),
	}
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS faqs (
			id SERIAL PRIMARY KEY,
			question VARCHAR(255) NOT NULL,
			answer TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS question_logs (
			id SERIAL PRIMARY KEY,
			question VARCHAR(255) NOT NULL,
			keywords VARCHAR(255),
			category VARCHAR(100),
			session_id VARCHAR(255),
			is_session_end BOOLEAN NOT NULL DEFAULT FALSE,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS feedback (
			id SERIAL PRIMARY KEY,
			session_id VARCHAR(255),
			satisfied BOOLEAN NOT NULL,
			rating INTEGER,
			comment TEXT,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// ListFAQs returns the full FAQ corpus in stable order.
func (s *Store) ListFAQs(ctx context.Context) ([]models.FAQ, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, answer FROM faqs ORDER BY id`)
	if err != nil {
		return nil, commonerrors.NewFAQQueryError(err.Error())
	}
	defer rows.Close()

	var faqs []models.FAQ
	for rows.Next() {
		var faq models.FAQ
		if err := rows.Scan(&faq.ID, &faq.Question, &faq.Answer); err != nil {
			return nil, commonerrors.NewFAQQueryError(err.Error())
		}
		faqs = append(faqs, faq)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewFAQQueryError(err.Error())
	}
	return faqs, nil
}

// GetFAQ returns one FAQ entry by id.
func (s *Store) GetFAQ(ctx context.Context, id int64) (models.FAQ, error) {
	var faq models.FAQ
	err := s.db.QueryRowContext(ctx,
		`SELECT id, question, answer FROM faqs WHERE id = $1`, id).
		Scan(&faq.ID, &faq.Question, &faq.Answer)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FAQ{}, commonerrors.NewFAQNotFoundError(id)
	}
	if err != nil {
		return models.FAQ{}, commonerrors.NewFAQQueryError(err.Error())
	}
	return faq, nil
}

// CreateFAQ inserts a new FAQ entry and returns it with its id.
func (s *Store) CreateFAQ(ctx context.Context, question, answer string) (models.FAQ, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO faqs (question, answer) VALUES ($1, $2) RETURNING id`,
		question, answer).Scan(&id)
	if err != nil {
		return models.FAQ{}, commonerrors.NewFAQQueryError(err.Error())
	}
	return models.FAQ{ID: id, Question: question, Answer: answer}, nil
}

// UpdateFAQ replaces the question and answer of an existing entry.
func (s *Store) UpdateFAQ(ctx context.Context, id int64, question, answer string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE faqs SET question = $1, answer = $2 WHERE id = $3`,
		question, answer, id)
	if err != nil {
		return commonerrors.NewFAQQueryError(err.Error())
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return commonerrors.NewFAQQueryError(err.Error())
	}
	if affected == 0 {
		return commonerrors.NewFAQNotFoundError(id)
	}
	return nil
}

// DeleteFAQ removes an entry.
func (s *Store) DeleteFAQ(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM faqs WHERE id = $1`, id)
	if err != nil {
		return commonerrors.NewFAQQueryError(err.Error())
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return commonerrors.NewFAQQueryError(err.Error())
	}
	if affected == 0 {
		return commonerrors.NewFAQNotFoundError(id)
	}
	return nil
}
