package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "faq-assistant/internal/common/errors"
	"faq-assistant/internal/common/logger"
	"faq-assistant/internal/models"
)

func setupMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return New(db, logger.NewTestLogger(t)), mock
}

func TestListFAQs(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(`SELECT id, question, answer FROM faqs ORDER BY id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "question", "answer"}).
			AddRow(1, "How do I apply for vacation leave?", "Use the HR portal.").
			AddRow(2, "How to reset my password?", "Use the IT portal."))

	faqs, err := store.ListFAQs(context.Background())

	require.NoError(t, err)
	require.Len(t, faqs, 2)
	assert.Equal(t, int64(1), faqs[0].ID)
	assert.Equal(t, "How to reset my password?", faqs[1].Question)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetFAQ_NotFound(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(`SELECT id, question, answer FROM faqs WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetFAQ(context.Background(), 99)

	var stdErr *commonerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, commonerrors.ErrCodeFAQNotFound, stdErr.Code)
}

func TestCreateFAQ(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(`INSERT INTO faqs \(question, answer\) VALUES \(\$1, \$2\) RETURNING id`).
		WithArgs("What is the dress code?", "Business casual.").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	faq, err := store.CreateFAQ(context.Background(), "What is the dress code?", "Business casual.")

	require.NoError(t, err)
	assert.Equal(t, int64(7), faq.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFAQ_NotFound(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectExec(`UPDATE faqs SET question = \$1, answer = \$2 WHERE id = \$3`).
		WithArgs("q", "a", int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateFAQ(context.Background(), 42, "q", "a")

	var stdErr *commonerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, commonerrors.ErrCodeFAQNotFound, stdErr.Code)
}

func TestDeleteFAQ(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectExec(`DELETE FROM faqs WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, store.DeleteFAQ(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertQuestionLog(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectExec(`INSERT INTO question_logs`).
		WithArgs("How do I apply for vacation leave?", "apply, vacation, leave", "vacation leave", "sess-1", false).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.InsertQuestionLog(context.Background(), models.QuestionLog{
		Question:  "How do I apply for vacation leave?",
		Keywords:  "apply, vacation, leave",
		Category:  "vacation leave",
		SessionID: "sess-1",
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopQuestions(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(`SELECT question, COUNT\(\*\) AS cnt`).
		WithArgs(7, 10).
		WillReturnRows(sqlmock.NewRows([]string{"question", "cnt"}).
			AddRow("How to reset my password?", 12).
			AddRow("How do I apply for vacation leave?", 5))

	top, err := store.TopQuestions(context.Background(), 7, 10)

	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, 12, top[0].Count)
}

func TestCSAT(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count", "satisfied", "avg"}).
			AddRow(8, 6, 4.2))

	summary, err := store.CSAT(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 8, summary.Total)
	assert.Equal(t, 6, summary.Satisfied)
	assert.InDelta(t, 0.75, summary.Score, 1e-9)
	assert.InDelta(t, 4.2, summary.AverageRating, 1e-9)
}

func TestCSAT_NoFeedback(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count", "satisfied", "avg"}).
			AddRow(0, 0, nil))

	summary, err := store.CSAT(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0.0, summary.Score)
	assert.Equal(t, 0.0, summary.AverageRating)
}
