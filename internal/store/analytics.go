package store

import (
	"context"
	"database/sql"

	commonerrors "faq-assistant/internal/common/errors"
	"faq-assistant/internal/models"
)

// QuestionCount is one row of the top-questions report.
type QuestionCount struct {
	Question string `json:"question"`
	Count    int    `json:"count"`
}

// CategoryCount is one row of the category report.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// DailyCount is one row of the daily question-volume report.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// CSATSummary aggregates session feedback.
type CSATSummary struct {
	Total         int     `json:"total"`
	Satisfied     int     `json:"satisfied"`
	Score         float64 `json:"csat_score"`
	AverageRating float64 `json:"average_rating"`
}

// InsertQuestionLog records one routed question.
func (s *Store) InsertQuestionLog(ctx context.Context, entry models.QuestionLog) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO question_logs (question, keywords, category, session_id, is_session_end)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.Question, entry.Keywords, entry.Category, entry.SessionID, entry.IsSessionEnd)
	if err != nil {
		return commonerrors.NewFAQQueryError(err.Error())
	}
	return nil
}

// InsertFeedback records end-of-session feedback.
func (s *Store) InsertFeedback(ctx context.Context, fb models.Feedback) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (session_id, satisfied, rating, comment)
		 VALUES ($1, $2, $3, $4)`,
		fb.SessionID, fb.Satisfied, fb.Rating, fb.Comment)
	if err != nil {
		return commonerrors.NewFAQQueryError(err.Error())
	}
	return nil
}

// TopQuestions returns the most frequently asked questions of the last
// `days` days.
func (s *Store) TopQuestions(ctx context.Context, days, limit int) ([]QuestionCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question, COUNT(*) AS cnt
		 FROM question_logs
		 WHERE NOT is_session_end
		   AND timestamp >= NOW() - ($1 * INTERVAL '1 day')
		 GROUP BY question
		 ORDER BY cnt DESC, question
		 LIMIT $2`,
		days, limit)
	if err != nil {
		return nil, commonerrors.NewFAQQueryError(err.Error())
	}
	defer rows.Close()

	var out []QuestionCount
	for rows.Next() {
		var qc QuestionCount
		if err := rows.Scan(&qc.Question, &qc.Count); err != nil {
			return nil, commonerrors.NewFAQQueryError(err.Error())
		}
		out = append(out, qc)
	}
	return out, rows.Err()
}

// CategoryCounts returns how many questions landed in each topic category.
func (s *Store) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT COALESCE(category, 'general'), COUNT(*) AS cnt
		 FROM question_logs
		 WHERE NOT is_session_end
		 GROUP BY category
		 ORDER BY cnt DESC`)
	if err != nil {
		return nil, commonerrors.NewFAQQueryError(err.Error())
	}
	defer rows.Close()

	var out []CategoryCount
	for rows.Next() {
		var cc CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, commonerrors.NewFAQQueryError(err.Error())
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}

// DailyCounts returns question volume per day for the last `days` days.
func (s *Store) DailyCounts(ctx context.Context, days int) ([]DailyCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT TO_CHAR(DATE(timestamp), 'YYYY-MM-DD'), COUNT(*)
		 FROM question_logs
		 WHERE NOT is_session_end
		   AND timestamp >= NOW() - ($1 * INTERVAL '1 day')
		 GROUP BY DATE(timestamp)
		 ORDER BY DATE(timestamp)`,
		days)
	if err != nil {
		return nil, commonerrors.NewFAQQueryError(err.Error())
	}
	defer rows.Close()

	var out []DailyCount
	for rows.Next() {
		var dc DailyCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, commonerrors.NewFAQQueryError(err.Error())
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

// CSAT aggregates all recorded feedback into a satisfaction summary.
func (s *Store) CSAT(ctx context.Context) (CSATSummary, error) {
	var summary CSATSummary
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE satisfied),
		        AVG(rating)
		 FROM feedback`).
		Scan(&summary.Total, &summary.Satisfied, &avg)
	if err != nil {
		return CSATSummary{}, commonerrors.NewFAQQueryError(err.Error())
	}
	if summary.Total > 0 {
		summary.Score = float64(summary.Satisfied) / float64(summary.Total)
	}
	if avg.Valid {
		summary.AverageRating = avg.Float64
	}
	return summary, nil
}
