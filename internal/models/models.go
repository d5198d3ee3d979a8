// Package models holds the shared data structures of the FAQ assistant.
package models

import "time"

// FAQ is a single question/answer pair from the knowledge base.
type FAQ struct {
	ID       int64  `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QuestionLog records a routed question for analytics.
type QuestionLog struct {
	ID           int64     `json:"id"`
	Question     string    `json:"question"`
	Keywords     string    `json:"keywords,omitempty"`
	Category     string    `json:"category,omitempty"`
	SessionID    string    `json:"session_id,omitempty"`
	IsSessionEnd bool      `json:"is_session_end"`
	Timestamp    time.Time `json:"timestamp"`
}

// Session is a conversation session between one user and the assistant.
type Session struct {
	SessionID     string     `json:"session_id"`
	UserID        string     `json:"user_id,omitempty"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	Active        bool       `json:"is_active"`
	QuestionCount int        `json:"question_count"`
}

// Feedback is end-of-session satisfaction feedback.
type Feedback struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id,omitempty"`
	Satisfied bool      `json:"satisfied"`
	Rating    *int      `json:"rating,omitempty"` // 1-5 stars
	Comment   string    `json:"comment,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
