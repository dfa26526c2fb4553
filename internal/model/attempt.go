package model

import (
	"time"

	"github.com/google/uuid"
)

// SubmitTrigger records what ended an attempt.
type SubmitTrigger string

const (
	SubmitTriggerManual  SubmitTrigger = "manual"
	SubmitTriggerExpired SubmitTrigger = "expired"
)

// SimuladoResponse is the persisted answer of one question in an attempt.
// UserAnswer is empty for unanswered questions.
type SimuladoResponse struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	SimuladoID uuid.UUID `json:"simulado_id"`
	QuestionID uuid.UUID `json:"question_id"`
	UserAnswer string    `json:"user_answer"`
	IsCorrect  bool      `json:"is_correct"`
	CreatedAt  time.Time `json:"created_at"`
}

// SimuladoAttempt is the summary of one completed attempt.
type SimuladoAttempt struct {
	ID                uuid.UUID     `json:"id"`
	UserID            uuid.UUID     `json:"user_id"`
	SimuladoID        uuid.UUID     `json:"simulado_id"`
	Score             int           `json:"score"`
	TotalQuestions    int           `json:"total_questions"`
	PercentageCorrect int           `json:"percentage_correct"`
	TimeSpentMinutes  int           `json:"time_spent_minutes"`
	Trigger           SubmitTrigger `json:"trigger"`
	CompletedAt       time.Time     `json:"completed_at"`
}

// AttemptHistoryEntry is an attempt joined with its simulado title.
type AttemptHistoryEntry struct {
	SimuladoAttempt
	SimuladoTitle string `json:"simulado_title"`
}

// AttemptCompletedEvent is queued for the stats worker after an attempt
// summary is stored.
type AttemptCompletedEvent struct {
	AttemptID  uuid.UUID `json:"attempt_id"`
	UserID     uuid.UUID `json:"user_id"`
	SimuladoID uuid.UUID `json:"simulado_id"`
	Percentage int       `json:"percentage"`
}
