package model

import (
	"time"

	"github.com/google/uuid"
)

// ChatTurn is one exchange between a student and the AI tutor.
type ChatTurn struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	SessionID   string    `json:"session_id"`
	UserMessage string    `json:"user_message"`
	AIResponse  string    `json:"ai_response"`
	Topic       *string   `json:"topic,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TutorChatRequest is the payload of POST /api/v1/tutor/chat.
type TutorChatRequest struct {
	Message   string `json:"message" binding:"required,max=4000"`
	SessionID string `json:"sessionId" binding:"required,max=100"`
	Topic     string `json:"topic" binding:"omitempty,max=200"`
}

// TutorChatResponse is the success body of POST /api/v1/tutor/chat.
type TutorChatResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}
