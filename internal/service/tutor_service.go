package service

import (
	"context"
	"fmt"

	"github.com/etepro/etepro-backend/internal/model"
	"github.com/etepro/etepro-backend/internal/tutor"
	"github.com/google/uuid"
)

// TranscriptStore lists the stored turns of a tutor session.
type TranscriptStore interface {
	ListSession(ctx context.Context, userID uuid.UUID, sessionID string) ([]model.ChatTurn, error)
}

// TutorService answers student questions and serves session transcripts.
type TutorService struct {
	assembler   *tutor.Assembler
	transcripts TranscriptStore
}

func NewTutorService(assembler *tutor.Assembler, transcripts TranscriptStore) *TutorService {
	return &TutorService{assembler: assembler, transcripts: transcripts}
}

// Ask forwards the question to the tutor.
func (s *TutorService) Ask(ctx context.Context, userID uuid.UUID, req model.TutorChatRequest) (*model.TutorChatResponse, error) {
	answer, err := s.assembler.Ask(ctx, tutor.Question{
		UserID:    userID,
		SessionID: req.SessionID,
		Topic:     req.Topic,
		Message:   req.Message,
	})
	if err != nil {
		return nil, err
	}
	return &model.TutorChatResponse{Message: answer, SessionID: req.SessionID}, nil
}

// Transcript returns every turn of one of the user's sessions, oldest first.
func (s *TutorService) Transcript(ctx context.Context, userID uuid.UUID, sessionID string) ([]model.ChatTurn, error) {
	turns, err := s.transcripts.ListSession(ctx, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list session turns: %w", err)
	}
	return turns, nil
}
