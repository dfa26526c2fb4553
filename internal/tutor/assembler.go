package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/etepro/etepro-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultHistoryLimit is the number of prior turns included in a prompt.
const DefaultHistoryLimit = 10

var (
	ErrUnauthenticated = errors.New("tutor: unauthenticated")
	ErrHistory         = errors.New("tutor: history unavailable")
	ErrGeneration      = errors.New("tutor: generation failed")
)

// History reads and appends chat turns for one tutor session.
type History interface {
	// RecentTurns returns up to limit of the newest turns of the session.
	RecentTurns(ctx context.Context, userID uuid.UUID, sessionID string, limit int) ([]model.ChatTurn, error)
	AppendTurn(ctx context.Context, turn *model.ChatTurn) error
}

// Params are the sampling parameters sent with every prompt.
type Params struct {
	Temperature     float32
	MaxOutputTokens int
}

// DefaultParams returns temperature 0.7 and 500 output tokens.
func DefaultParams() Params {
	return Params{Temperature: 0.7, MaxOutputTokens: 500}
}

// Generator produces one completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, params Params) (string, error)
}

// Question is one student message addressed to the tutor.
type Question struct {
	UserID    uuid.UUID
	SessionID string
	Topic     string
	Message   string
}

// Assembler builds the conversational prompt, calls the generator and records
// the exchange.
type Assembler struct {
	history History
	gen     Generator
	params  Params
	limit   int
	log     zerolog.Logger
}

func NewAssembler(history History, gen Generator, params Params, limit int, log zerolog.Logger) *Assembler {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &Assembler{
		history: history,
		gen:     gen,
		params:  params,
		limit:   limit,
		log:     log,
	}
}

// BuildPrompt assembles the prompt for q from the latest turns of its session.
func (a *Assembler) BuildPrompt(ctx context.Context, q Question) (string, error) {
	if q.UserID == uuid.Nil {
		return "", ErrUnauthenticated
	}
	turns, err := a.history.RecentTurns(ctx, q.UserID, q.SessionID, a.limit)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrHistory, err)
	}
	return ComposePrompt(latestWindow(turns, a.limit), q.Topic, q.Message), nil
}

// Ask answers q. Nothing is stored when generation fails. A failure to store
// the completed turn is logged and the answer is still returned.
func (a *Assembler) Ask(ctx context.Context, q Question) (string, error) {
	prompt, err := a.BuildPrompt(ctx, q)
	if err != nil {
		return "", err
	}

	answer, err := a.gen.Generate(ctx, prompt, a.params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	turn := &model.ChatTurn{
		UserID:      q.UserID,
		SessionID:   q.SessionID,
		UserMessage: q.Message,
		AIResponse:  answer,
	}
	if topic := strings.TrimSpace(q.Topic); topic != "" {
		turn.Topic = &topic
	}
	if err := a.history.AppendTurn(ctx, turn); err != nil {
		a.log.Warn().
			Err(err).
			Str("user_id", q.UserID.String()).
			Str("session_id", q.SessionID).
			Msg("Failed to store tutor turn")
	}

	return answer, nil
}
