package repository

import (
	"context"

	"github.com/etepro/etepro-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatRepository stores tutor chat turns in ai_chat_history.
type ChatRepository struct {
	pool *pgxpool.Pool
}

// NewChatRepository creates a new ChatRepository.
func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{pool: pool}
}

// RecentTurns returns up to limit of the newest turns of a session, oldest first.
func (r *ChatRepository) RecentTurns(ctx context.Context, userID uuid.UUID, sessionID string, limit int) ([]model.ChatTurn, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, session_id, user_message, ai_response, topic, created_at
		 FROM ai_chat_history
		 WHERE user_id = $1 AND session_id = $2
		 ORDER BY created_at DESC
		 LIMIT $3`,
		userID, sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	turns, err := scanTurns(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// AppendTurn inserts a turn and fills its id and created_at.
func (r *ChatRepository) AppendTurn(ctx context.Context, t *model.ChatTurn) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO ai_chat_history (user_id, session_id, user_message, ai_response, topic)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		t.UserID, t.SessionID, t.UserMessage, t.AIResponse, t.Topic,
	).Scan(&t.ID, &t.CreatedAt)
}

// ListSession returns every turn of a session in chronological order.
func (r *ChatRepository) ListSession(ctx context.Context, userID uuid.UUID, sessionID string) ([]model.ChatTurn, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, session_id, user_message, ai_response, topic, created_at
		 FROM ai_chat_history
		 WHERE user_id = $1 AND session_id = $2
		 ORDER BY created_at ASC`,
		userID, sessionID,
	)
	if err != nil {
		return nil, err
	}
	return scanTurns(rows)
}

type turnRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

func scanTurns(rows turnRows) ([]model.ChatTurn, error) {
	defer rows.Close()

	turns := []model.ChatTurn{}
	for rows.Next() {
		var t model.ChatTurn
		if err := rows.Scan(&t.ID, &t.UserID, &t.SessionID, &t.UserMessage, &t.AIResponse, &t.Topic, &t.CreatedAt); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
