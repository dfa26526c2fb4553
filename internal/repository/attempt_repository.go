package repository

import (
	"context"

	"github.com/etepro/etepro-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AttemptRepository writes submitted attempts and reads attempt history.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// SaveResponse inserts one per-question response record.
func (r *AttemptRepository) SaveResponse(ctx context.Context, resp *model.SimuladoResponse) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO simulado_responses (user_id, simulado_id, question_id, user_answer, is_correct)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		resp.UserID, resp.SimuladoID, resp.QuestionID, resp.UserAnswer, resp.IsCorrect,
	).Scan(&resp.ID, &resp.CreatedAt)
}

// SaveAttempt inserts the attempt summary.
func (r *AttemptRepository) SaveAttempt(ctx context.Context, a *model.SimuladoAttempt) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO simulado_attempts
		   (user_id, simulado_id, score, total_questions, percentage_correct, time_spent_minutes, trigger, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		a.UserID, a.SimuladoID, a.Score, a.TotalQuestions, a.PercentageCorrect,
		a.TimeSpentMinutes, a.Trigger, a.CompletedAt,
	).Scan(&a.ID)
}

// ListByUser returns one page of the user's attempts, newest first, and the
// total number of attempts.
func (r *AttemptRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, perPage int) ([]model.AttemptHistoryEntry, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM simulado_attempts WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.user_id, a.simulado_id, a.score, a.total_questions, a.percentage_correct,
		        a.time_spent_minutes, a.trigger, a.completed_at, s.title
		 FROM simulado_attempts a
		 JOIN simulados s ON s.id = a.simulado_id
		 WHERE a.user_id = $1
		 ORDER BY a.completed_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := []model.AttemptHistoryEntry{}
	for rows.Next() {
		var e model.AttemptHistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.SimuladoID, &e.Score, &e.TotalQuestions,
			&e.PercentageCorrect, &e.TimeSpentMinutes, &e.Trigger, &e.CompletedAt, &e.SimuladoTitle); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
