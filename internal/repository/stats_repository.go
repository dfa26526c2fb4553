package repository

import (
	"context"
	"errors"

	"github.com/etepro/etepro-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatsRepository reads and maintains user_stats.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// GetByUser returns the user's counters, or zero values when no row exists.
func (r *StatsRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*model.UserStats, error) {
	s := &model.UserStats{UserID: userID}
	err := r.pool.QueryRow(ctx,
		`SELECT total_points, total_simulados_completed, total_challenges_completed, study_streak, updated_at
		 FROM user_stats WHERE user_id = $1`, userID,
	).Scan(&s.TotalPoints, &s.TotalSimuladosCompleted, &s.TotalChallengesCompleted, &s.StudyStreak, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// IncrementCompleted adds counts[i] completed simulados to userIDs[i] in a
// single statement, creating rows as needed.
func (r *StatsRepository) IncrementCompleted(ctx context.Context, userIDs []uuid.UUID, counts []int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_stats (user_id, total_simulados_completed, updated_at)
		 SELECT u.user_id, u.n, now()
		 FROM UNNEST($1::uuid[], $2::int[]) AS u(user_id, n)
		 ON CONFLICT (user_id) DO UPDATE
		 SET total_simulados_completed = user_stats.total_simulados_completed + EXCLUDED.total_simulados_completed,
		     updated_at = now()`,
		userIDs, counts,
	)
	return err
}
