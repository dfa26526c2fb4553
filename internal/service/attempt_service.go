package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/etepro/etepro-backend/internal/config"
	"github.com/etepro/etepro-backend/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AttemptStore is the persistence of submitted attempts.
type AttemptStore interface {
	SaveResponse(ctx context.Context, r *model.SimuladoResponse) error
	SaveAttempt(ctx context.Context, a *model.SimuladoAttempt) error
	ListByUser(ctx context.Context, userID uuid.UUID, page, perPage int) ([]model.AttemptHistoryEntry, int64, error)
}

// StatsQueue hands completed attempts to the stats worker.
type StatsQueue interface {
	Enqueue(ctx context.Context, ev model.AttemptCompletedEvent) error
}

// RedisStatsQueue pushes events onto the stats worker's Redis list.
type RedisStatsQueue struct {
	rdb *redis.Client
}

func NewRedisStatsQueue(rdb *redis.Client) *RedisStatsQueue {
	return &RedisStatsQueue{rdb: rdb}
}

func (q *RedisStatsQueue) Enqueue(ctx context.Context, ev model.AttemptCompletedEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return q.rdb.RPush(ctx, config.WorkerKey.RecordAttemptStatsQueue, data).Err()
}

// AttemptService records submissions and serves attempt history. It is the
// simulado.Recorder used by live sessions.
type AttemptService struct {
	store AttemptStore
	queue StatsQueue
	log   zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(store AttemptStore, queue StatsQueue, log zerolog.Logger) *AttemptService {
	return &AttemptService{
		store: store,
		queue: queue,
		log:   log.With().Str("component", "attempt_service").Logger(),
	}
}

// SaveResponse stores one per-question response.
func (s *AttemptService) SaveResponse(ctx context.Context, r *model.SimuladoResponse) error {
	if err := s.store.SaveResponse(ctx, r); err != nil {
		return fmt.Errorf("save response: %w", err)
	}
	return nil
}

// SaveAttempt stores the attempt summary and queues a stats update. A failed
// enqueue is logged only; the attempt itself is already durable.
func (s *AttemptService) SaveAttempt(ctx context.Context, a *model.SimuladoAttempt) error {
	if err := s.store.SaveAttempt(ctx, a); err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}

	ev := model.AttemptCompletedEvent{
		AttemptID:  a.ID,
		UserID:     a.UserID,
		SimuladoID: a.SimuladoID,
		Percentage: a.PercentageCorrect,
	}
	if err := s.queue.Enqueue(ctx, ev); err != nil {
		s.log.Warn().
			Err(err).
			Str("attempt_id", a.ID.String()).
			Msg("Failed to queue attempt stats")
	}
	return nil
}

// ListByUser returns a page of the user's attempt history.
func (s *AttemptService) ListByUser(ctx context.Context, userID uuid.UUID, page, perPage int) ([]model.AttemptHistoryEntry, int64, error) {
	entries, total, err := s.store.ListByUser(ctx, userID, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list attempts: %w", err)
	}
	return entries, total, nil
}
