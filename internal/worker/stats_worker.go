package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/etepro/etepro-backend/internal/config"
	"github.com/etepro/etepro-backend/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	StatsBatchSize    = 100
	StatsBatchTimeout = 2 * time.Second
	StatsPollTimeout  = 1 * time.Second
)

// StatsWriter applies completed-simulado increments to user_stats.
type StatsWriter interface {
	IncrementCompleted(ctx context.Context, userIDs []uuid.UUID, counts []int) error
}

// StatsWorker drains the attempt-completed queue and keeps
// user_stats.total_simulados_completed up to date in batches.
type StatsWorker struct {
	stats StatsWriter
	rdb   *redis.Client
	log   zerolog.Logger
}

func NewStatsWorker(stats StatsWriter, rdb *redis.Client, log zerolog.Logger) *StatsWorker {
	return &StatsWorker{
		stats: stats,
		rdb:   rdb,
		log:   log.With().Str("component", "stats_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *StatsWorker) Start(ctx context.Context) {
	w.log.Info().Msg("StatsWorker started")

	batch := make([]model.AttemptCompletedEvent, 0, StatsBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= StatsBatchSize || time.Since(lastFlush) >= StatsBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, StatsPollTimeout, config.WorkerKey.RecordAttemptStatsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			var ev model.AttemptCompletedEvent
			if err := json.Unmarshal([]byte(item[1]), &ev); err != nil || ev.UserID == uuid.Nil {
				w.log.Error().Err(err).Str("payload", item[1]).Msg("Invalid stats event")
				continue
			}
			batch = append(batch, ev)
		}
	}
}

// ----------------------------------------------------------------
// Batch flush with per-user fallback
// ----------------------------------------------------------------

func (w *StatsWorker) flushSafe(ctx context.Context, batch []model.AttemptCompletedEvent) {
	if len(batch) == 0 {
		return
	}

	userIDs, counts := aggregate(batch)
	err := w.stats.IncrementCompleted(ctx, userIDs, counts)
	if err == nil {
		w.log.Debug().Int("events", len(batch)).Int("users", len(userIDs)).Msg("Stats batch flushed")
		return
	}

	w.log.Warn().Err(err).Msg("Bulk stats update failed, using fallback")

	for i, id := range userIDs {
		if err := w.stats.IncrementCompleted(ctx, userIDs[i:i+1], counts[i:i+1]); err != nil {
			w.log.Error().Err(err).Str("user_id", id.String()).Msg("Single stats update failed, requeueing")
			w.requeue(ctx, batch, id)
		}
	}
}

func (w *StatsWorker) requeue(ctx context.Context, batch []model.AttemptCompletedEvent, userID uuid.UUID) {
	for _, ev := range batch {
		if ev.UserID != userID {
			continue
		}
		raw, _ := json.Marshal(ev)
		if err := w.rdb.RPush(ctx, config.WorkerKey.RecordAttemptStatsQueue, raw).Err(); err != nil {
			w.log.Error().Err(err).Str("attempt_id", ev.AttemptID.String()).Msg("Requeue failed, stats event lost")
		}
	}
}

// aggregate counts distinct attempts per user. Output is sorted by user id so
// concurrent upserts lock rows in the same order.
func aggregate(batch []model.AttemptCompletedEvent) ([]uuid.UUID, []int) {
	seen := make(map[uuid.UUID]struct{}, len(batch))
	perUser := make(map[uuid.UUID]int)
	for _, ev := range batch {
		if ev.AttemptID != uuid.Nil {
			if _, dup := seen[ev.AttemptID]; dup {
				continue
			}
			seen[ev.AttemptID] = struct{}{}
		}
		perUser[ev.UserID]++
	}

	userIDs := make([]uuid.UUID, 0, len(perUser))
	for id := range perUser {
		userIDs = append(userIDs, id)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i].String() < userIDs[j].String() })

	counts := make([]int, len(userIDs))
	for i, id := range userIDs {
		counts[i] = perUser[id]
	}
	return userIDs, counts
}
