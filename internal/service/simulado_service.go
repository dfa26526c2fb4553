package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/etepro/etepro-backend/internal/config"
	"github.com/etepro/etepro-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var ErrSimuladoNotFound = errors.New("simulado not found")

// SimuladoStore is the persistence the catalogue reads from.
type SimuladoStore interface {
	List(ctx context.Context, f model.ListSimuladosFilter) ([]model.Simulado, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Simulado, error)
	ListQuestions(ctx context.Context, simuladoID uuid.UUID) ([]model.Question, error)
}

// PayloadCache holds serialized simulado payloads. Get reports a miss with
// ok=false and a nil error.
type PayloadCache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// RedisPayloadCache is the PayloadCache backed by Redis strings.
type RedisPayloadCache struct {
	rdb *redis.Client
}

func NewRedisPayloadCache(rdb *redis.Client) *RedisPayloadCache {
	return &RedisPayloadCache{rdb: rdb}
}

func (c *RedisPayloadCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *RedisPayloadCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

func (c *RedisPayloadCache) Del(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// SimuladoService serves the catalogue and loads question sets for sessions.
type SimuladoService struct {
	store SimuladoStore
	cache PayloadCache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewSimuladoService creates a new SimuladoService.
func NewSimuladoService(store SimuladoStore, cache PayloadCache, ttl time.Duration, log zerolog.Logger) *SimuladoService {
	return &SimuladoService{
		store: store,
		cache: cache,
		ttl:   ttl,
		log:   log.With().Str("component", "simulado_service").Logger(),
	}
}

// List returns the catalogue, newest first.
func (s *SimuladoService) List(ctx context.Context, f model.ListSimuladosFilter) ([]model.Simulado, error) {
	simulados, err := s.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list simulados: %w", err)
	}
	return simulados, nil
}

// GetDetail returns a simulado with its questions, without correct answers.
func (s *SimuladoService) GetDetail(ctx context.Context, id uuid.UUID) (*model.SimuladoDetail, error) {
	payload, err := s.LoadSimulado(ctx, id)
	if err != nil {
		return nil, err
	}
	return payload.Detail(), nil
}

// LoadSimulado returns the simulado with its ordered question set. The payload
// is read through the cache; cache failures are logged and fall back to the
// database.
func (s *SimuladoService) LoadSimulado(ctx context.Context, id uuid.UUID) (*model.SimuladoPayload, error) {
	key := config.CacheKey.SimuladoPayloadKey(id.String())

	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("simulado_id", id.String()).Msg("Payload cache read failed")
	}
	if ok {
		var payload model.SimuladoPayload
		if err := json.Unmarshal(data, &payload); err == nil {
			return &payload, nil
		}
		s.log.Warn().Str("simulado_id", id.String()).Msg("Discarding undecodable cached payload")
		if err := s.cache.Del(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("simulado_id", id.String()).Msg("Payload cache delete failed")
		}
	}

	payload, err := s.loadFromStore(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(payload); err == nil {
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			s.log.Warn().Err(err).Str("simulado_id", id.String()).Msg("Payload cache write failed")
		}
	}

	s.log.Debug().
		Str("simulado_id", id.String()).
		Int("questions", len(payload.Questions)).
		Msg("Simulado payload loaded from database")
	return payload, nil
}

func (s *SimuladoService) loadFromStore(ctx context.Context, id uuid.UUID) (*model.SimuladoPayload, error) {
	sim, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSimuladoNotFound
		}
		return nil, fmt.Errorf("get simulado: %w", err)
	}

	questions, err := s.store.ListQuestions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	sim.TotalQuestions = len(questions)

	return &model.SimuladoPayload{Simulado: *sim, Questions: questions}, nil
}
