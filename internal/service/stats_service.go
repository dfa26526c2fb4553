package service

import (
	"context"
	"fmt"

	"github.com/etepro/etepro-backend/internal/model"
	"github.com/google/uuid"
)

type StatsStore interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*model.UserStats, error)
}

// StatsService serves the dashboard counters.
type StatsService struct {
	store StatsStore
}

func NewStatsService(store StatsStore) *StatsService {
	return &StatsService{store: store}
}

func (s *StatsService) Get(ctx context.Context, userID uuid.UUID) (*model.UserStats, error) {
	stats, err := s.store.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return stats, nil
}
