package model

import (
	"time"

	"github.com/google/uuid"
)

// UserStats holds the gamification counters shown on the student dashboard.
type UserStats struct {
	UserID                   uuid.UUID  `json:"user_id"`
	TotalPoints              int        `json:"total_points"`
	TotalSimuladosCompleted  int        `json:"total_simulados_completed"`
	TotalChallengesCompleted int        `json:"total_challenges_completed"`
	StudyStreak              int        `json:"study_streak"`
	UpdatedAt                *time.Time `json:"updated_at,omitempty"`
}
