package model

import (
	"time"

	"github.com/google/uuid"
)

// Difficulty enumerates the difficulty levels a simulado can be tagged with.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "fácil"
	DifficultyMedium Difficulty = "médio"
	DifficultyHard   Difficulty = "difícil"
)

// Simulado is a timed practice assessment.
type Simulado struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	DifficultyLevel Difficulty `json:"difficulty_level"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	TotalQuestions  int        `json:"total_questions"`
	CreatedAt       time.Time  `json:"created_at"`
}

// DurationSeconds returns the countdown length for an attempt, falling back
// to defaultMinutes when the simulado has no usable duration.
func (s *Simulado) DurationSeconds(defaultMinutes int) int {
	minutes := defaultMinutes
	if s.DurationMinutes != nil && *s.DurationMinutes > 0 {
		minutes = *s.DurationMinutes
	}
	return minutes * 60
}

// Question is a multiple-choice question of a simulado.
type Question struct {
	ID            uuid.UUID `json:"id"`
	SimuladoID    uuid.UUID `json:"simulado_id"`
	QuestionText  string    `json:"question_text"`
	Options       []string  `json:"options"`
	CorrectAnswer string    `json:"correct_answer"`
	CreatedAt     time.Time `json:"created_at"`
}

// ForStudent strips the correct answer.
func (q Question) ForStudent() QuestionForStudent {
	return QuestionForStudent{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		Options:      q.Options,
	}
}

// QuestionForStudent is a question without the correct answer, sent to students.
type QuestionForStudent struct {
	ID           uuid.UUID `json:"id"`
	QuestionText string    `json:"question_text"`
	Options      []string  `json:"options"`
}

// SimuladoPayload is the Redis-cached simulado with its ordered question set.
// It carries the correct answers and never leaves the server as-is.
type SimuladoPayload struct {
	Simulado  Simulado   `json:"simulado"`
	Questions []Question `json:"questions"`
}

// SimuladoDetail is the student-facing view of a simulado.
type SimuladoDetail struct {
	Simulado  Simulado             `json:"simulado"`
	Questions []QuestionForStudent `json:"questions"`
}

// Detail converts the cached payload into its student-facing form.
func (p *SimuladoPayload) Detail() *SimuladoDetail {
	questions := make([]QuestionForStudent, 0, len(p.Questions))
	for _, q := range p.Questions {
		questions = append(questions, q.ForStudent())
	}
	return &SimuladoDetail{Simulado: p.Simulado, Questions: questions}
}

// ListSimuladosFilter holds the optional catalogue filters.
type ListSimuladosFilter struct {
	Difficulty string `form:"difficulty" binding:"omitempty,oneof=fácil médio difícil"`
	Category   string `form:"category" binding:"omitempty,max=100"`
}
