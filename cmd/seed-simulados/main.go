// Command seed-simulados loads simulados and their questions from a JSON file
// into PostgreSQL. Without -file it inserts the bundled sample set.
package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/etepro/etepro-backend/internal/config"
	"github.com/etepro/etepro-backend/internal/database"
	"github.com/etepro/etepro-backend/internal/logger"
	"github.com/etepro/etepro-backend/internal/model"
	"github.com/etepro/etepro-backend/internal/repository"
	"github.com/go-playground/validator/v10"
)

//go:embed sample.json
var sampleSet []byte

type seedQuestion struct {
	QuestionText  string   `json:"question_text" validate:"required"`
	Options       []string `json:"options" validate:"min=2,dive,required"`
	CorrectAnswer string   `json:"correct_answer" validate:"required"`
}

type seedSimulado struct {
	Title           string         `json:"title" validate:"required,max=255"`
	Description     string         `json:"description"`
	Category        string         `json:"category" validate:"required,max=100"`
	DifficultyLevel string         `json:"difficulty_level" validate:"oneof=fácil médio difícil"`
	DurationMinutes *int           `json:"duration_minutes" validate:"omitempty,min=1"`
	Questions       []seedQuestion `json:"questions" validate:"dive"`
}

func main() {
	var file string
	flag.StringVar(&file, "file", "", "JSON file with an array of simulados (defaults to the bundled sample)")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, "")

	raw := sampleSet
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("Failed to read seed file")
		}
		raw = b
	}

	seeds, err := parseSeeds(raw)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid seed data")
	}

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	repo := repository.NewSimuladoRepository(pool)

	// ─── Insert ────────────────────────────────────────────────────────
	inserted := 0
	for _, seed := range seeds {
		s, questions := seed.toModel()
		if err := repo.CreateWithQuestions(ctx, s, questions); err != nil {
			log.Error().Err(err).Str("title", seed.Title).Msg("Failed to insert simulado")
			continue
		}
		inserted++
		log.Info().
			Str("id", s.ID.String()).
			Str("title", s.Title).
			Int("questions", s.TotalQuestions).
			Msg("Simulado inserted")
	}

	log.Info().Int("inserted", inserted).Int("total", len(seeds)).Msg("Seeding finished")
}

func parseSeeds(raw []byte) ([]seedSimulado, error) {
	var seeds []seedSimulado
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	v := validator.New()
	for i := range seeds {
		if err := v.Struct(&seeds[i]); err != nil {
			return nil, fmt.Errorf("simulado %d (%q): %w", i+1, seeds[i].Title, err)
		}
	}
	return seeds, nil
}

func (s seedSimulado) toModel() (*model.Simulado, []model.Question) {
	sim := &model.Simulado{
		Title:           s.Title,
		Description:     s.Description,
		Category:        s.Category,
		DifficultyLevel: model.Difficulty(s.DifficultyLevel),
		DurationMinutes: s.DurationMinutes,
	}
	questions := make([]model.Question, 0, len(s.Questions))
	for _, q := range s.Questions {
		questions = append(questions, model.Question{
			QuestionText:  q.QuestionText,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
		})
	}
	return sim, questions
}
