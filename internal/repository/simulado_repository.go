package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/etepro/etepro-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SimuladoRepository reads the simulado catalogue and question sets.
type SimuladoRepository struct {
	pool *pgxpool.Pool
}

// NewSimuladoRepository creates a new SimuladoRepository.
func NewSimuladoRepository(pool *pgxpool.Pool) *SimuladoRepository {
	return &SimuladoRepository{pool: pool}
}

const simuladoColumns = `id, title, description, category, difficulty_level, duration_minutes, total_questions, created_at`

// List returns the catalogue, newest first, with optional filters.
func (r *SimuladoRepository) List(ctx context.Context, f model.ListSimuladosFilter) ([]model.Simulado, error) {
	query := `SELECT ` + simuladoColumns + ` FROM simulados WHERE 1=1`
	var args []any

	if f.Difficulty != "" {
		args = append(args, f.Difficulty)
		query += fmt.Sprintf(" AND difficulty_level = $%d", len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	simulados := []model.Simulado{}
	for rows.Next() {
		var s model.Simulado
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.Category, &s.DifficultyLevel,
			&s.DurationMinutes, &s.TotalQuestions, &s.CreatedAt); err != nil {
			return nil, err
		}
		simulados = append(simulados, s)
	}
	return simulados, rows.Err()
}

// GetByID retrieves one simulado. Returns pgx.ErrNoRows when absent.
func (r *SimuladoRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Simulado, error) {
	s := &model.Simulado{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+simuladoColumns+` FROM simulados WHERE id = $1`, id,
	).Scan(&s.ID, &s.Title, &s.Description, &s.Category, &s.DifficultyLevel,
		&s.DurationMinutes, &s.TotalQuestions, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListQuestions returns the question set of a simulado in creation order.
func (r *SimuladoRepository) ListQuestions(ctx context.Context, simuladoID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, simulado_id, question_text, options, correct_answer, created_at
		 FROM simulado_questions
		 WHERE simulado_id = $1
		 ORDER BY created_at ASC, id ASC`, simuladoID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var (
			q    model.Question
			opts []byte
		)
		if err := rows.Scan(&q.ID, &q.SimuladoID, &q.QuestionText, &opts, &q.CorrectAnswer, &q.CreatedAt); err != nil {
			return nil, err
		}
		if q.Options, err = decodeOptions(opts); err != nil {
			return nil, fmt.Errorf("question %s: %w", q.ID, err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// CreateWithQuestions inserts a simulado and its questions in one transaction.
// Question created_at values are spaced a millisecond apart so the stored
// order matches the slice order.
func (r *SimuladoRepository) CreateWithQuestions(ctx context.Context, s *model.Simulado, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO simulados (title, description, category, difficulty_level, duration_minutes, total_questions)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		s.Title, s.Description, s.Category, s.DifficultyLevel, s.DurationMinutes, len(questions),
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert simulado: %w", err)
	}
	s.TotalQuestions = len(questions)

	for i := range questions {
		q := &questions[i]
		opts, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		err = tx.QueryRow(ctx,
			`INSERT INTO simulado_questions (simulado_id, question_text, options, correct_answer, created_at)
			 VALUES ($1, $2, $3, $4, now() + $5::int * interval '1 millisecond')
			 RETURNING id, created_at`,
			s.ID, q.QuestionText, opts, q.CorrectAnswer, i,
		).Scan(&q.ID, &q.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert question %d: %w", i+1, err)
		}
		q.SimuladoID = s.ID
	}

	return tx.Commit(ctx)
}

// decodeOptions converts the jsonb options column into a string slice.
func decodeOptions(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return []string{}, nil
	}
	var opts []string
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	if opts == nil {
		opts = []string{}
	}
	return opts, nil
}
