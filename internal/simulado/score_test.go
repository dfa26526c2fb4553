package simulado

import (
	"testing"

	"github.com/etepro/etepro-backend/internal/model"
	"github.com/google/uuid"
)

func makeQuestions(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			ID:            uuid.New(),
			QuestionText:  "pergunta",
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: "A",
		}
	}
	return qs
}

func TestScore(t *testing.T) {
	qs := makeQuestions(4)

	tests := []struct {
		name    string
		answers map[string]string
		want    Result
	}{
		{
			name:    "no answers",
			answers: map[string]string{},
			want:    Result{Correct: 0, Total: 4, Percentage: 0},
		},
		{
			name: "three of four",
			answers: map[string]string{
				qs[0].ID.String(): "A",
				qs[1].ID.String(): "A",
				qs[2].ID.String(): "A",
				qs[3].ID.String(): "B",
			},
			want: Result{Correct: 3, Total: 4, Percentage: 75},
		},
		{
			name: "all correct",
			answers: map[string]string{
				qs[0].ID.String(): "A",
				qs[1].ID.String(): "A",
				qs[2].ID.String(): "A",
				qs[3].ID.String(): "A",
			},
			want: Result{Correct: 4, Total: 4, Percentage: 100},
		},
		{
			name: "free text is incorrect",
			answers: map[string]string{
				qs[0].ID.String(): "a resposta é A",
			},
			want: Result{Correct: 0, Total: 4, Percentage: 0},
		},
		{
			name: "answers for unknown questions are ignored",
			answers: map[string]string{
				uuid.NewString(): "A",
			},
			want: Result{Correct: 0, Total: 4, Percentage: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(qs, tt.answers)
			if got != tt.want {
				t.Errorf("Score() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestScoreEmptySet(t *testing.T) {
	got := Score(nil, map[string]string{"x": "A"})
	if got != (Result{}) {
		t.Errorf("Score(nil) = %+v, want zero", got)
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		correct, total, want int
	}{
		{0, 0, 0},
		{0, 10, 0},
		{10, 10, 100},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{1, 200, 1},
		{1, 201, 0},
	}
	for _, tt := range tests {
		if got := Percentage(tt.correct, tt.total); got != tt.want {
			t.Errorf("Percentage(%d, %d) = %d, want %d", tt.correct, tt.total, got, tt.want)
		}
	}
}

func TestElapsedMinutes(t *testing.T) {
	tests := []struct {
		seconds, want int
	}{
		{-5, 0},
		{0, 0},
		{29, 0},
		{30, 1},
		{89, 1},
		{90, 2},
		{1800, 30},
	}
	for _, tt := range tests {
		if got := ElapsedMinutes(tt.seconds); got != tt.want {
			t.Errorf("ElapsedMinutes(%d) = %d, want %d", tt.seconds, got, tt.want)
		}
	}
}

func TestGradeMarksUnanswered(t *testing.T) {
	qs := makeQuestions(2)
	graded := Grade(qs, map[string]string{qs[1].ID.String(): "A"})

	if graded[0].Answered || graded[0].Answer != "" || graded[0].Correct {
		t.Errorf("graded[0] = %+v, want unanswered", graded[0])
	}
	if !graded[1].Answered || !graded[1].Correct {
		t.Errorf("graded[1] = %+v, want answered and correct", graded[1])
	}
}

func TestScoreMixedAnswers(t *testing.T) {
	qs := makeQuestions(4)
	for i, c := range []string{"A", "B", "C", "D"} {
		qs[i].CorrectAnswer = c
	}
	answers := map[string]string{
		qs[0].ID.String(): "A",
		qs[1].ID.String(): "B",
		qs[2].ID.String(): "X",
		qs[3].ID.String(): "D",
	}

	got := Score(qs, answers)
	want := Result{Correct: 3, Total: 4, Percentage: 75}
	if got != want {
		t.Errorf("Score() = %+v, want %+v", got, want)
	}
}
