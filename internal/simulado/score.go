package simulado

import "github.com/etepro/etepro-backend/internal/model"

// Result is the score of an attempt.
type Result struct {
	Correct    int `json:"correct"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// GradedQuestion pairs a question with the stored answer and its correctness.
type GradedQuestion struct {
	Question model.Question
	Answer   string
	Answered bool
	Correct  bool
}

// Grade checks every question against answers, keyed by question id.
// Unanswered questions and answers outside the listed options are incorrect.
func Grade(questions []model.Question, answers map[string]string) []GradedQuestion {
	graded := make([]GradedQuestion, 0, len(questions))
	for _, q := range questions {
		ans, ok := answers[q.ID.String()]
		graded = append(graded, GradedQuestion{
			Question: q,
			Answer:   ans,
			Answered: ok,
			Correct:  ok && ans == q.CorrectAnswer,
		})
	}
	return graded
}

// Score computes the correct count and rounded percentage of an attempt.
func Score(questions []model.Question, answers map[string]string) Result {
	correct := 0
	for _, g := range Grade(questions, answers) {
		if g.Correct {
			correct++
		}
	}
	total := len(questions)
	return Result{
		Correct:    correct,
		Total:      total,
		Percentage: Percentage(correct, total),
	}
}

// Percentage returns 100*correct/total rounded half up, or 0 when total is 0.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}

// ElapsedMinutes converts elapsed seconds to whole minutes, rounding half up.
func ElapsedMinutes(seconds int) int {
	if seconds <= 0 {
		return 0
	}
	return (seconds + 30) / 60
}
