package tutor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/etepro/etepro-backend/internal/model"
)

const persona = "Você é um tutor educacional para candidatos de Escolas Técnicas Estaduais (ETE). " +
	"Você é amigável, paciente e didático. " +
	"Explique conceitos de forma clara e acessível. " +
	"Quando apropriado, faça perguntas para verificar compreensão. "

// ComposePrompt renders the generation prompt from turns (oldest first), an
// optional topic and the new student message.
func ComposePrompt(turns []model.ChatTurn, topic, message string) string {
	var b strings.Builder
	b.WriteString(persona)
	if topic != "" {
		fmt.Fprintf(&b, "O tópico atual de estudo é: %s. ", topic)
	}
	if len(turns) > 0 {
		b.WriteString("\n\nHistórico da conversa:\n")
		for _, t := range turns {
			fmt.Fprintf(&b, "Aluno: %s\nTutor: %s\n", t.UserMessage, t.AIResponse)
		}
	}
	fmt.Fprintf(&b, "\nAluno: %s\n\nTutor:", message)
	return b.String()
}

// latestWindow orders turns by creation time and keeps the newest limit of
// them, oldest first. The input slice is not modified.
func latestWindow(turns []model.ChatTurn, limit int) []model.ChatTurn {
	ordered := make([]model.ChatTurn, len(turns))
	copy(ordered, turns)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})
	if limit > 0 && len(ordered) > limit {
		ordered = ordered[len(ordered)-limit:]
	}
	return ordered
}
