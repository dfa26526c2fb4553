package response

import "github.com/gin-gonic/gin"

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Simulado-specific ─────────────────────────────────────────────
	ErrSimuladoNotActive ErrCode = "SIMULADO_NOT_ACTIVE"
	ErrUnknownQuestion   ErrCode = "UNKNOWN_QUESTION"
	ErrUnknownAction     ErrCode = "UNKNOWN_ACTION"
	ErrSubmitFailed      ErrCode = "SUBMIT_FAILED"

	// ─── Tutor ─────────────────────────────────────────────────────────
	ErrTutorUnavailable ErrCode = "TUTOR_UNAVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "Token de autenticação obrigatório."
	case ErrTokenInvalid:
		return "Token de autenticação inválido."
	case ErrTokenExpired:
		return "Token de autenticação expirado."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Falha na validação. Verifique os dados enviados."
	case ErrInvalidID:
		return "Formato de ID inválido."
	case ErrInvalidPayload:
		return "Corpo da requisição inválido."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Recurso não encontrado."

	// ─── Simulado-specific ─────────────────────────────────────────────
	case ErrSimuladoNotActive:
		return "Este simulado não está em andamento."
	case ErrUnknownQuestion:
		return "A questão não pertence a este simulado."
	case ErrUnknownAction:
		return "Ação desconhecida."
	case ErrSubmitFailed:
		return "Não foi possível salvar todas as suas respostas."

	// ─── Tutor ─────────────────────────────────────────────────────────
	case ErrTutorUnavailable:
		return "Erro ao processar sua pergunta"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Muitas requisições. Tente novamente mais tarde."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Erro interno do servidor."
	default:
		return "Ocorreu um erro inesperado."
	}
}

// PlainError is the bare {"error": "..."} body used by the tutor endpoint.
type PlainError struct {
	Error string `json:"error"`
}

// AbortPlain aborts the chain with a PlainError body.
func AbortPlain(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, PlainError{Error: message})
}
