package handler

import (
	"errors"
	"net/http"

	"github.com/etepro/etepro-backend/internal/metrics"
	"github.com/etepro/etepro-backend/internal/middleware"
	"github.com/etepro/etepro-backend/internal/model"
	"github.com/etepro/etepro-backend/internal/response"
	"github.com/etepro/etepro-backend/internal/service"
	"github.com/etepro/etepro-backend/internal/tutor"
	"github.com/etepro/etepro-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	msgUnauthorized   = "Unauthorized"
	msgInvalidRequest = "Requisição inválida"
)

// TutorHandler serves the AI tutor. Chat answers with bare {message,
// sessionId} / {error} bodies instead of the response envelope.
type TutorHandler struct {
	tutorService *service.TutorService
	log          zerolog.Logger
}

// NewTutorHandler creates a new TutorHandler.
func NewTutorHandler(tutorService *service.TutorService, log zerolog.Logger) *TutorHandler {
	return &TutorHandler{
		tutorService: tutorService,
		log:          log.With().Str("component", "tutor_handler").Logger(),
	}
}

// Chat godoc
// POST /api/v1/tutor/chat
// Body: {message, sessionId, topic?}
func (h *TutorHandler) Chat(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == uuid.Nil {
		rejectAnonymous(c)
		return
	}

	var req model.TutorChatRequest
	if fields := validator.Bind(c, &req); fields != nil {
		metrics.TutorRequests.WithLabelValues("invalid").Inc()
		response.AbortPlain(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	resp, err := h.tutorService.Ask(c.Request.Context(), userID, req)
	if err != nil {
		if errors.Is(err, tutor.ErrUnauthenticated) {
			rejectAnonymous(c)
			return
		}
		metrics.TutorRequests.WithLabelValues("failed").Inc()
		h.log.Error().
			Err(err).
			Str("user_id", userID.String()).
			Str("session_id", req.SessionID).
			Msg("Tutor chat failed")
		response.AbortPlain(c, http.StatusInternalServerError, response.GetMessage(response.ErrTutorUnavailable))
		return
	}

	metrics.TutorRequests.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, resp)
}

// ListTurns godoc
// GET /api/v1/tutor/sessions/:session_id/turns
func (h *TutorHandler) ListTurns(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == uuid.Nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID := c.Param("session_id")
	if sessionID == "" || len(sessionID) > 100 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	turns, err := h.tutorService.Transcript(c.Request.Context(), userID, sessionID)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("List tutor turns failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"turns": turns})
}

// RequireTutorUser answers anonymous tutor callers with a plain 401. It must
// run after IdentifyUser and ahead of the rate limiter.
func RequireTutorUser(c *gin.Context) {
	if middleware.UserID(c) == uuid.Nil {
		rejectAnonymous(c)
		return
	}
	c.Next()
}

func rejectAnonymous(c *gin.Context) {
	metrics.TutorRequests.WithLabelValues("unauthenticated").Inc()
	response.AbortPlain(c, http.StatusUnauthorized, msgUnauthorized)
}

// TutorRateLimited is the rate limiter rejection for the tutor endpoint.
func TutorRateLimited(c *gin.Context) {
	metrics.TutorRequests.WithLabelValues("rate_limited").Inc()
	response.AbortPlain(c, http.StatusTooManyRequests, response.GetMessage(response.ErrRateLimitExceeded))
}
