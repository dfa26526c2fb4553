package handler

import (
	"net/http"

	"github.com/etepro/etepro-backend/internal/middleware"
	"github.com/etepro/etepro-backend/internal/model"
	"github.com/etepro/etepro-backend/internal/response"
	"github.com/etepro/etepro-backend/internal/service"
	"github.com/etepro/etepro-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PortalHandler serves the student's own records: attempt history and
// dashboard counters.
type PortalHandler struct {
	attemptService *service.AttemptService
	statsService   *service.StatsService
	log            zerolog.Logger
}

// NewPortalHandler creates a new PortalHandler.
func NewPortalHandler(attemptService *service.AttemptService, statsService *service.StatsService, log zerolog.Logger) *PortalHandler {
	return &PortalHandler{
		attemptService: attemptService,
		statsService:   statsService,
		log:            log.With().Str("component", "portal_handler").Logger(),
	}
}

// ListAttempts godoc
// GET /api/v1/attempts?page=&per_page=
func (h *PortalHandler) ListAttempts(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == uuid.Nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var q model.PageQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	q.Normalize()

	entries, total, err := h.attemptService.ListByUser(c.Request.Context(), userID, q.Page, q.PerPage)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID.String()).Msg("List attempts failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"attempts": entries},
		response.NewPagination(q.Page, q.PerPage, total))
}

// GetStats godoc
// GET /api/v1/stats
func (h *PortalHandler) GetStats(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == uuid.Nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	stats, err := h.statsService.Get(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID.String()).Msg("Get stats failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, stats)
}
