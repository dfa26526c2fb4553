package handler

import (
	"errors"
	"net/http"

	"github.com/etepro/etepro-backend/internal/model"
	"github.com/etepro/etepro-backend/internal/response"
	"github.com/etepro/etepro-backend/internal/service"
	"github.com/etepro/etepro-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SimuladoHandler serves the simulado catalogue.
type SimuladoHandler struct {
	simuladoService *service.SimuladoService
	log             zerolog.Logger
}

// NewSimuladoHandler creates a new SimuladoHandler.
func NewSimuladoHandler(simuladoService *service.SimuladoService, log zerolog.Logger) *SimuladoHandler {
	return &SimuladoHandler{
		simuladoService: simuladoService,
		log:             log.With().Str("component", "simulado_handler").Logger(),
	}
}

// List godoc
// GET /api/v1/simulados?difficulty=&category=
func (h *SimuladoHandler) List(c *gin.Context) {
	var filter model.ListSimuladosFilter
	if fields := validator.BindQuery(c, &filter); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	simulados, err := h.simuladoService.List(c.Request.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("List simulados failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"simulados": simulados})
}

// Get godoc
// GET /api/v1/simulados/:simulado_id
// Returns the simulado with its questions, without correct answers.
func (h *SimuladoHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("simulado_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	detail, err := h.simuladoService.GetDetail(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSimuladoNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		h.log.Error().Err(err).Str("simulado_id", id.String()).Msg("Get simulado failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, detail)
}
