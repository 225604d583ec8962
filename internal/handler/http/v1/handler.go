package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shenikar/emergency_dispatch_system/internal/config"
	"github.com/shenikar/emergency_dispatch_system/internal/service"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	simulationService service.SimulationService
	logger            *logrus.Logger
	validate          *validator.Validate
	cfg               *config.Config
}

func NewHandler(simulationService service.SimulationService, logger *logrus.Logger, cfg *config.Config) *Handler {
	return &Handler{
		simulationService: simulationService,
		logger:            logger,
		validate:          validator.New(),
		cfg:               cfg,
	}
}

// @Summary Get world snapshot
// @Description Get a consistent snapshot of the simulation world: incidents, units, hospitals, stations, personnel and resources.
// @Tags World
// @Accept json
// @Produce json
// @Success 200 {object} WorldStateResponse
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /world [get]
func (h *Handler) getWorld(c *gin.Context) {
	log := h.logger.WithField("method", "getWorld")

	world, err := h.simulationService.WorldSnapshot(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to build world snapshot in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ModelToWorldStateResponse(world))
}

// @Summary Dispatch a unit to an incident
// @Description Send an available unit to an active incident. Returns dispatched=false with 409 when admission control refuses the pairing.
// @Tags Dispatch
// @Accept json
// @Produce json
// @Param dispatch body DispatchRequest true "Dispatch request"
// @Success 200 {object} DispatchResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 409 {object} DispatchResponse "Dispatch refused"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /dispatch [post]
func (h *Handler) dispatchUnit(c *gin.Context) {
	var input DispatchRequest
	log := h.logger.WithField("method", "dispatchUnit")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dispatched, err := h.simulationService.Dispatch(c.Request.Context(), input.IncidentID, input.UnitID)
	if err != nil {
		log.WithError(err).Error("Failed to dispatch unit in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if !dispatched {
		c.JSON(http.StatusConflict, DispatchResponse{Dispatched: false})
		return
	}
	c.JSON(http.StatusOK, DispatchResponse{Dispatched: true})
}

// @Summary Get a list of incidents
// @Description Get a paginated list of all incidents, newest first.
// @Tags Incidents
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Number of items per page" default(20)
// @Success 200 {array} IncidentResponse
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [get]
func (h *Handler) listIncidents(c *gin.Context) {
	log := h.logger.WithField("method", "listIncidents")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	incidents, err := h.simulationService.ListIncidents(c.Request.Context(), page, pageSize)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ModelsToIncidentResponses(incidents))
}

// @Summary Get incident by ID
// @Description Get a single incident by its ID.
// @Tags Incidents
// @Accept json
// @Produce json
// @Param id path int true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id} [get]
func (h *Handler) getIncident(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "getIncident").WithField("id", id)

	incident, err := h.simulationService.GetIncident(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
			return
		}
		log.WithError(err).Error("Failed to get incident from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Get game statistics
// @Description Get current funds, experience and incident counters.
// @Tags Stats
// @Accept json
// @Produce json
// @Success 200 {object} GameStateResponse
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /stats [get]
func (h *Handler) getStats(c *gin.Context) {
	log := h.logger.WithField("method", "getStats")

	state, err := h.simulationService.GetGameState(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to get game state from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ModelToGameStateResponse(state))
}

// @Summary Spawn a new incident
// @Description Manually trigger generation of a random incident. Requires API key.
// @Tags Admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 201 {object} IncidentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/spawn [post]
func (h *Handler) spawnIncident(c *gin.Context) {
	log := h.logger.WithField("method", "spawnIncident")

	incident, err := h.simulationService.SpawnIncident(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to spawn incident in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, ModelToIncidentResponse(incident))
}

// @Summary Reset the world
// @Description Wipe the world and reseed the starting stations, hospitals, units and crews. Requires API key.
// @Tags Admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]string "Status OK"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/reset [post]
func (h *Handler) resetWorld(c *gin.Context) {
	log := h.logger.WithField("method", "resetWorld")

	if err := h.simulationService.ResetWorld(c.Request.Context()); err != nil {
		log.WithError(err).Error("Failed to reset world in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
