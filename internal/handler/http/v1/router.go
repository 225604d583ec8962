package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Снимок мира для клиента
	api.GET("/world", h.getWorld)

	// Диспетчеризация юнита на инцидент
	api.POST("/dispatch", h.dispatchUnit)

	// Маршруты чтения инцидентов
	incidents := api.Group("/incidents")
	{
		incidents.GET("", h.listIncidents)
		incidents.GET("/:id", h.getIncident)
	}

	// Ресурсы и счётчики
	api.GET("/stats", h.getStats)

	// Административные операции требуют API-ключ
	admin := api.Group("/admin", APIKeyAuthMiddleware(h.cfg, h.logger))
	{
		admin.POST("/spawn", h.spawnIncident)
		admin.POST("/reset", h.resetWorld)
	}

	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)
}
