package api

import (
	"github.com/gin-gonic/gin"

	"emergency-service/internal/logging"
)

// NewRouter wires all HTTP routes under /api/v0.
func NewRouter(h *Handler, ws *WebSocketManager, logger *logging.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v0 := router.Group("/api/v0")
	{
		symptoms := v0.Group("/symptoms")
		{
			symptoms.POST("", h.CreateSymptomReport)
			symptoms.GET("", h.ListSymptomReports)
			symptoms.GET("/stats", h.SymptomStats)
			symptoms.GET("/:id", h.GetSymptomReport)
			symptoms.POST("/:id/resolve", h.ResolveSymptomReport)
		}

		emergency := v0.Group("/emergency")
		{
			emergency.POST("/alert", h.RaiseEmergency)
			emergency.GET("/facilities", h.GetFacilities)
			emergency.GET("/contacts/:user_id", h.GetContacts)
			emergency.GET("/guidelines", h.GetGuidelines)
		}

		alerts := v0.Group("/alerts")
		{
			alerts.GET("/user/:user_id", h.GetAlertsByUserID)
			alerts.GET("/:id", h.GetAlert)
			alerts.POST("/:id/ack", h.AcknowledgeAlert)
			alerts.POST("/:id/resolve", h.ResolveAlert)
		}

		v0.GET("/ws/alerts/:user_id", ws.HandleAlertStream)
	}

	return router
}
