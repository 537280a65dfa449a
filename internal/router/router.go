// Package router wires the gin engine of the read API.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/brentspine/discord-ticketbot/api"
	"github.com/brentspine/discord-ticketbot/internal/handler"
)

func New(health *handler.HealthHandler, tickets *handler.TicketHandler, production bool) *gin.Engine {
	if production {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)

	r.GET("/openapi.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", api.Spec())
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.URL("/openapi.json")))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/tickets", tickets.List)
		v1.GET("/tickets/:id", tickets.Get)
		v1.GET("/stats", tickets.Stats)
		v1.GET("/supporters/:id/ratings", tickets.SupporterRatings)
	}
	return r
}
