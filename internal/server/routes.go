package server

import (
	"github.com/labstack/echo/v4"

	"github.com/scivar-kg/backend/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Concept routes
	apiRoutes.POST("/concepts", routes.BuildConceptHandler)
	apiRoutes.GET("/concepts/:term", routes.GetConceptHandler)
	apiRoutes.GET("/concepts/:term/variables", routes.GetConceptVariablesHandler)
	apiRoutes.GET("/concepts/:term/indicators", routes.GetConceptIndicatorsHandler)
}
