package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/scivar-kg/backend/internal/server/middleware"
	"github.com/scivar-kg/backend/pkg/kg"
)

// GetConceptHandler returns the graph node a term resolves to, together
// with its canonical spelling.
func GetConceptHandler(c echo.Context) error {
	type getConceptResponse struct {
		Message string   `json:"message"`
		Term    string   `json:"term,omitempty"`
		Node    *kg.Node `json:"node,omitempty"`
	}

	term := c.Param("term")
	store, _ := c.(*middleware.AppContext).App.Graph.Graph()

	key, ok := store.Resolve(term)
	if !ok {
		return c.JSON(http.StatusNotFound, getConceptResponse{
			Message: "Concept not found",
		})
	}
	node, ok := store.Get(key)
	if !ok {
		return c.JSON(http.StatusNotFound, getConceptResponse{
			Message: "Concept not found",
		})
	}

	return c.JSON(http.StatusOK, getConceptResponse{
		Message: "OK",
		Term:    key,
		Node:    node,
	})
}
