package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/scivar-kg/backend/internal/queue"
	"github.com/scivar-kg/backend/internal/server/middleware"
	"github.com/scivar-kg/backend/pkg/logger"
)

// BuildConceptHandler queues an asynchronous concept build. The worker picks
// the job up from the build queue; the response only acknowledges intake.
func BuildConceptHandler(c echo.Context) error {
	type buildConceptBody struct {
		Term  string `json:"term" validate:"required"`
		Depth int    `json:"depth"`
	}

	type buildConceptResponse struct {
		Message       string `json:"message"`
		CorrelationID string `json:"correlation_id,omitempty"`
		Term          string `json:"term,omitempty"`
		Depth         int    `json:"depth,omitempty"`
	}

	data := new(buildConceptBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, buildConceptResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, buildConceptResponse{
			Message: "Invalid request body",
		})
	}
	if data.Depth == 0 {
		data.Depth = 1
	}

	correlationID, err := gonanoid.New()
	if err != nil {
		logger.Error("Failed to generate correlation id", "err", err)
		return c.JSON(http.StatusInternalServerError, buildConceptResponse{
			Message: "Internal server error",
		})
	}

	msg := queue.BuildConceptMsg{
		Message:       "Build concept",
		CorrelationID: correlationID,
		Term:          data.Term,
		Depth:         data.Depth,
	}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		logger.Error("Failed to marshal build message", "err", err)
		return c.JSON(http.StatusInternalServerError, buildConceptResponse{
			Message: "Internal server error",
		})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.BuildQueue, msgBytes); err != nil {
		logger.Error("Failed to publish build message", "err", err)
		return c.JSON(http.StatusInternalServerError, buildConceptResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, buildConceptResponse{
		Message:       "Concept build queued",
		CorrelationID: correlationID,
		Term:          data.Term,
		Depth:         data.Depth,
	})
}
