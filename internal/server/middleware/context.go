package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/scivar-kg/backend/pkg/kg"
)

type App struct {
	Queue *amqp091.Channel
	Graph *kg.Reloader
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(
	queue *amqp091.Channel,
	graph *kg.Reloader,
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			app := &App{
				Queue: queue,
				Graph: graph,
			}
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
