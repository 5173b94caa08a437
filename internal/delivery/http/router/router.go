// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"medsync/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	ChangeHandler       *handler.ChangeHandler
	NotificationHandler *handler.NotificationHandler
	SyncHandler         *handler.SyncHandler
}

// router holds all the handlers that need to be registered.
type router struct {
	changeHandler       *handler.ChangeHandler
	notificationHandler *handler.NotificationHandler
	syncHandler         *handler.SyncHandler
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		changeHandler:       params.ChangeHandler,
		notificationHandler: params.NotificationHandler,
		syncHandler:         params.SyncHandler,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	api := e.Group("/api/v1")

	changeGroup := api.Group("/changes")
	{
		changeGroup.POST("", r.changeHandler.Enqueue)
		changeGroup.GET("", r.changeHandler.ListPending)
		changeGroup.GET("/count", r.changeHandler.CountPending)
		changeGroup.DELETE("", r.changeHandler.Clear)
	}

	notificationGroup := api.Group("/notifications")
	{
		notificationGroup.POST("", r.notificationHandler.Send)
		notificationGroup.GET("", r.notificationHandler.History)
		notificationGroup.POST("/:id/ack", r.notificationHandler.Acknowledge)
	}

	syncGroup := api.Group("/sync")
	{
		syncGroup.POST("/drain", r.syncHandler.Drain)
		syncGroup.GET("/connectivity", r.syncHandler.ConnectivityStatus)
		syncGroup.POST("/connectivity", r.syncHandler.ReportConnectivity)
	}
}
