package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"medsync/internal/delivery/http/response"
	"medsync/internal/domain/entity"
	"medsync/internal/usecase"

	"github.com/labstack/echo/v4"
)

// NotificationHandler holds dependencies for notification endpoints
type NotificationHandler struct {
	uc     usecase.DispatchUsecase
	logger *slog.Logger
}

// NewNotificationHandler is the constructor for NotificationHandler
func NewNotificationHandler(uc usecase.DispatchUsecase, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		uc:     uc,
		logger: logger,
	}
}

// SendNotificationRequest represents the request body for dispatching a notification
type SendNotificationRequest struct {
	Type     string         `json:"type" validate:"required"`
	Priority string         `json:"priority"`
	Payload  map[string]any `json:"payload"`
}

// Send handles dispatching a notification through its routed channels
func (h *NotificationHandler) Send(c echo.Context) error {
	var req SendNotificationRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid notification input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.uc.Send(
		c.Request().Context(),
		entity.NotificationType(req.Type),
		entity.ParsePriority(req.Priority),
		req.Payload,
	)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusCreated, result, "Notification dispatched")
}

// History handles listing recent notification log entries
func (h *NotificationHandler) History(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	messages, err := h.uc.History(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, messages, "")
}

// Acknowledge handles recording a read receipt for a sent notification
func (h *NotificationHandler) Acknowledge(c echo.Context) error {
	acknowledged, err := h.uc.Acknowledge(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	if !acknowledged {
		return response.NotFound(c, "MESSAGE_NOT_FOUND", "No sent message with that id")
	}

	return response.Success(c, http.StatusOK, nil, "Notification acknowledged")
}
