// Package handler contains the HTTP endpoint handlers.
package handler

import (
	"log/slog"
	"net/http"

	"medsync/internal/delivery/http/response"
	"medsync/internal/domain/entity"
	"medsync/internal/usecase"

	"github.com/labstack/echo/v4"
)

// ChangeHandler holds dependencies for change queue endpoints
type ChangeHandler struct {
	uc     usecase.QueueUsecase
	logger *slog.Logger
}

// NewChangeHandler is the constructor for ChangeHandler
func NewChangeHandler(uc usecase.QueueUsecase, logger *slog.Logger) *ChangeHandler {
	return &ChangeHandler{
		uc:     uc,
		logger: logger,
	}
}

// EnqueueChangeRequest represents the request body for queueing a local change
type EnqueueChangeRequest struct {
	EntityType string         `json:"entity_type" validate:"required"`
	Payload    map[string]any `json:"payload" validate:"required"`
}

// Enqueue handles appending a local change to the durable queue
func (h *ChangeHandler) Enqueue(c echo.Context) error {
	var req EnqueueChangeRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid change input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	change, err := h.uc.Enqueue(c.Request().Context(), entity.EntityType(req.EntityType), req.Payload)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusCreated, change, "Change queued")
}

// ListPending handles listing queued changes, optionally filtered by entity type
func (h *ChangeHandler) ListPending(c echo.Context) error {
	var entityType *entity.EntityType
	if raw := c.QueryParam("entity_type"); raw != "" {
		t := entity.EntityType(raw)
		entityType = &t
	}

	changes, err := h.uc.ListPending(c.Request().Context(), entityType)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, changes, "")
}

// CountPending handles reporting the number of unsynced changes
func (h *ChangeHandler) CountPending(c echo.Context) error {
	count, err := h.uc.CountPending(c.Request().Context())
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, map[string]int64{"pending": count}, "")
}

// Clear handles wiping the local queue and notification log on sign-out
func (h *ChangeHandler) Clear(c echo.Context) error {
	if err := h.uc.Clear(c.Request().Context()); err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, nil, "Local data cleared")
}
