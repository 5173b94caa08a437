package handler

import (
	"log/slog"
	"net/http"

	"medsync/internal/delivery/http/response"
	"medsync/internal/domain/entity"
	"medsync/internal/usecase"

	"github.com/labstack/echo/v4"
)

// SyncHandler holds dependencies for sync and connectivity endpoints
type SyncHandler struct {
	syncUC  usecase.SyncUsecase
	monitor usecase.ConnectivityMonitor
	logger  *slog.Logger
}

// NewSyncHandler is the constructor for SyncHandler
func NewSyncHandler(syncUC usecase.SyncUsecase, monitor usecase.ConnectivityMonitor, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{
		syncUC:  syncUC,
		monitor: monitor,
		logger:  logger,
	}
}

// Drain handles a manual request to push pending changes to the remote store
func (h *SyncHandler) Drain(c echo.Context) error {
	result, err := h.syncUC.Drain(c.Request().Context())
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, result, "Drain finished")
}

// ConnectivityStatus handles reporting the current connectivity state
func (h *SyncHandler) ConnectivityStatus(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{
		"state": string(h.monitor.State()),
	}, "")
}

// ReportConnectivityRequest represents an externally observed connectivity state
type ReportConnectivityRequest struct {
	State string `json:"state" validate:"required,oneof=online offline"`
}

// ReportConnectivity handles a connectivity observation pushed by the platform layer
func (h *SyncHandler) ReportConnectivity(c echo.Context) error {
	var req ReportConnectivityRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid connectivity input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	h.monitor.Report(entity.ConnectivityState(req.State))

	return response.Success(c, http.StatusOK, map[string]string{
		"state": string(h.monitor.State()),
	}, "Connectivity state recorded")
}
