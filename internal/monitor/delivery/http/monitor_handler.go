package http

import (
	"net/http"
	"strconv"

	"whmcs-stock-monitor/internal/monitor/dto"
	"whmcs-stock-monitor/internal/monitor/service"
	"whmcs-stock-monitor/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MonitorHandler handles HTTP requests for monitor configurations.
type MonitorHandler struct {
	monitorService service.MonitorService
	logger         *logger.Logger
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(monitorService service.MonitorService, logger *logger.Logger) *MonitorHandler {
	return &MonitorHandler{monitorService: monitorService, logger: logger}
}

// RegisterRoutes registers the monitor routes to the Echo group.
func (h *MonitorHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.CreateMonitor)
	g.GET("", h.GetAllMonitors)
	g.GET("/:id", h.GetMonitorByID)
	g.PUT("/:id", h.UpdateMonitor)
	g.DELETE("/:id", h.DeleteMonitor)
	g.GET("/:id/status", h.GetStatusSummary)
	g.GET("/:id/records", h.GetStockHistory)
	g.GET("/:id/history", h.GetMonitorHistory)
	g.GET("/history", h.GetHistoryByEventType)
}

// CreateMonitor godoc
// @Summary Create a monitor configuration
// @Tags monitors
// @Accept  json
// @Produce  json
// @Param   monitor  body    dto.CreateMonitorRequest   true    "Monitor to create"
// @Success 201 {object} dto.MonitorResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /monitors [post]
func (h *MonitorHandler) CreateMonitor(c echo.Context) error {
	var req dto.CreateMonitorRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	monitor, err := h.monitorService.CreateMonitor(c.Request().Context(), &req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, monitor)
}

// GetAllMonitors godoc
// @Summary List monitor configurations
// @Tags monitors
// @Produce  json
// @Success 200 {array} dto.MonitorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /monitors [get]
func (h *MonitorHandler) GetAllMonitors(c echo.Context) error {
	monitors, err := h.monitorService.GetAllMonitors(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to list monitors", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list monitors"})
	}
	return c.JSON(http.StatusOK, monitors)
}

// GetMonitorByID godoc
// @Summary Get a monitor configuration by its ID
// @Tags monitors
// @Produce  json
// @Param   id  path    int true    "Monitor ID"
// @Success 200 {object} dto.MonitorResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /monitors/{id} [get]
func (h *MonitorHandler) GetMonitorByID(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid monitor ID"})
	}

	monitor, err := h.monitorService.GetMonitorByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, monitor)
}

// UpdateMonitor godoc
// @Summary Update a monitor configuration
// @Tags monitors
// @Accept  json
// @Produce  json
// @Param   id  path    int true    "Monitor ID"
// @Param   monitor  body    dto.UpdateMonitorRequest   true    "Fields to update"
// @Success 200 {object} dto.MonitorResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /monitors/{id} [put]
func (h *MonitorHandler) UpdateMonitor(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid monitor ID"})
	}

	var req dto.UpdateMonitorRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	monitor, err := h.monitorService.UpdateMonitor(c.Request().Context(), id, &req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, monitor)
}

// DeleteMonitor godoc
// @Summary Delete a monitor configuration
// @Tags monitors
// @Produce  json
// @Param   id  path    int true    "Monitor ID"
// @Success 204 {object} nil
// @Failure 400 {object} dto.ErrorResponse
// @Router /monitors/{id} [delete]
func (h *MonitorHandler) DeleteMonitor(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid monitor ID"})
	}

	if err := h.monitorService.DeleteMonitor(c.Request().Context(), id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete monitor"})
	}
	return c.NoContent(http.StatusNoContent)
}

// GetStatusSummary godoc
// @Summary Get the status summary for a monitor
// @Tags monitors
// @Produce  json
// @Param   id  path    int true    "Monitor ID"
// @Success 200 {object} dto.MonitorStatusResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /monitors/{id}/status [get]
func (h *MonitorHandler) GetStatusSummary(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid monitor ID"})
	}

	status, err := h.monitorService.GetStatusSummary(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, status)
}

// GetStockHistory godoc
// @Summary List stock records for a monitor
// @Tags monitors
// @Produce  json
// @Param   id  path    int true    "Monitor ID"
// @Param   limit query int false   "Max rows (default 100)"
// @Success 200 {array} entity.StockRecord
// @Failure 400 {object} dto.ErrorResponse
// @Router /monitors/{id}/records [get]
func (h *MonitorHandler) GetStockHistory(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid monitor ID"})
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	records, err := h.monitorService.GetStockHistory(c.Request().Context(), id, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load stock records"})
	}
	return c.JSON(http.StatusOK, records)
}

// GetMonitorHistory godoc
// @Summary List transition history for a monitor
// @Tags monitors
// @Produce  json
// @Param   id  path    int true    "Monitor ID"
// @Param   limit query int false   "Max rows (default 100)"
// @Success 200 {array} entity.MonitorHistory
// @Failure 400 {object} dto.ErrorResponse
// @Router /monitors/{id}/history [get]
func (h *MonitorHandler) GetMonitorHistory(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid monitor ID"})
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	history, err := h.monitorService.GetMonitorHistory(c.Request().Context(), id, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load monitor history"})
	}
	return c.JSON(http.StatusOK, history)
}

// GetHistoryByEventType godoc
// @Summary List transition history of one event type across all monitors
// @Tags monitors
// @Produce  json
// @Param   event_type  query   string  true    "Event type"
// @Param   limit query int false   "Max rows (default 100)"
// @Success 200 {array} entity.MonitorHistory
// @Failure 400 {object} dto.ErrorResponse
// @Router /monitors/history [get]
func (h *MonitorHandler) GetHistoryByEventType(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	history, err := h.monitorService.GetHistoryByEventType(c.Request().Context(), c.QueryParam("event_type"), limit)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, history)
}
