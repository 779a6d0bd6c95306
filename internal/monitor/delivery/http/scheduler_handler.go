package http

import (
	"errors"
	"net/http"

	"whmcs-stock-monitor/internal/monitor/scheduler"
	"whmcs-stock-monitor/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SchedulerHandler exposes the scheduler control surface.
type SchedulerHandler struct {
	scheduler *scheduler.Scheduler
	logger    *logger.Logger
}

// NewSchedulerHandler creates a new SchedulerHandler.
func NewSchedulerHandler(s *scheduler.Scheduler, logger *logger.Logger) *SchedulerHandler {
	return &SchedulerHandler{scheduler: s, logger: logger}
}

// RegisterRoutes registers the scheduler routes to the Echo group.
func (h *SchedulerHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/status", h.GetStatus)
	g.POST("/run", h.RunNow)
	g.POST("/pause", h.Pause)
	g.POST("/resume", h.Resume)
}

// GetStatus godoc
// @Summary Get scheduler state, next run time and last cycle summary
// @Tags scheduler
// @Produce  json
// @Success 200 {object} scheduler.Status
// @Router /scheduler/status [get]
func (h *SchedulerHandler) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.scheduler.Status())
}

// RunNow godoc
// @Summary Trigger an immediate monitoring cycle
// @Description No-op when a cycle is already in flight.
// @Tags scheduler
// @Produce  json
// @Success 202 {object} map[string]string
// @Failure 409 {object} dto.ErrorResponse
// @Router /scheduler/run [post]
func (h *SchedulerHandler) RunNow(c echo.Context) error {
	err := h.scheduler.RunNow(c.Request().Context())
	if errors.Is(err, scheduler.ErrCycleInFlight) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "already running"})
	}
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"status": "triggered"})
}

// Pause godoc
// @Summary Pause scheduled cycles
// @Description Does not interrupt an in-flight cycle.
// @Tags scheduler
// @Produce  json
// @Success 200 {object} map[string]string
// @Failure 400 {object} dto.ErrorResponse
// @Router /scheduler/pause [post]
func (h *SchedulerHandler) Pause(c echo.Context) error {
	if err := h.scheduler.Pause(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "paused"})
}

// Resume godoc
// @Summary Resume scheduled cycles
// @Tags scheduler
// @Produce  json
// @Success 200 {object} map[string]string
// @Failure 400 {object} dto.ErrorResponse
// @Router /scheduler/resume [post]
func (h *SchedulerHandler) Resume(c echo.Context) error {
	if err := h.scheduler.Resume(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "running"})
}
