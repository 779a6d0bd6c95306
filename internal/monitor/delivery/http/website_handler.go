package http

import (
	"net/http"
	"strconv"

	"whmcs-stock-monitor/internal/monitor/dto"
	"whmcs-stock-monitor/internal/monitor/service"
	"whmcs-stock-monitor/internal/whmcs"
	"whmcs-stock-monitor/pkg/logger"

	"github.com/labstack/echo/v4"
)

// WebsiteHandler handles HTTP requests for websites.
type WebsiteHandler struct {
	websiteService service.WebsiteService
	logger         *logger.Logger
}

// NewWebsiteHandler creates a new WebsiteHandler.
func NewWebsiteHandler(websiteService service.WebsiteService, logger *logger.Logger) *WebsiteHandler {
	return &WebsiteHandler{websiteService: websiteService, logger: logger}
}

// RegisterRoutes registers the website routes to the Echo group.
func (h *WebsiteHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.CreateWebsite)
	g.GET("", h.GetAllWebsites)
	g.GET("/:id", h.GetWebsiteByID)
	g.PUT("/:id", h.UpdateWebsite)
	g.DELETE("/:id", h.DeleteWebsite)
	g.POST("/:id/test", h.TestConnection)
	g.GET("/:id/products", h.ListProducts)
}

// CreateWebsite godoc
// @Summary Register a WHMCS installation
// @Tags websites
// @Accept  json
// @Produce  json
// @Param   website  body    dto.CreateWebsiteRequest   true    "Website to register"
// @Success 201 {object} dto.WebsiteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /websites [post]
func (h *WebsiteHandler) CreateWebsite(c echo.Context) error {
	var req dto.CreateWebsiteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	website, err := h.websiteService.CreateWebsite(c.Request().Context(), &req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, website)
}

// GetAllWebsites godoc
// @Summary List registered websites
// @Tags websites
// @Produce  json
// @Param   active  query   bool    false   "Only active websites"
// @Success 200 {array} dto.WebsiteResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /websites [get]
func (h *WebsiteHandler) GetAllWebsites(c echo.Context) error {
	activeOnly, _ := strconv.ParseBool(c.QueryParam("active"))
	websites, err := h.websiteService.GetAllWebsites(c.Request().Context(), activeOnly)
	if err != nil {
		h.logger.Error("Failed to list websites", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list websites"})
	}
	return c.JSON(http.StatusOK, websites)
}

// GetWebsiteByID godoc
// @Summary Get a website by its ID
// @Tags websites
// @Produce  json
// @Param   id  path    int true    "Website ID"
// @Success 200 {object} dto.WebsiteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /websites/{id} [get]
func (h *WebsiteHandler) GetWebsiteByID(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid website ID"})
	}

	website, err := h.websiteService.GetWebsiteByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, website)
}

// UpdateWebsite godoc
// @Summary Update a website
// @Tags websites
// @Accept  json
// @Produce  json
// @Param   id  path    int true    "Website ID"
// @Param   website  body    dto.UpdateWebsiteRequest   true    "Fields to update"
// @Success 200 {object} dto.WebsiteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /websites/{id} [put]
func (h *WebsiteHandler) UpdateWebsite(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid website ID"})
	}

	var req dto.UpdateWebsiteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	website, err := h.websiteService.UpdateWebsite(c.Request().Context(), id, &req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, website)
}

// DeleteWebsite godoc
// @Summary Delete a website
// @Tags websites
// @Produce  json
// @Param   id  path    int true    "Website ID"
// @Success 204 {object} nil
// @Failure 400 {object} dto.ErrorResponse
// @Router /websites/{id} [delete]
func (h *WebsiteHandler) DeleteWebsite(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid website ID"})
	}

	if err := h.websiteService.DeleteWebsite(c.Request().Context(), id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete website"})
	}
	return c.NoContent(http.StatusNoContent)
}

// TestConnection godoc
// @Summary Verify connectivity and credentials for a website
// @Tags websites
// @Produce  json
// @Param   id  path    int true    "Website ID"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /websites/{id}/test [post]
func (h *WebsiteHandler) TestConnection(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid website ID"})
	}

	if err := h.websiteService.TestConnection(c.Request().Context(), id); err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// ListProducts godoc
// @Summary List normalized products from a website
// @Tags websites
// @Produce  json
// @Param   id  path    int true    "Website ID"
// @Param   pid query   int false   "Product ID filter"
// @Param   gid query   int false   "Group ID filter"
// @Param   module query string false "Module filter"
// @Success 200 {array} whmcs.Product
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /websites/{id}/products [get]
func (h *WebsiteHandler) ListProducts(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid website ID"})
	}

	filters := whmcs.Filters{Module: c.QueryParam("module")}
	if pid, err := strconv.Atoi(c.QueryParam("pid")); err == nil {
		filters.ProductID = pid
	}
	if gid, err := strconv.Atoi(c.QueryParam("gid")); err == nil {
		filters.GroupID = gid
	}

	products, err := h.websiteService.ListProducts(c.Request().Context(), id, filters)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, products)
}

func parseIDParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
