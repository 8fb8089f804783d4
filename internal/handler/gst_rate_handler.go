package handler

import (
	"net/http"

	"gstbilling/internal/middleware"
	"gstbilling/internal/service"
	"gstbilling/pkg/pagination"
	"gstbilling/pkg/response"

	"github.com/gin-gonic/gin"
)

type GSTRateHandler struct {
	rateService service.GSTRateService
}

func NewGSTRateHandler(rateService service.GSTRateService) *GSTRateHandler {
	return &GSTRateHandler{rateService: rateService}
}

func (h *GSTRateHandler) RegisterRoutes(router *gin.RouterGroup) {
	rates := router.Group("/api/gst-rates")
	{
		rates.GET("", middleware.RequireRole("admin", "accountant", "clerk"), h.ListGSTRates)
		rates.GET("/active", middleware.RequireRole("admin", "accountant", "clerk"), h.GetActiveGSTRate)
		rates.POST("", middleware.RequireRole("admin", "accountant"), h.CreateGSTRate)
		rates.PUT("/:id", middleware.RequireRole("admin", "accountant"), h.UpdateGSTRate)
		rates.DELETE("/:id", middleware.RequireRole("admin"), h.DeleteGSTRate)
	}
}

// ListGSTRates returns rate rules ordered by HSN code and effective_from
// @Summary      List GST rate rules
// @Description  Retrieves a paginated list of GST rate rules, optionally filtered by HSN code
// @Tags         gst-rates
// @Security     BearerAuth
// @Produce      json
// @Param        hsn_code  query     string  false  "Filter by HSN code"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Success      200       {object}  response.Response{data=object}
// @Failure      500       {object}  response.Response
// @Router       /api/gst-rates [get]
func (h *GSTRateHandler) ListGSTRates(c *gin.Context) {
	params := pagination.Parse(c)

	rules, total, err := h.rateService.ListGSTRates(c.Request.Context(), c.Query("hsn_code"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, "gst_rates", rules, total, params.Page, params.Limit))
}

// GetActiveGSTRate returns the rule active for an HSN code on a date
// @Summary      Get active GST rate
// @Description  Returns the GST rate rule active for an HSN code on a given date (default today), or null when none applies
// @Tags         gst-rates
// @Security     BearerAuth
// @Produce      json
// @Param        hsn_code  query     string  true   "HSN code"
// @Param        date      query     string  false  "Target date (YYYY-MM-DD, default today)"
// @Success      200       {object}  response.Response{data=service.GSTRateResponse}
// @Failure      400       {object}  response.Response
// @Router       /api/gst-rates/active [get]
func (h *GSTRateHandler) GetActiveGSTRate(c *gin.Context) {
	hsnCode := c.Query("hsn_code")
	if hsnCode == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "hsn_code is required"))
		return
	}

	rate, err := h.rateService.GetActiveGSTRate(c.Request.Context(), hsnCode, c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rate))
}

// CreateGSTRate creates a new GST rate rule
// @Summary      Create GST rate rule
// @Description  Creates a per-HSN GST rate rule; effective windows for the same HSN must not overlap
// @Tags         gst-rates
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateGSTRateRequest  true  "Create GST Rate Payload"
// @Success      201      {object}  response.Response{data=service.GSTRateResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/gst-rates [post]
func (h *GSTRateHandler) CreateGSTRate(c *gin.Context) {
	var req service.CreateGSTRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rule, err := h.rateService.CreateGSTRate(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rule))
}

// UpdateGSTRate updates an existing GST rate rule
// @Summary      Update GST rate rule
// @Description  Updates a GST rate rule, re-checking effective window overlap
// @Tags         gst-rates
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Rule ID"
// @Param        payload  body      service.UpdateGSTRateRequest  true  "Update GST Rate Payload"
// @Success      200      {object}  response.Response{data=service.GSTRateResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/gst-rates/{id} [put]
func (h *GSTRateHandler) UpdateGSTRate(c *gin.Context) {
	var req service.UpdateGSTRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rule, err := h.rateService.UpdateGSTRate(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rule))
}

// DeleteGSTRate deletes a GST rate rule
// @Summary      Delete GST rate rule
// @Description  Deletes a GST rate rule by ID
// @Tags         gst-rates
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Rule ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/gst-rates/{id} [delete]
func (h *GSTRateHandler) DeleteGSTRate(c *gin.Context) {
	if err := h.rateService.DeleteGSTRate(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "GST rate rule deleted successfully"))
}
