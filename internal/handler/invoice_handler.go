package handler

import (
	"net/http"
	"strconv"

	"gstbilling/internal/middleware"
	"gstbilling/internal/service"
	"gstbilling/pkg/pagination"
	"gstbilling/pkg/response"

	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/api/invoices")
	{
		invoices.POST("", middleware.RequireRole("admin", "accountant", "clerk"), h.CreateInvoice)
		invoices.GET("", middleware.RequireRole("admin", "accountant", "clerk"), h.ListInvoices)
		invoices.GET("/:id", middleware.RequireRole("admin", "accountant", "clerk"), h.GetInvoice)
		invoices.PUT("/:id", middleware.RequireRole("admin", "accountant", "clerk"), h.UpdateInvoice)
		invoices.POST("/:id/recalculate", middleware.RequireRole("admin", "accountant", "clerk"), h.RecalculateInvoice)
		invoices.POST("/:id/submit", middleware.RequireRole("admin", "accountant"), h.SubmitInvoice)
		invoices.POST("/:id/cancel", middleware.RequireRole("admin", "accountant"), h.CancelInvoice)
		invoices.POST("/:id/return", middleware.RequireRole("admin", "accountant"), h.CreateReturn)
	}
}

// CreateInvoice creates a new draft sales invoice
// @Summary      Create sales invoice
// @Description  Creates a draft sales invoice; GST rates resolve from the HSN rate rules and totals follow Tally rounding conventions
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateInvoiceRequest  true  "Create Invoice Payload"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req service.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// ListInvoices returns a paginated list of invoices
// @Summary      List sales invoices
// @Description  Retrieves a paginated list of invoices with optional filters
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        docstatus    query     int     false  "Filter by docstatus (0 draft, 1 submitted, 2 cancelled)"
// @Param        customer_id  query     string  false  "Filter by customer UUID"
// @Param        invoice_no   query     string  false  "Partial match on invoice number"
// @Param        is_return    query     bool    false  "Filter returns / non-returns"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200          {object}  response.Response{data=object}
// @Failure      500          {object}  response.Response
// @Router       /api/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.InvoiceFilter{
		CustomerID: c.Query("customer_id"),
		InvoiceNo:  c.Query("invoice_no"),
		Page:       params.Page,
		Limit:      params.Limit,
	}
	if v := c.Query("docstatus"); v != "" {
		if docStatus, err := strconv.Atoi(v); err == nil {
			filter.DocStatus = &docStatus
		}
	}
	if v := c.Query("is_return"); v != "" {
		if isReturn, err := strconv.ParseBool(v); err == nil {
			filter.IsReturn = &isReturn
		}
	}

	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, "invoices", invoices, total, params.Page, params.Limit))
}

// GetInvoice returns one invoice with items and tax rows
// @Summary      Get sales invoice
// @Description  Fetches a single invoice with its items and tax rows
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// UpdateInvoice replaces a draft invoice's content
// @Summary      Update sales invoice
// @Description  Replaces a draft invoice's items and re-runs the tax cycle; submitted invoices are immutable
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Invoice ID"
// @Param        payload  body      service.UpdateInvoiceRequest  true  "Update Invoice Payload"
// @Success      200      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/invoices/{id} [put]
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	var req service.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.invoiceService.UpdateInvoice(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// RecalculateInvoice re-runs the tax cycle on a draft
// @Summary      Recalculate sales invoice
// @Description  Re-runs the standard pass and the Tally-style recalculation on a draft non-return invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/invoices/{id}/recalculate [post]
func (h *InvoiceHandler) RecalculateInvoice(c *gin.Context) {
	invoice, err := h.invoiceService.RecalculateInvoice(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// SubmitInvoice moves a draft to submitted
// @Summary      Submit sales invoice
// @Description  Submits a draft invoice (docstatus 0 → 1), freezing its numbers
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/invoices/{id}/submit [post]
func (h *InvoiceHandler) SubmitInvoice(c *gin.Context) {
	invoice, err := h.invoiceService.SubmitInvoice(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// CancelInvoice cancels a submitted invoice
// @Summary      Cancel sales invoice
// @Description  Cancels a submitted invoice (docstatus 1 → 2) and zeroes its outstanding amount
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/invoices/{id}/cancel [post]
func (h *InvoiceHandler) CancelInvoice(c *gin.Context) {
	invoice, err := h.invoiceService.CancelInvoice(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// CreateReturn issues a credit note against a submitted invoice
// @Summary      Create return (credit note)
// @Description  Creates a negated draft copy of a submitted invoice; returns keep conventional rounding and are never recalculated
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Original Invoice ID"
// @Param        payload  body      service.CreateReturnRequest  true  "Create Return Payload"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/invoices/{id}/return [post]
func (h *InvoiceHandler) CreateReturn(c *gin.Context) {
	var req service.CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.invoiceService.CreateReturn(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// currentUserID reads the authenticated user's ID set by the auth middleware.
func currentUserID(c *gin.Context) string {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)
	return userIDStr
}
