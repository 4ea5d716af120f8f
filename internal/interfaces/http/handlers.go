package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hendrawn/invoice-monitoring/internal/application/port"
	"github.com/hendrawn/invoice-monitoring/internal/application/service"
	"github.com/hendrawn/invoice-monitoring/internal/domain/entity"
	"github.com/hendrawn/invoice-monitoring/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	invoiceService service.InvoiceService
	authService    service.AuthService
	exportService  service.ExportService
	logger         Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	invoiceService service.InvoiceService,
	authService service.AuthService,
	exportService service.ExportService,
	logger Logger,
) *Handlers {
	return &Handlers{
		invoiceService: invoiceService,
		authService:    authService,
		exportService:  exportService,
		logger:         logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// LoginRequest carries login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued token and the authenticated user
type LoginResponse struct {
	Token string       `json:"token"`
	User  *entity.User `json:"user"`
}

// CreateInvoiceRequest carries the descriptive fields of a new invoice
type CreateInvoiceRequest struct {
	InvoiceNumber string  `json:"invoice_number" binding:"required"`
	ClientName    string  `json:"client_name" binding:"required"`
	IssueDate     string  `json:"issue_date" binding:"required"`
	DueDate       string  `json:"due_date" binding:"required"`
	TotalAmount   float64 `json:"total_amount" binding:"required"`
	Currency      string  `json:"currency" binding:"required"`
	Description   string  `json:"description"`
	JobTitle      string  `json:"job_title"`
	WorkPeriod    string  `json:"work_period"`
	Position      string  `json:"position" binding:"required"`
	WorkRegion    string  `json:"work_region"`
}

// TransitionRequest asks for one status transition
type TransitionRequest struct {
	TargetStatus     string   `json:"target_status" binding:"required"`
	Notes            string   `json:"notes"`
	SettlementDate   string   `json:"settlement_date"`
	SettlementAmount *float64 `json:"settlement_amount"`
	PaymentMethod    string   `json:"payment_method"`
}

// UpdateFieldRequest changes one mutable field
type UpdateFieldRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value" binding:"required"`
}

const dateLayout = "2006-01-02"

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	})
}

// Login handles POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "invalid email or password"})
			return
		}
		h.logger.Error("Login failed", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: LoginResponse{Token: token, User: user}})
}

// CreateInvoice handles POST /api/invoices
func (h *Handlers) CreateInvoice(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	issueDate, err := time.Parse(dateLayout, req.IssueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "issue_date must be YYYY-MM-DD"})
		return
	}
	dueDate, err := time.Parse(dateLayout, req.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "due_date must be YYYY-MM-DD"})
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), service.CreateInvoiceInput{
		InvoiceNumber: req.InvoiceNumber,
		ClientName:    req.ClientName,
		IssueDate:     issueDate,
		DueDate:       dueDate,
		TotalAmount:   req.TotalAmount,
		Currency:      req.Currency,
		Description:   req.Description,
		JobTitle:      req.JobTitle,
		WorkPeriod:    req.WorkPeriod,
		Position:      entity.Position(req.Position),
		WorkRegion:    req.WorkRegion,
	}, actorFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: invoice})
}

// GetInvoice handles GET /api/invoices/:id
func (h *Handlers) GetInvoice(c *gin.Context) {
	invoice, err := h.invoiceService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: invoice})
}

// ListInvoices handles GET /api/invoices
func (h *Handlers) ListInvoices(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	status := c.Query("status")
	if status != "" && !workflow.State(status).IsValid() {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "unknown status: " + status})
		return
	}

	invoices, err := h.invoiceService.List(c.Request.Context(), port.InvoiceFilter{
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: invoices})
}

// TransitionStatus handles POST /api/invoices/:id/transition
func (h *Handlers) TransitionStatus(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	var settlement *entity.Settlement
	if req.SettlementDate != "" || req.SettlementAmount != nil || req.PaymentMethod != "" {
		date, err := time.Parse(dateLayout, req.SettlementDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "settlement_date must be YYYY-MM-DD"})
			return
		}
		amount := 0.0
		if req.SettlementAmount != nil {
			amount = *req.SettlementAmount
		}
		settlement = &entity.Settlement{
			Date:   date,
			Amount: amount,
			Method: req.PaymentMethod,
		}
	}

	invoice, err := h.invoiceService.TransitionStatus(
		c.Request.Context(),
		c.Param("id"),
		workflow.State(req.TargetStatus),
		actorFrom(c),
		req.Notes,
		settlement,
	)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: invoice})
}

// UpdateInvoiceField handles PATCH /api/invoices/:id
func (h *Handlers) UpdateInvoiceField(c *gin.Context) {
	var req UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	invoice, err := h.invoiceService.UpdateField(c.Request.Context(), c.Param("id"), req.Field, req.Value, actorFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: invoice})
}

// GetHistory handles GET /api/invoices/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	records, err := h.invoiceService.GetHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if records == nil {
		records = []*entity.InvoiceHistory{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

// ExportInvoices handles GET /api/invoices/export
func (h *Handlers) ExportInvoices(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !workflow.State(status).IsValid() {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "unknown status: " + status})
		return
	}

	data, err := h.exportService.ExportInvoices(c.Request.Context(), port.InvoiceFilter{Status: status})
	if err != nil {
		h.respondError(c, err)
		return
	}

	filename := "invoices-" + time.Now().UTC().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// respondError maps service errors onto HTTP status codes. Validation
// failures carry enough detail for the caller to correct the input.
func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrInvalidState),
		errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidPosition),
		errors.Is(err, service.ErrInvalidInvoiceNumber),
		errors.Is(err, service.ErrMissingSettlementData),
		errors.Is(err, service.ErrFieldNotMutable):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrDuplicateInvoiceNumber):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrNotAllowed):
		c.JSON(http.StatusForbidden, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Request failed", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
	}
}
