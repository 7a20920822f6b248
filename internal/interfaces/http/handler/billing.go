package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/schoolerp/backend/internal/application/billing"
	"github.com/schoolerp/backend/internal/domain/fees"
)

// BillingHandler handles invoice and payment API endpoints
type BillingHandler struct {
	BaseHandler
	invoiceService *billing.InvoiceService
	paymentService *billing.PaymentService
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(invoiceService *billing.InvoiceService, paymentService *billing.PaymentService) *BillingHandler {
	return &BillingHandler{
		invoiceService: invoiceService,
		paymentService: paymentService,
	}
}

// ===================== Request/Response DTOs =====================

// GenerateInvoicesRequest asks for one invoice per student of a class
type GenerateInvoicesRequest struct {
	ClassID string `json:"class_id" binding:"required,uuid"`
	Month   int    `json:"month" binding:"required,min=1,max=12"`
	Year    int    `json:"year" binding:"required,min=2000,max=2100"`
	DueDate string `json:"due_date" binding:"required"`
}

// CustomInvoiceItemRequest is one ad-hoc invoice line
type CustomInvoiceItemRequest struct {
	FeeHeadID string  `json:"fee_head_id" binding:"required,uuid"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
}

// CustomInvoiceRequest creates a single ad-hoc invoice
type CustomInvoiceRequest struct {
	StudentID       string                     `json:"student_id" binding:"required,uuid"`
	Month           int                        `json:"month" binding:"required,min=1,max=12"`
	Year            int                        `json:"year" binding:"required,min=2000,max=2100"`
	DueDate         string                     `json:"due_date" binding:"required"`
	Items           []CustomInvoiceItemRequest `json:"items" binding:"required,min=1,dive"`
	CancelInvoiceNo string                     `json:"cancel_invoice_no"`
}

// RecordPaymentRequest records one payment against one invoice
type RecordPaymentRequest struct {
	InvoiceID string  `json:"invoice_id" binding:"required,uuid"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Method    string  `json:"method" binding:"required,oneof=CASH BANK_TRANSFER MOBILE_MONEY CHEQUE"`
	Remarks   string  `json:"remarks"`
}

// UpdateInvoiceStatusRequest applies a manual status override
type UpdateInvoiceStatusRequest struct {
	Action string `json:"action" binding:"required,oneof=CANCEL MARK_PAID MARK_UNPAID"`
}

// InvoiceListQuery holds invoice list filter parameters
type InvoiceListQuery struct {
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	OrderBy   string `form:"order_by"`
	OrderDir  string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search    string `form:"search"`
	StudentID string `form:"student_id" binding:"omitempty,uuid"`
	Status    string `form:"status" binding:"omitempty,oneof=UNPAID PARTIAL PAID OVERDUE CANCELLED"`
	Month     int    `form:"month" binding:"omitempty,min=1,max=12"`
	Year      int    `form:"year"`
}

// PaymentListQuery holds payment list filter parameters
type PaymentListQuery struct {
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	StudentID string `form:"student_id" binding:"omitempty,uuid"`
	InvoiceID string `form:"invoice_id" binding:"omitempty,uuid"`
	Method    string `form:"method" binding:"omitempty,oneof=CASH BANK_TRANSFER MOBILE_MONEY CHEQUE"`
}

// InvoiceItemResponse is one invoice line in API responses
type InvoiceItemResponse struct {
	FeeHeadID      string  `json:"fee_head_id"`
	FeeHeadName    string  `json:"fee_head_name"`
	OriginalAmount float64 `json:"original_amount"`
	DiscountAmount float64 `json:"discount_amount"`
	Amount         float64 `json:"amount"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID          string                `json:"id"`
	InvoiceNo   string                `json:"invoice_no"`
	StudentID   string                `json:"student_id"`
	StudentName string                `json:"student_name"`
	Month       int                   `json:"month"`
	Year        int                   `json:"year"`
	DueDate     time.Time             `json:"due_date"`
	Items       []InvoiceItemResponse `json:"items"`
	TotalAmount float64               `json:"total_amount"`
	PaidAmount  float64               `json:"paid_amount"`
	Outstanding float64               `json:"outstanding"`
	Status      string                `json:"status"`
	Currency    string                `json:"currency"`
	Remarks     string                `json:"remarks,omitempty"`
	PaidAt      *time.Time            `json:"paid_at,omitempty"`
	CancelledAt *time.Time            `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	Version     int                   `json:"version"`
}

// PaymentResponse represents a ledger entry in API responses
type PaymentResponse struct {
	ID        string    `json:"id"`
	InvoiceID string    `json:"invoice_id"`
	InvoiceNo string    `json:"invoice_no"`
	StudentID string    `json:"student_id"`
	Amount    float64   `json:"amount"`
	Method    string    `json:"method"`
	Remarks   string    `json:"remarks,omitempty"`
	PaidAt    time.Time `json:"paid_at"`
}

func toInvoiceResponse(invoice *fees.Invoice) InvoiceResponse {
	items := make([]InvoiceItemResponse, 0, len(invoice.Items))
	for _, item := range invoice.Items {
		items = append(items, InvoiceItemResponse{
			FeeHeadID:      item.FeeHeadID.String(),
			FeeHeadName:    item.FeeHeadName,
			OriginalAmount: item.OriginalAmount.InexactFloat64(),
			DiscountAmount: item.DiscountAmount.InexactFloat64(),
			Amount:         item.Amount.InexactFloat64(),
		})
	}
	return InvoiceResponse{
		ID:          invoice.ID.String(),
		InvoiceNo:   invoice.InvoiceNo,
		StudentID:   invoice.StudentID.String(),
		StudentName: invoice.StudentName,
		Month:       invoice.Month,
		Year:        invoice.Year,
		DueDate:     invoice.DueDate,
		Items:       items,
		TotalAmount: invoice.TotalAmount.InexactFloat64(),
		PaidAmount:  invoice.PaidAmount.InexactFloat64(),
		Outstanding: invoice.Outstanding().InexactFloat64(),
		Status:      string(invoice.Status),
		Currency:    string(invoice.Currency),
		Remarks:     invoice.Remarks,
		PaidAt:      invoice.PaidAt,
		CancelledAt: invoice.CancelledAt,
		CreatedAt:   invoice.CreatedAt,
		Version:     invoice.Version,
	}
}

func toInvoiceResponses(invoices []fees.Invoice) []InvoiceResponse {
	responses := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		responses = append(responses, toInvoiceResponse(&invoices[i]))
	}
	return responses
}

func toPaymentResponse(payment *fees.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        payment.ID.String(),
		InvoiceID: payment.InvoiceID.String(),
		InvoiceNo: payment.InvoiceNo,
		StudentID: payment.StudentID.String(),
		Amount:    payment.Amount.InexactFloat64(),
		Method:    string(payment.Method),
		Remarks:   payment.Remarks,
		PaidAt:    payment.PaidAt,
	}
}

func toPaymentResponses(payments []fees.Payment) []PaymentResponse {
	responses := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		responses = append(responses, toPaymentResponse(&payments[i]))
	}
	return responses
}

// ===================== Handlers =====================

// GenerateInvoices godoc
// @Summary      Generate class invoices for a billing period
// @Tags         finance-invoices
// @Accept       json
// @Produce      json
// @Param        request body GenerateInvoicesRequest true "Generation request"
// @Success      201 {object} dto.Response{data=billing.GenerateInvoicesResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/invoices/generate [post]
func (h *BillingHandler) GenerateInvoices(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req GenerateInvoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	classID, err := uuid.Parse(req.ClassID)
	if err != nil {
		h.BadRequest(c, "Invalid class ID format")
		return
	}
	dueDate, err := parseDateTime(req.DueDate)
	if err != nil {
		h.BadRequest(c, "Invalid due date format")
		return
	}

	result, err := h.invoiceService.GenerateClassInvoices(c.Request.Context(), billing.GenerateInvoicesRequest{
		TenantID: tenantID,
		ClassID:  classID,
		Month:    req.Month,
		Year:     req.Year,
		DueDate:  dueDate,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// CreateCustomInvoice godoc
// @Summary      Create an ad-hoc invoice for one student
// @Tags         finance-invoices
// @Accept       json
// @Produce      json
// @Param        request body CustomInvoiceRequest true "Custom invoice request"
// @Success      201 {object} dto.Response{data=InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/invoices/custom [post]
func (h *BillingHandler) CreateCustomInvoice(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req CustomInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		h.BadRequest(c, "Invalid student ID format")
		return
	}
	dueDate, err := parseDateTime(req.DueDate)
	if err != nil {
		h.BadRequest(c, "Invalid due date format")
		return
	}

	items := make([]billing.CustomItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		feeHeadID, err := uuid.Parse(item.FeeHeadID)
		if err != nil {
			h.BadRequest(c, "Invalid fee head ID format")
			return
		}
		items = append(items, billing.CustomItemInput{
			FeeHeadID: feeHeadID,
			Amount:    decimal.NewFromFloat(item.Amount),
		})
	}

	invoice, err := h.invoiceService.CreateCustomInvoice(c.Request.Context(), billing.CustomInvoiceRequest{
		TenantID:        tenantID,
		StudentID:       studentID,
		Month:           req.Month,
		Year:            req.Year,
		DueDate:         dueDate,
		Items:           items,
		CancelInvoiceNo: req.CancelInvoiceNo,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toInvoiceResponse(invoice))
}

// RecordPayment godoc
// @Summary      Record a payment against an invoice
// @Tags         finance-payments
// @Accept       json
// @Produce      json
// @Param        request body RecordPaymentRequest true "Payment request"
// @Success      201 {object} dto.Response{data=PaymentResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/payments [post]
func (h *BillingHandler) RecordPayment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	payment, err := h.paymentService.RecordPayment(c.Request.Context(), billing.RecordPaymentRequest{
		TenantID:  tenantID,
		InvoiceID: invoiceID,
		Amount:    decimal.NewFromFloat(req.Amount),
		Method:    fees.PaymentMethod(req.Method),
		Remarks:   req.Remarks,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toPaymentResponse(payment))
}

// UpdateInvoiceStatus godoc
// @Summary      Cancel or manually settle an invoice
// @Tags         finance-invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body UpdateInvoiceStatusRequest true "Action"
// @Success      200 {object} dto.Response{data=InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/invoices/{id} [patch]
func (h *BillingHandler) UpdateInvoiceStatus(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	var req UpdateInvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoiceService.UpdateInvoiceStatus(c.Request.Context(), tenantID, invoiceID, billing.StatusAction(req.Action))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toInvoiceResponse(invoice))
}

// GetInvoice godoc
// @Summary      Get invoice by ID
// @Tags         finance-invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/invoices/{id} [get]
func (h *BillingHandler) GetInvoice(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toInvoiceResponse(invoice))
}

// ListInvoices godoc
// @Summary      List invoices
// @Tags         finance-invoices
// @Produce      json
// @Param        student_id query string false "Student ID" format(uuid)
// @Param        status query string false "Status" Enums(UNPAID, PARTIAL, PAID, OVERDUE, CANCELLED)
// @Param        month query int false "Billing month"
// @Param        year query int false "Billing year"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]InvoiceResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /finance/invoices [get]
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var query InvoiceListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 20
	}

	filter := fees.InvoiceFilter{}
	filter.Page = query.Page
	filter.PageSize = query.PageSize
	filter.OrderBy = query.OrderBy
	filter.OrderDir = query.OrderDir
	filter.Search = query.Search
	if query.StudentID != "" {
		studentID, err := uuid.Parse(query.StudentID)
		if err != nil {
			h.BadRequest(c, "Invalid student ID format")
			return
		}
		filter.StudentID = &studentID
	}
	if query.Status != "" {
		status := fees.InvoiceStatus(query.Status)
		filter.Status = &status
	}
	if query.Month != 0 {
		filter.Month = &query.Month
	}
	if query.Year != 0 {
		filter.Year = &query.Year
	}

	result, err := h.invoiceService.ListInvoices(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, toInvoiceResponses(result.Items), result.Total, result.Page, result.PageSize)
}

// ListInvoicePayments godoc
// @Summary      List the ledger entries recorded against an invoice
// @Tags         finance-payments
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]PaymentResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/invoices/{id}/payments [get]
func (h *BillingHandler) ListInvoicePayments(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	payments, err := h.paymentService.InvoicePayments(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPaymentResponses(payments))
}

// ListPayments godoc
// @Summary      List payments
// @Tags         finance-payments
// @Produce      json
// @Param        student_id query string false "Student ID" format(uuid)
// @Param        invoice_id query string false "Invoice ID" format(uuid)
// @Param        method query string false "Payment method" Enums(CASH, BANK_TRANSFER, MOBILE_MONEY, CHEQUE)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]PaymentResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /finance/payments [get]
func (h *BillingHandler) ListPayments(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var query PaymentListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 20
	}

	filter := fees.PaymentFilter{}
	filter.Page = query.Page
	filter.PageSize = query.PageSize
	if query.StudentID != "" {
		studentID, err := uuid.Parse(query.StudentID)
		if err != nil {
			h.BadRequest(c, "Invalid student ID format")
			return
		}
		filter.StudentID = &studentID
	}
	if query.InvoiceID != "" {
		invoiceID, err := uuid.Parse(query.InvoiceID)
		if err != nil {
			h.BadRequest(c, "Invalid invoice ID format")
			return
		}
		filter.InvoiceID = &invoiceID
	}
	if query.Method != "" {
		method := fees.PaymentMethod(query.Method)
		filter.Method = &method
	}

	result, err := h.paymentService.ListPayments(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, toPaymentResponses(result.Items), result.Total, result.Page, result.PageSize)
}

// RegisterRoutes registers all billing routes
func (h *BillingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/finance/invoices")
	{
		invoices.POST("/generate", h.GenerateInvoices)
		invoices.POST("/custom", h.CreateCustomInvoice)
		invoices.GET("", h.ListInvoices)
		invoices.GET("/:id", h.GetInvoice)
		invoices.GET("/:id/payments", h.ListInvoicePayments)
		invoices.PATCH("/:id", h.UpdateInvoiceStatus)
	}

	payments := rg.Group("/finance/payments")
	{
		payments.POST("", h.RecordPayment)
		payments.GET("", h.ListPayments)
	}
}
