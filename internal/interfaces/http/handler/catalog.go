package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/schoolerp/backend/internal/application/billing"
	"github.com/schoolerp/backend/internal/domain/fees"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/interfaces/http/dto"
)

// CatalogHandler handles fee catalog API endpoints
type CatalogHandler struct {
	BaseHandler
	catalogService *billing.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService *billing.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ===================== Request/Response DTOs =====================

// CreateFeeHeadRequest adds a fee head to the catalog
type CreateFeeHeadRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
	Type        string `json:"type" binding:"required,oneof=RECURRING ONE_TIME"`
}

// SetClassFeeRequest sets the amount billed for one fee head in one class
type SetClassFeeRequest struct {
	ClassID   string  `json:"class_id" binding:"required,uuid"`
	FeeHeadID string  `json:"fee_head_id" binding:"required,uuid"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
}

// StudentFeeItemRequest is one line of a student fee override
type StudentFeeItemRequest struct {
	FeeHeadID string  `json:"fee_head_id" binding:"required,uuid"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
}

// SetFeeOverrideRequest replaces a student's personal fee structure
type SetFeeOverrideRequest struct {
	Items []StudentFeeItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CreateDiscountRequest adds a discount targeting one fee head
type CreateDiscountRequest struct {
	Name      string  `json:"name" binding:"required,max=100"`
	Type      string  `json:"type" binding:"required,oneof=PERCENTAGE FIXED"`
	Value     float64 `json:"value" binding:"required,gt=0"`
	FeeHeadID string  `json:"fee_head_id" binding:"required,uuid"`
}

// AssignDiscountRequest links a discount to a student
type AssignDiscountRequest struct {
	DiscountID string `json:"discount_id" binding:"required,uuid"`
}

// FeeHeadResponse represents a fee head in API responses
type FeeHeadResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// FeeStructureResponse represents one class fee row in API responses
type FeeStructureResponse struct {
	ID        string  `json:"id"`
	ClassID   string  `json:"class_id"`
	FeeHeadID string  `json:"fee_head_id"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

// DiscountResponse represents a discount in API responses
type DiscountResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Value     float64 `json:"value"`
	FeeHeadID string  `json:"fee_head_id"`
	Active    bool    `json:"active"`
}

// StudentDiscountResponse represents a discount assignment
type StudentDiscountResponse struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	DiscountID string    `json:"discount_id"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

func toFeeHeadResponse(head *fees.FeeHead) FeeHeadResponse {
	return FeeHeadResponse{
		ID:          head.ID.String(),
		Name:        head.Name,
		Description: head.Description,
		Type:        string(head.Type),
		Active:      head.Active,
		CreatedAt:   head.CreatedAt,
	}
}

func toFeeStructureResponse(structure *fees.FeeStructure) FeeStructureResponse {
	return FeeStructureResponse{
		ID:        structure.ID.String(),
		ClassID:   structure.ClassID.String(),
		FeeHeadID: structure.FeeHeadID.String(),
		Amount:    structure.Amount.InexactFloat64(),
		Currency:  string(structure.Currency),
	}
}

func toDiscountResponse(discount *fees.Discount) DiscountResponse {
	return DiscountResponse{
		ID:        discount.ID.String(),
		Name:      discount.Name,
		Type:      string(discount.Type),
		Value:     discount.Value.InexactFloat64(),
		FeeHeadID: discount.FeeHeadID.String(),
		Active:    discount.Active,
	}
}

// ===================== Handlers =====================

// CreateFeeHead godoc
// @Summary      Create a fee head
// @Tags         fee-catalog
// @Accept       json
// @Produce      json
// @Param        request body CreateFeeHeadRequest true "Fee head"
// @Success      201 {object} dto.Response{data=FeeHeadResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /fee-heads [post]
func (h *CatalogHandler) CreateFeeHead(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req CreateFeeHeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	head, err := h.catalogService.CreateFeeHead(c.Request.Context(), tenantID, req.Name, req.Description, fees.FeeHeadType(req.Type))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toFeeHeadResponse(head))
}

// ListFeeHeads godoc
// @Summary      List fee heads
// @Tags         fee-catalog
// @Produce      json
// @Success      200 {object} dto.Response{data=[]FeeHeadResponse}
// @Security     BearerAuth
// @Router       /fee-heads [get]
func (h *CatalogHandler) ListFeeHeads(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	heads, err := h.catalogService.ListFeeHeads(c.Request.Context(), tenantID, shared.Filter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		Search:   listReq.Search,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]FeeHeadResponse, 0, len(heads))
	for i := range heads {
		responses = append(responses, toFeeHeadResponse(&heads[i]))
	}
	h.Success(c, responses)
}

// SetClassFee godoc
// @Summary      Set the fee amount for a fee head in a class
// @Tags         fee-catalog
// @Accept       json
// @Produce      json
// @Param        request body SetClassFeeRequest true "Class fee"
// @Success      200 {object} dto.Response{data=FeeStructureResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /fee-structures [put]
func (h *CatalogHandler) SetClassFee(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req SetClassFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	classID, err := uuid.Parse(req.ClassID)
	if err != nil {
		h.BadRequest(c, "Invalid class ID format")
		return
	}
	feeHeadID, err := uuid.Parse(req.FeeHeadID)
	if err != nil {
		h.BadRequest(c, "Invalid fee head ID format")
		return
	}

	structure, err := h.catalogService.SetClassFee(c.Request.Context(), tenantID, classID, feeHeadID, decimal.NewFromFloat(req.Amount))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFeeStructureResponse(structure))
}

// ListClassFees godoc
// @Summary      List the fee structure of a class
// @Tags         fee-catalog
// @Produce      json
// @Param        class_id query string true "Class ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]FeeStructureResponse}
// @Security     BearerAuth
// @Router       /fee-structures [get]
func (h *CatalogHandler) ListClassFees(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	classID, err := uuid.Parse(c.Query("class_id"))
	if err != nil {
		h.BadRequest(c, "Invalid class ID format")
		return
	}

	structures, err := h.catalogService.ClassFees(c.Request.Context(), tenantID, classID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]FeeStructureResponse, 0, len(structures))
	for i := range structures {
		responses = append(responses, toFeeStructureResponse(&structures[i]))
	}
	h.Success(c, responses)
}

// SetFeeOverride godoc
// @Summary      Replace a student's personal fee structure
// @Tags         fee-catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Student ID" format(uuid)
// @Param        request body SetFeeOverrideRequest true "Override items"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /students/{id}/fee-override [put]
func (h *CatalogHandler) SetFeeOverride(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid student ID format")
		return
	}

	var req SetFeeOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	items := make([]fees.StudentFeeItem, 0, len(req.Items))
	for _, item := range req.Items {
		feeHeadID, err := uuid.Parse(item.FeeHeadID)
		if err != nil {
			h.BadRequest(c, "Invalid fee head ID format")
			return
		}
		items = append(items, fees.StudentFeeItem{
			FeeHeadID: feeHeadID,
			Amount:    decimal.NewFromFloat(item.Amount),
		})
	}

	override, err := h.catalogService.SetStudentOverride(c.Request.Context(), tenantID, studentID, items)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, override)
}

// CreateDiscount godoc
// @Summary      Create a discount
// @Tags         fee-catalog
// @Accept       json
// @Produce      json
// @Param        request body CreateDiscountRequest true "Discount"
// @Success      201 {object} dto.Response{data=DiscountResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /discounts [post]
func (h *CatalogHandler) CreateDiscount(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req CreateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	feeHeadID, err := uuid.Parse(req.FeeHeadID)
	if err != nil {
		h.BadRequest(c, "Invalid fee head ID format")
		return
	}

	discount, err := h.catalogService.CreateDiscount(c.Request.Context(), tenantID, req.Name, fees.DiscountType(req.Type), decimal.NewFromFloat(req.Value), feeHeadID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toDiscountResponse(discount))
}

// ListDiscounts godoc
// @Summary      List discounts
// @Tags         fee-catalog
// @Produce      json
// @Success      200 {object} dto.Response{data=[]DiscountResponse}
// @Security     BearerAuth
// @Router       /discounts [get]
func (h *CatalogHandler) ListDiscounts(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	discounts, err := h.catalogService.ListDiscounts(c.Request.Context(), tenantID, shared.Filter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		Search:   listReq.Search,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]DiscountResponse, 0, len(discounts))
	for i := range discounts {
		responses = append(responses, toDiscountResponse(&discounts[i]))
	}
	h.Success(c, responses)
}

// AssignDiscount godoc
// @Summary      Assign a discount to a student
// @Tags         fee-catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Student ID" format(uuid)
// @Param        request body AssignDiscountRequest true "Assignment"
// @Success      201 {object} dto.Response{data=StudentDiscountResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /students/{id}/discounts [post]
func (h *CatalogHandler) AssignDiscount(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid student ID format")
		return
	}

	var req AssignDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	discountID, err := uuid.Parse(req.DiscountID)
	if err != nil {
		h.BadRequest(c, "Invalid discount ID format")
		return
	}

	assignment, err := h.catalogService.AssignDiscount(c.Request.Context(), tenantID, studentID, discountID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, StudentDiscountResponse{
		ID:         assignment.ID.String(),
		StudentID:  assignment.StudentID.String(),
		DiscountID: assignment.DiscountID.String(),
		Active:     assignment.Active,
		CreatedAt:  assignment.CreatedAt,
	})
}

// RevokeDiscount godoc
// @Summary      Revoke a student's discount assignment
// @Tags         fee-catalog
// @Produce      json
// @Param        id path string true "Student ID" format(uuid)
// @Param        discountId path string true "Discount ID" format(uuid)
// @Success      204 "No Content"
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /students/{id}/discounts/{discountId} [delete]
func (h *CatalogHandler) RevokeDiscount(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid student ID format")
		return
	}
	discountID, err := uuid.Parse(c.Param("discountId"))
	if err != nil {
		h.BadRequest(c, "Invalid discount ID format")
		return
	}

	if err := h.catalogService.RevokeDiscount(c.Request.Context(), tenantID, studentID, discountID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers all fee catalog routes
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	finance := rg.Group("/finance")

	feeHeads := finance.Group("/fee-heads")
	{
		feeHeads.POST("", h.CreateFeeHead)
		feeHeads.GET("", h.ListFeeHeads)
	}

	structures := finance.Group("/fee-structures")
	{
		structures.PUT("", h.SetClassFee)
		structures.GET("", h.ListClassFees)
	}

	discounts := finance.Group("/discounts")
	{
		discounts.POST("", h.CreateDiscount)
		discounts.GET("", h.ListDiscounts)
	}

	students := finance.Group("/students")
	{
		students.PUT("/:id/fee-override", h.SetFeeOverride)
		students.POST("/:id/discounts", h.AssignDiscount)
		students.DELETE("/:id/discounts/:discountId", h.RevokeDiscount)
	}
}
