package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/schoolerp/backend/internal/application/billing"
	"github.com/schoolerp/backend/internal/domain/fees"
)

// ParentHandler handles family-level collection endpoints
type ParentHandler struct {
	BaseHandler
	paymentService *billing.PaymentService
}

// NewParentHandler creates a new ParentHandler
func NewParentHandler(paymentService *billing.PaymentService) *ParentHandler {
	return &ParentHandler{paymentService: paymentService}
}

// CollectRequest is a lump-sum payment for a whole family
type CollectRequest struct {
	Amount  float64 `json:"amount" binding:"required,gt=0"`
	Method  string  `json:"method" binding:"required,oneof=CASH BANK_TRANSFER MOBILE_MONEY CHEQUE"`
	Remarks string  `json:"remarks"`
}

// BreakdownEntryResponse is one invoice's share of a family payment
type BreakdownEntryResponse struct {
	InvoiceNo   string  `json:"invoice_no"`
	StudentName string  `json:"student_name"`
	Paid        float64 `json:"paid"`
	Status      string  `json:"status"`
}

// CollectResponse reports how a family payment was distributed
type CollectResponse struct {
	DistributedAmount float64                  `json:"distributed_amount"`
	RemainingBalance  float64                  `json:"remaining_balance"`
	Breakdown         []BreakdownEntryResponse `json:"breakdown"`
}

// ChildOutstandingResponse is one child's open invoices on the collect screen
type ChildOutstandingResponse struct {
	StudentID   string            `json:"student_id"`
	StudentName string            `json:"student_name"`
	Invoices    []InvoiceResponse `json:"invoices"`
	Outstanding float64           `json:"outstanding"`
}

// FamilyOutstandingResponse is the collect-screen summary for a parent
type FamilyOutstandingResponse struct {
	ParentID         string                     `json:"parent_id"`
	ParentName       string                     `json:"parent_name"`
	Children         []ChildOutstandingResponse `json:"children"`
	TotalOutstanding float64                    `json:"total_outstanding"`
}

func toCollectResponse(result *billing.DistributeResult) CollectResponse {
	breakdown := make([]BreakdownEntryResponse, 0, len(result.Breakdown))
	for _, entry := range result.Breakdown {
		breakdown = append(breakdown, BreakdownEntryResponse{
			InvoiceNo:   entry.InvoiceNo,
			StudentName: entry.StudentName,
			Paid:        entry.Paid.InexactFloat64(),
			Status:      string(entry.Status),
		})
	}
	return CollectResponse{
		DistributedAmount: result.DistributedAmount.InexactFloat64(),
		RemainingBalance:  result.RemainingBalance.InexactFloat64(),
		Breakdown:         breakdown,
	}
}

func toFamilyOutstandingResponse(result *billing.FamilyOutstandingResult) FamilyOutstandingResponse {
	children := make([]ChildOutstandingResponse, 0, len(result.Children))
	for _, child := range result.Children {
		children = append(children, ChildOutstandingResponse{
			StudentID:   child.StudentID.String(),
			StudentName: child.StudentName,
			Invoices:    toInvoiceResponses(child.Invoices),
			Outstanding: child.Outstanding.InexactFloat64(),
		})
	}
	return FamilyOutstandingResponse{
		ParentID:         result.ParentID.String(),
		ParentName:       result.ParentName,
		Children:         children,
		TotalOutstanding: result.TotalOutstanding.InexactFloat64(),
	}
}

// Collect godoc
// @Summary      Distribute a family payment across children's open invoices
// @Tags         parents
// @Accept       json
// @Produce      json
// @Param        id path string true "Parent ID" format(uuid)
// @Param        request body CollectRequest true "Collection request"
// @Success      200 {object} dto.Response{data=CollectResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /parents/{id}/collect [post]
func (h *ParentHandler) Collect(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	parentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid parent ID format")
		return
	}

	var req CollectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.paymentService.DistributeFamilyPayment(c.Request.Context(), billing.DistributeRequest{
		TenantID: tenantID,
		ParentID: parentID,
		Amount:   decimal.NewFromFloat(req.Amount),
		Method:   fees.PaymentMethod(req.Method),
		Remarks:  req.Remarks,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toCollectResponse(result))
}

// Outstanding godoc
// @Summary      List the family's open invoices grouped per child
// @Tags         parents
// @Produce      json
// @Param        id path string true "Parent ID" format(uuid)
// @Success      200 {object} dto.Response{data=FamilyOutstandingResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /parents/{id}/outstanding [get]
func (h *ParentHandler) Outstanding(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	parentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid parent ID format")
		return
	}

	result, err := h.paymentService.FamilyOutstanding(c.Request.Context(), tenantID, parentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFamilyOutstandingResponse(result))
}

// RegisterRoutes registers all parent collection routes
func (h *ParentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	parents := rg.Group("/parents")
	{
		parents.POST("/:id/collect", h.Collect)
		parents.GET("/:id/outstanding", h.Outstanding)
	}
}
