package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/schoolerp/backend/internal/domain/fees"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/models"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

var _ fees.PaymentRepository = (*GormPaymentRepository)(nil)

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByIDForTenant finds a payment by ID, or nil if none exists
func (r *GormPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fees.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds payments for a tenant with filtering
func (r *GormPaymentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter fees.PaymentFilter) ([]fees.Payment, error) {
	var paymentModels []models.PaymentModel
	query := r.applyPaymentFilter(
		r.db.WithContext(ctx).Model(&models.PaymentModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, PaymentSortFields, "paid_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	if err := query.Find(&paymentModels).Error; err != nil {
		return nil, err
	}

	payments := make([]fees.Payment, 0, len(paymentModels))
	for i := range paymentModels {
		payments = append(payments, *paymentModels[i].ToDomain())
	}
	return payments, nil
}

// FindByInvoice finds all payments recorded against an invoice
func (r *GormPaymentRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]fees.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Order("paid_at ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}

	payments := make([]fees.Payment, 0, len(paymentModels))
	for i := range paymentModels {
		payments = append(payments, *paymentModels[i].ToDomain())
	}
	return payments, nil
}

// Save persists a payment ledger entry
func (r *GormPaymentRepository) Save(ctx context.Context, payment *fees.Payment) error {
	return r.db.WithContext(ctx).Save(models.PaymentModelFromDomain(payment)).Error
}

// CountForTenant counts payments for a tenant with optional filters
func (r *GormPaymentRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter fees.PaymentFilter) (int64, error) {
	var count int64
	query := r.applyPaymentFilter(
		r.db.WithContext(ctx).Model(&models.PaymentModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	err := query.Count(&count).Error
	return count, err
}

// SumForTenant totals payment amounts for a tenant with optional filters
func (r *GormPaymentRepository) SumForTenant(ctx context.Context, tenantID uuid.UUID, filter fees.PaymentFilter) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	query := r.applyPaymentFilter(
		r.db.WithContext(ctx).Model(&models.PaymentModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Select("COALESCE(SUM(amount), 0) AS total").Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// applyPaymentFilter applies the typed payment filters without pagination
func (r *GormPaymentRepository) applyPaymentFilter(query *gorm.DB, filter fees.PaymentFilter) *gorm.DB {
	if filter.InvoiceID != nil {
		query = query.Where("invoice_id = ?", *filter.InvoiceID)
	}
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.Method != nil {
		query = query.Where("method = ?", *filter.Method)
	}
	if filter.FromDate != nil {
		query = query.Where("paid_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("paid_at <= ?", *filter.ToDate)
	}
	if filter.Search != "" {
		query = query.Where("invoice_no ILIKE ?", "%"+filter.Search+"%")
	}
	return query
}
