package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/schoolerp/backend/internal/domain/fees"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/models"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

var _ fees.InvoiceRepository = (*GormInvoiceRepository)(nil)

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// translateInvoiceConflict maps unique index violations to the domain
// duplicate-period error. The partial unique index on
// (tenant_id, student_id, month, year) is the only constraint a correct
// caller can still trip, since invoice numbers embed the admission
// number and period.
func translateInvoiceConflict(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrDuplicatePeriod
	}
	return err
}

// FindByIDForTenant finds an invoice by ID, or nil if none exists
func (r *GormInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fees.Invoice, error) {
	var model models.InvoiceModel
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

// FindByInvoiceNo finds an invoice by its human-readable number, or
// nil if none exists
func (r *GormInvoiceRepository) FindByInvoiceNo(ctx context.Context, tenantID uuid.UUID, invoiceNo string) (*fees.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_no = ?", tenantID, invoiceNo).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds invoices for a tenant with filtering
func (r *GormInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter fees.InvoiceFilter) ([]fees.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	query := r.applyInvoiceFilter(
		r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	query = r.applyPagination(query, filter)

	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toDomainInvoices(invoiceModels), nil
}

// FindOutstandingByStudent finds a student's invoices that still count
// toward their balance, oldest due first.
func (r *GormInvoiceRepository) FindOutstandingByStudent(ctx context.Context, tenantID, studentID uuid.UUID) ([]fees.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND student_id = ? AND status IN ?", tenantID, studentID, outstandingStatuses()).
		Order("due_date ASC, created_at ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toDomainInvoices(invoiceModels), nil
}

// FindOutstandingByStudents flattens outstanding invoices across several
// students in one query, oldest due first.
func (r *GormInvoiceRepository) FindOutstandingByStudents(ctx context.Context, tenantID uuid.UUID, studentIDs []uuid.UUID) ([]fees.Invoice, error) {
	if len(studentIDs) == 0 {
		return []fees.Invoice{}, nil
	}
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND student_id IN ? AND status IN ?", tenantID, studentIDs, outstandingStatuses()).
		Order("due_date ASC, created_at ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toDomainInvoices(invoiceModels), nil
}

// CountForPeriod counts non-cancelled invoices for the given students in
// a billing period
func (r *GormInvoiceRepository) CountForPeriod(ctx context.Context, tenantID uuid.UUID, studentIDs []uuid.UUID, month, year int) (int64, error) {
	if len(studentIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND student_id IN ? AND month = ? AND year = ? AND status <> ?",
			tenantID, studentIDs, month, year, fees.InvoiceStatusCancelled).
		Count(&count).Error
	return count, err
}

// FindActiveForPeriod finds a student's non-cancelled invoice for a
// billing period, or nil if none exists
func (r *GormInvoiceRepository) FindActiveForPeriod(ctx context.Context, tenantID, studentID uuid.UUID, month, year int) (*fees.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND student_id = ? AND month = ? AND year = ? AND status <> ?",
			tenantID, studentID, month, year, fees.InvoiceStatusCancelled).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *fees.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return translateInvoiceConflict(err)
	}
	return nil
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *fees.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&models.InvoiceModel{}).
			Where("id = ?", invoice.ID).
			Select("version").
			Scan(&currentVersion).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if currentVersion != invoice.Version {
			return shared.ErrConcurrencyConflict
		}

		invoice.Version++
		model := models.InvoiceModelFromDomain(invoice)
		return tx.Save(model).Error
	})
}

// CreateBatch persists a set of invoices atomically
func (r *GormInvoiceRepository) CreateBatch(ctx context.Context, invoices []*fees.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}
	invoiceModels := make([]*models.InvoiceModel, 0, len(invoices))
	for _, invoice := range invoices {
		invoiceModels = append(invoiceModels, models.InvoiceModelFromDomain(invoice))
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&invoiceModels).Error; err != nil {
			return translateInvoiceConflict(err)
		}
		return nil
	})
}

// CreateWithCancel atomically cancels a prior invoice (may be nil) and
// creates a new one in the same transaction
func (r *GormInvoiceRepository) CreateWithCancel(ctx context.Context, invoice *fees.Invoice, cancelled *fees.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if cancelled != nil {
			if err := tx.Save(models.InvoiceModelFromDomain(cancelled)).Error; err != nil {
				return err
			}
		}
		if err := tx.Create(models.InvoiceModelFromDomain(invoice)).Error; err != nil {
			return translateInvoiceConflict(err)
		}
		return nil
	})
}

// SaveWithPayment atomically updates an invoice and appends the payment
// ledger entry that caused the update
func (r *GormInvoiceRepository) SaveWithPayment(ctx context.Context, invoice *fees.Invoice, payment *fees.Payment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(models.InvoiceModelFromDomain(invoice)).Error; err != nil {
			return err
		}
		return tx.Create(models.PaymentModelFromDomain(payment)).Error
	})
}

// SaveAllWithPayments atomically updates several invoices and appends
// their ledger entries
func (r *GormInvoiceRepository) SaveAllWithPayments(ctx context.Context, invoices []*fees.Invoice, payments []*fees.Payment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, invoice := range invoices {
			if err := tx.Save(models.InvoiceModelFromDomain(invoice)).Error; err != nil {
				return err
			}
		}
		for _, payment := range payments {
			if err := tx.Create(models.PaymentModelFromDomain(payment)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CountForTenant counts invoices for a tenant with optional filters
func (r *GormInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter fees.InvoiceFilter) (int64, error) {
	var count int64
	query := r.applyInvoiceFilter(
		r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	err := query.Count(&count).Error
	return count, err
}

// SumOutstandingByStudent calculates a student's total outstanding balance
func (r *GormInvoiceRepository) SumOutstandingByStudent(ctx context.Context, tenantID, studentID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Select("COALESCE(SUM(total_amount - paid_amount), 0) AS total").
		Where("tenant_id = ? AND student_id = ? AND status IN ?", tenantID, studentID, outstandingStatuses()).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// MarkOverdueDue bulk-flags UNPAID invoices whose due date has passed.
// Runs across all tenants; the sweep is a maintenance job, not a
// tenant-scoped operation.
func (r *GormInvoiceRepository) MarkOverdueDue(ctx context.Context, asOf time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("status = ? AND due_date < ?", fees.InvoiceStatusUnpaid, asOf).
		Updates(map[string]interface{}{
			"status":     fees.InvoiceStatusOverdue,
			"updated_at": time.Now(),
			"version":    gorm.Expr("version + 1"),
		})
	return result.RowsAffected, result.Error
}

// applyInvoiceFilter applies the typed invoice filters without pagination
func (r *GormInvoiceRepository) applyInvoiceFilter(query *gorm.DB, filter fees.InvoiceFilter) *gorm.DB {
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Month != nil {
		query = query.Where("month = ?", *filter.Month)
	}
	if filter.Year != nil {
		query = query.Where("year = ?", *filter.Year)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", *filter.DueTo)
	}
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("invoice_no ILIKE ? OR student_name ILIKE ?", searchPattern, searchPattern)
	}
	return query
}

// applyPagination applies ordering and pagination from the embedded filter
func (r *GormInvoiceRepository) applyPagination(query *gorm.DB, filter fees.InvoiceFilter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, InvoiceSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

func outstandingStatuses() []fees.InvoiceStatus {
	return fees.OutstandingStatuses()
}

func toDomainInvoices(invoiceModels []models.InvoiceModel) []fees.Invoice {
	invoices := make([]fees.Invoice, 0, len(invoiceModels))
	for i := range invoiceModels {
		invoices = append(invoices, *invoiceModels[i].ToDomain())
	}
	return invoices
}
