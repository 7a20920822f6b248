package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/schoolerp/backend/internal/domain/fees"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/models"
)

func setupInvoiceTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.InvoiceModel{}, &models.PaymentModel{})
	require.NoError(t, err)

	// Same partial unique index the schema migrations create for Postgres.
	err = db.Exec(`CREATE UNIQUE INDEX idx_invoice_active_period
		ON invoices (tenant_id, student_id, month, year)
		WHERE status <> 'CANCELLED'`).Error
	require.NoError(t, err)

	return db
}

func newTestInvoice(t *testing.T, tenantID, studentID uuid.UUID, month, year int, total int64) *fees.Invoice {
	t.Helper()
	items := fees.InvoiceItems{
		fees.NewInvoiceItem(uuid.New(), "Tuition", decimal.NewFromInt(total), decimal.Zero),
	}
	dueDate := time.Date(year, time.Month(month), 10, 0, 0, 0, 0, time.UTC)
	invoiceNo := fees.NewInvoiceNumber(year, month, "ADM-"+uuid.NewString()[:8])
	invoice, err := fees.NewInvoice(tenantID, invoiceNo, studentID, "Test Student", month, year, dueDate, items, valueobject.UGX)
	require.NoError(t, err)
	return invoice
}

func TestGormInvoiceRepository_SaveAndFind(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("saves and retrieves an invoice with items intact", func(t *testing.T) {
		invoice := newTestInvoice(t, tenantID, uuid.New(), 3, 2026, 100000)
		require.NoError(t, repo.Save(ctx, invoice))

		found, err := repo.FindByIDForTenant(ctx, tenantID, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, invoice.InvoiceNo, found.InvoiceNo)
		assert.Equal(t, fees.InvoiceStatusUnpaid, found.Status)
		require.Len(t, found.Items, 1)
		assert.Equal(t, "Tuition", found.Items[0].FeeHeadName)
		assert.True(t, found.TotalAmount.Equal(decimal.NewFromInt(100000)))
	})

	t.Run("does not leak invoices across tenants", func(t *testing.T) {
		invoice := newTestInvoice(t, tenantID, uuid.New(), 4, 2026, 50000)
		require.NoError(t, repo.Save(ctx, invoice))

		found, err := repo.FindByIDForTenant(ctx, uuid.New(), invoice.ID)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("finds by invoice number", func(t *testing.T) {
		invoice := newTestInvoice(t, tenantID, uuid.New(), 5, 2026, 75000)
		require.NoError(t, repo.Save(ctx, invoice))

		found, err := repo.FindByInvoiceNo(ctx, tenantID, invoice.InvoiceNo)
		require.NoError(t, err)
		assert.Equal(t, invoice.ID, found.ID)
	})
}

func TestGormInvoiceRepository_FindActiveForPeriod(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	studentID := uuid.New()

	t.Run("returns nil when no invoice exists", func(t *testing.T) {
		found, err := repo.FindActiveForPeriod(ctx, tenantID, studentID, 3, 2026)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("ignores cancelled invoices", func(t *testing.T) {
		invoice := newTestInvoice(t, tenantID, studentID, 3, 2026, 100000)
		invoice.Cancel()
		require.NoError(t, repo.Save(ctx, invoice))

		found, err := repo.FindActiveForPeriod(ctx, tenantID, studentID, 3, 2026)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("finds the active invoice for the period", func(t *testing.T) {
		invoice := newTestInvoice(t, tenantID, studentID, 6, 2026, 100000)
		require.NoError(t, repo.Save(ctx, invoice))

		found, err := repo.FindActiveForPeriod(ctx, tenantID, studentID, 6, 2026)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, invoice.ID, found.ID)
	})
}

func TestGormInvoiceRepository_DuplicatePeriod(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	studentID := uuid.New()

	t.Run("unique index rejects a second active invoice for the period", func(t *testing.T) {
		first := newTestInvoice(t, tenantID, studentID, 3, 2026, 100000)
		require.NoError(t, repo.Save(ctx, first))

		second := newTestInvoice(t, tenantID, studentID, 3, 2026, 90000)
		err := repo.Save(ctx, second)
		assert.ErrorIs(t, err, shared.ErrDuplicatePeriod)
	})

	t.Run("cancelled invoice frees the period", func(t *testing.T) {
		first := newTestInvoice(t, tenantID, studentID, 4, 2026, 100000)
		require.NoError(t, repo.Save(ctx, first))
		first.Cancel()
		require.NoError(t, repo.Save(ctx, first))

		second := newTestInvoice(t, tenantID, studentID, 4, 2026, 90000)
		assert.NoError(t, repo.Save(ctx, second))
	})

	t.Run("same period for a different tenant is allowed", func(t *testing.T) {
		first := newTestInvoice(t, tenantID, studentID, 5, 2026, 100000)
		require.NoError(t, repo.Save(ctx, first))

		other := newTestInvoice(t, uuid.New(), studentID, 5, 2026, 100000)
		assert.NoError(t, repo.Save(ctx, other))
	})
}

func TestGormInvoiceRepository_CreateBatch(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("persists all invoices", func(t *testing.T) {
		invoices := []*fees.Invoice{
			newTestInvoice(t, tenantID, uuid.New(), 3, 2026, 100000),
			newTestInvoice(t, tenantID, uuid.New(), 3, 2026, 120000),
			newTestInvoice(t, tenantID, uuid.New(), 3, 2026, 80000),
		}
		require.NoError(t, repo.CreateBatch(ctx, invoices))

		count, err := repo.CountForTenant(ctx, tenantID, fees.InvoiceFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("rolls back the whole batch on a duplicate", func(t *testing.T) {
		studentID := uuid.New()
		existing := newTestInvoice(t, tenantID, studentID, 4, 2026, 100000)
		require.NoError(t, repo.Save(ctx, existing))

		before, err := repo.CountForTenant(ctx, tenantID, fees.InvoiceFilter{})
		require.NoError(t, err)

		batch := []*fees.Invoice{
			newTestInvoice(t, tenantID, uuid.New(), 4, 2026, 100000),
			newTestInvoice(t, tenantID, studentID, 4, 2026, 100000), // duplicate period
		}
		err = repo.CreateBatch(ctx, batch)
		assert.ErrorIs(t, err, shared.ErrDuplicatePeriod)

		after, err := repo.CountForTenant(ctx, tenantID, fees.InvoiceFilter{})
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		assert.NoError(t, repo.CreateBatch(ctx, nil))
	})
}

func TestGormInvoiceRepository_CreateWithCancel(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	studentID := uuid.New()

	t.Run("cancels the old invoice and creates the new one atomically", func(t *testing.T) {
		old := newTestInvoice(t, tenantID, studentID, 3, 2026, 100000)
		require.NoError(t, repo.Save(ctx, old))

		old.Cancel()
		replacement := newTestInvoice(t, tenantID, studentID, 3, 2026, 90000)
		require.NoError(t, repo.CreateWithCancel(ctx, replacement, old))

		foundOld, err := repo.FindByIDForTenant(ctx, tenantID, old.ID)
		require.NoError(t, err)
		assert.Equal(t, fees.InvoiceStatusCancelled, foundOld.Status)

		active, err := repo.FindActiveForPeriod(ctx, tenantID, studentID, 3, 2026)
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, replacement.ID, active.ID)
	})

	t.Run("nil cancelled target only creates", func(t *testing.T) {
		invoice := newTestInvoice(t, tenantID, studentID, 4, 2026, 100000)
		require.NoError(t, repo.CreateWithCancel(ctx, invoice, nil))

		found, err := repo.FindByIDForTenant(ctx, tenantID, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, invoice.InvoiceNo, found.InvoiceNo)
	})
}

func TestGormInvoiceRepository_SaveWithPayment(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewGormInvoiceRepository(db)
	paymentRepo := NewGormPaymentRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	studentID := uuid.New()

	invoice := newTestInvoice(t, tenantID, studentID, 3, 2026, 100000)
	require.NoError(t, repo.Save(ctx, invoice))

	amount, err := valueobject.NewMoney(decimal.NewFromInt(40000), valueobject.UGX)
	require.NoError(t, err)
	payment, err := fees.NewPayment(tenantID, invoice.ID, invoice.InvoiceNo, studentID, amount, fees.PaymentMethodCash, "")
	require.NoError(t, err)
	require.NoError(t, invoice.ApplyPayment(payment.ID, payment.Amount, payment.Method, payment.Remarks))

	require.NoError(t, repo.SaveWithPayment(ctx, invoice, payment))

	found, err := repo.FindByIDForTenant(ctx, tenantID, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, fees.InvoiceStatusPartial, found.Status)
	assert.True(t, found.PaidAmount.Equal(decimal.NewFromInt(40000)))
	require.Len(t, found.PaymentRecords, 1)
	assert.Equal(t, payment.ID, found.PaymentRecords[0].PaymentID)

	ledger, err := paymentRepo.FindByInvoice(ctx, tenantID, invoice.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.True(t, ledger[0].Amount.Equal(decimal.NewFromInt(40000)))
}

func TestGormInvoiceRepository_Outstanding(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	studentID := uuid.New()

	january := newTestInvoice(t, tenantID, studentID, 1, 2026, 100000)
	february := newTestInvoice(t, tenantID, studentID, 2, 2026, 100000)
	march := newTestInvoice(t, tenantID, studentID, 3, 2026, 100000)
	cancelled := newTestInvoice(t, tenantID, studentID, 4, 2026, 100000)
	cancelled.Cancel()

	// Save out of order to prove ordering comes from due dates.
	for _, invoice := range []*fees.Invoice{march, january, cancelled, february} {
		require.NoError(t, repo.Save(ctx, invoice))
	}

	t.Run("orders by due date and skips cancelled", func(t *testing.T) {
		outstanding, err := repo.FindOutstandingByStudent(ctx, tenantID, studentID)
		require.NoError(t, err)
		require.Len(t, outstanding, 3)
		assert.Equal(t, january.ID, outstanding[0].ID)
		assert.Equal(t, february.ID, outstanding[1].ID)
		assert.Equal(t, march.ID, outstanding[2].ID)
	})

	t.Run("sums the outstanding balance", func(t *testing.T) {
		total, err := repo.SumOutstandingByStudent(ctx, tenantID, studentID)
		require.NoError(t, err)
		assert.True(t, total.Equal(decimal.NewFromInt(300000)), "got %s", total)
	})

	t.Run("flattens outstanding invoices across students", func(t *testing.T) {
		otherStudent := uuid.New()
		other := newTestInvoice(t, tenantID, otherStudent, 1, 2026, 50000)
		require.NoError(t, repo.Save(ctx, other))

		outstanding, err := repo.FindOutstandingByStudents(ctx, tenantID, []uuid.UUID{studentID, otherStudent})
		require.NoError(t, err)
		assert.Len(t, outstanding, 4)
	})

	t.Run("empty student list yields no invoices", func(t *testing.T) {
		outstanding, err := repo.FindOutstandingByStudents(ctx, tenantID, nil)
		require.NoError(t, err)
		assert.Empty(t, outstanding)
	})
}

func TestGormInvoiceRepository_CountForPeriod(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	studentA := uuid.New()
	studentB := uuid.New()

	invoiceA := newTestInvoice(t, tenantID, studentA, 3, 2026, 100000)
	require.NoError(t, repo.Save(ctx, invoiceA))
	cancelledB := newTestInvoice(t, tenantID, studentB, 3, 2026, 100000)
	cancelledB.Cancel()
	require.NoError(t, repo.Save(ctx, cancelledB))

	count, err := repo.CountForPeriod(ctx, tenantID, []uuid.UUID{studentA, studentB}, 3, 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.CountForPeriod(ctx, tenantID, []uuid.UUID{studentA, studentB}, 7, 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestGormInvoiceRepository_FindAllForTenant(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	studentID := uuid.New()

	for month := 1; month <= 3; month++ {
		require.NoError(t, repo.Save(ctx, newTestInvoice(t, tenantID, studentID, month, 2026, 100000)))
	}
	require.NoError(t, repo.Save(ctx, newTestInvoice(t, tenantID, uuid.New(), 1, 2026, 100000)))

	t.Run("filters by student", func(t *testing.T) {
		invoices, err := repo.FindAllForTenant(ctx, tenantID, fees.InvoiceFilter{StudentID: &studentID})
		require.NoError(t, err)
		assert.Len(t, invoices, 3)
	})

	t.Run("filters by period", func(t *testing.T) {
		month, year := 1, 2026
		invoices, err := repo.FindAllForTenant(ctx, tenantID, fees.InvoiceFilter{Month: &month, Year: &year})
		require.NoError(t, err)
		assert.Len(t, invoices, 2)
	})

	t.Run("paginates with ordering", func(t *testing.T) {
		filter := fees.InvoiceFilter{}
		filter.Page = 1
		filter.PageSize = 2
		filter.OrderBy = "due_date"
		filter.OrderDir = "asc"

		invoices, err := repo.FindAllForTenant(ctx, tenantID, filter)
		require.NoError(t, err)
		assert.Len(t, invoices, 2)
	})
}

func TestGormInvoiceRepository_SaveWithLock(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("saves when version matches", func(t *testing.T) {
		invoice := newTestInvoice(t, tenantID, uuid.New(), 3, 2026, 100000)
		require.NoError(t, repo.Save(ctx, invoice))

		invoice.Remarks = "updated"
		require.NoError(t, repo.SaveWithLock(ctx, invoice))

		found, err := repo.FindByIDForTenant(ctx, tenantID, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, "updated", found.Remarks)
		assert.Equal(t, 2, found.Version)
	})

	t.Run("rejects a stale version", func(t *testing.T) {
		invoice := newTestInvoice(t, tenantID, uuid.New(), 4, 2026, 100000)
		require.NoError(t, repo.Save(ctx, invoice))

		stale := *invoice
		stale.Version = 99
		err := repo.SaveWithLock(ctx, &stale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestGormInvoiceRepository_MarkOverdueDue(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	pastDue := newTestInvoice(t, tenantID, uuid.New(), 1, 2026, 100000)
	require.NoError(t, repo.Save(ctx, pastDue))

	notDue := newTestInvoice(t, tenantID, uuid.New(), 2, 2026, 100000)
	notDue.DueDate = time.Now().Add(24 * time.Hour)
	require.NoError(t, repo.Save(ctx, notDue))

	partial := newTestInvoice(t, tenantID, uuid.New(), 3, 2026, 100000)
	err := partial.ApplyPayment(uuid.New(), decimal.NewFromInt(40000), fees.PaymentMethodCash, "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, partial))

	flagged, err := repo.MarkOverdueDue(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), flagged)

	found, err := repo.FindByIDForTenant(ctx, tenantID, pastDue.ID)
	require.NoError(t, err)
	assert.Equal(t, fees.InvoiceStatusOverdue, found.Status)

	found, err = repo.FindByIDForTenant(ctx, tenantID, notDue.ID)
	require.NoError(t, err)
	assert.Equal(t, fees.InvoiceStatusUnpaid, found.Status)

	found, err = repo.FindByIDForTenant(ctx, tenantID, partial.ID)
	require.NoError(t, err)
	assert.Equal(t, fees.InvoiceStatusPartial, found.Status)
}
