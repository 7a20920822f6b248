package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/schoolerp/backend/internal/domain/fees"
	"github.com/schoolerp/backend/internal/domain/school"
	"github.com/schoolerp/backend/internal/domain/shared"
)

type paymentServiceMocks struct {
	invoiceRepo *MockInvoiceRepository
	paymentRepo *MockPaymentRepository
	kinshipRepo *MockKinshipRepository
	parentRepo  *MockParentRepository
}

func newPaymentService(t *testing.T) (*PaymentService, *paymentServiceMocks) {
	t.Helper()
	m := &paymentServiceMocks{
		invoiceRepo: new(MockInvoiceRepository),
		paymentRepo: new(MockPaymentRepository),
		kinshipRepo: new(MockKinshipRepository),
		parentRepo:  new(MockParentRepository),
	}
	svc := NewPaymentService(m.invoiceRepo, m.paymentRepo, m.kinshipRepo, m.parentRepo)
	return svc, m
}

func invoiceDue(t *testing.T, tenantID, studentID uuid.UUID, total int64, dueDate time.Time) *fees.Invoice {
	t.Helper()
	items := fees.InvoiceItems{
		fees.NewInvoiceItem(uuid.New(), "Tuition", decimal.NewFromInt(total), decimal.Zero),
	}
	inv, err := fees.NewInvoice(
		tenantID,
		fees.NewCustomInvoiceNumber(dueDate.Year(), int(dueDate.Month()), "ADM-P", time.Now()),
		studentID,
		"Test Student",
		int(dueDate.Month()), dueDate.Year(),
		dueDate,
		items,
		"",
	)
	require.NoError(t, err)
	return inv
}

func TestRecordPayment(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("partial payment leaves the invoice partial", func(t *testing.T) {
		svc, m := newPaymentService(t)

		invoice := invoiceDue(t, tenantID, uuid.New(), 1000, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
		m.invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, invoice.ID).Return(invoice, nil)
		m.invoiceRepo.On("SaveWithPayment", mock.Anything, invoice, mock.Anything).Return(nil)

		payment, err := svc.RecordPayment(ctx, RecordPaymentRequest{
			TenantID:  tenantID,
			InvoiceID: invoice.ID,
			Amount:    decimal.NewFromInt(400),
			Method:    fees.PaymentMethodCash,
		})
		require.NoError(t, err)

		assert.True(t, payment.Amount.Equal(decimal.NewFromInt(400)))
		assert.Equal(t, invoice.InvoiceNo, payment.InvoiceNo)
		assert.Equal(t, fees.InvoiceStatusPartial, invoice.Status)
		assert.True(t, invoice.Outstanding().Equal(decimal.NewFromInt(600)))
		require.Len(t, invoice.PaymentRecords, 1)
		assert.Equal(t, payment.ID, invoice.PaymentRecords[0].PaymentID)
	})

	t.Run("overpayment settles the invoice and keeps the excess", func(t *testing.T) {
		svc, m := newPaymentService(t)

		invoice := invoiceDue(t, tenantID, uuid.New(), 1000, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
		m.invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, invoice.ID).Return(invoice, nil)
		m.invoiceRepo.On("SaveWithPayment", mock.Anything, invoice, mock.Anything).Return(nil)

		_, err := svc.RecordPayment(ctx, RecordPaymentRequest{
			TenantID:  tenantID,
			InvoiceID: invoice.ID,
			Amount:    decimal.NewFromInt(1200),
			Method:    fees.PaymentMethodMobileMoney,
		})
		require.NoError(t, err)

		assert.Equal(t, fees.InvoiceStatusPaid, invoice.Status)
		assert.True(t, invoice.PaidAmount.Equal(decimal.NewFromInt(1200)))
		assert.True(t, invoice.Outstanding().IsZero())
	})

	t.Run("rejects payment against a cancelled invoice", func(t *testing.T) {
		svc, m := newPaymentService(t)

		invoice := invoiceDue(t, tenantID, uuid.New(), 1000, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
		invoice.Cancel()
		m.invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, invoice.ID).Return(invoice, nil)

		_, err := svc.RecordPayment(ctx, RecordPaymentRequest{
			TenantID:  tenantID,
			InvoiceID: invoice.ID,
			Amount:    decimal.NewFromInt(100),
			Method:    fees.PaymentMethodCash,
		})
		assert.Error(t, err)
		m.invoiceRepo.AssertNotCalled(t, "SaveWithPayment", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invoice not found", func(t *testing.T) {
		svc, m := newPaymentService(t)
		id := uuid.New()
		m.invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, id).Return(nil, nil)

		_, err := svc.RecordPayment(ctx, RecordPaymentRequest{
			TenantID:  tenantID,
			InvoiceID: id,
			Amount:    decimal.NewFromInt(100),
			Method:    fees.PaymentMethodCash,
		})
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "INVOICE_NOT_FOUND", derr.Code)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		svc, _ := newPaymentService(t)
		_, err := svc.RecordPayment(ctx, RecordPaymentRequest{
			TenantID:  tenantID,
			InvoiceID: uuid.New(),
			Amount:    decimal.Zero,
			Method:    fees.PaymentMethodCash,
		})
		assert.Error(t, err)
	})
}

func TestDistributeFamilyPayment(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	newFamily := func(t *testing.T) (*school.Parent, []school.Kinship, []uuid.UUID) {
		t.Helper()
		parent, err := school.NewParent(tenantID, "Grace", "Okello", "+256700000001")
		require.NoError(t, err)

		childIDs := []uuid.UUID{uuid.New(), uuid.New()}
		kinships := make([]school.Kinship, 0, len(childIDs))
		for i, childID := range childIDs {
			k, err := school.NewKinship(tenantID, parent.ID, childID, school.KinshipTypeMother, i == 0)
			require.NoError(t, err)
			kinships = append(kinships, *k)
		}
		return parent, kinships, childIDs
	}

	t.Run("settles invoices oldest due date first", func(t *testing.T) {
		svc, m := newPaymentService(t)
		parent, kinships, childIDs := newFamily(t)

		// listed out of order on purpose; allocation follows due dates
		march := invoiceDue(t, tenantID, childIDs[0], 100, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
		january := invoiceDue(t, tenantID, childIDs[0], 100, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
		february := invoiceDue(t, tenantID, childIDs[1], 100, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))

		m.parentRepo.On("FindByIDForTenant", mock.Anything, tenantID, parent.ID).Return(parent, nil)
		m.kinshipRepo.On("FindChildren", mock.Anything, tenantID, parent.ID).Return(kinships, nil)
		m.invoiceRepo.On("FindOutstandingByStudents", mock.Anything, tenantID, childIDs).
			Return([]fees.Invoice{*march, *january, *february}, nil)
		m.invoiceRepo.On("SaveAllWithPayments", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		result, err := svc.DistributeFamilyPayment(ctx, DistributeRequest{
			TenantID: tenantID,
			ParentID: parent.ID,
			Amount:   decimal.NewFromInt(150),
			Method:   fees.PaymentMethodBankTransfer,
		})
		require.NoError(t, err)

		require.Len(t, result.Breakdown, 2)
		assert.Equal(t, january.InvoiceNo, result.Breakdown[0].InvoiceNo)
		assert.True(t, result.Breakdown[0].Paid.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, fees.InvoiceStatusPaid, result.Breakdown[0].Status)
		assert.Equal(t, february.InvoiceNo, result.Breakdown[1].InvoiceNo)
		assert.True(t, result.Breakdown[1].Paid.Equal(decimal.NewFromInt(50)))
		assert.Equal(t, fees.InvoiceStatusPartial, result.Breakdown[1].Status)

		assert.True(t, result.DistributedAmount.Equal(decimal.NewFromInt(150)))
		assert.True(t, result.RemainingBalance.IsZero())
	})

	t.Run("surplus beyond family debt is reported back", func(t *testing.T) {
		svc, m := newPaymentService(t)
		parent, kinships, childIDs := newFamily(t)

		only := invoiceDue(t, tenantID, childIDs[0], 100, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))

		m.parentRepo.On("FindByIDForTenant", mock.Anything, tenantID, parent.ID).Return(parent, nil)
		m.kinshipRepo.On("FindChildren", mock.Anything, tenantID, parent.ID).Return(kinships, nil)
		m.invoiceRepo.On("FindOutstandingByStudents", mock.Anything, tenantID, childIDs).
			Return([]fees.Invoice{*only}, nil)
		m.invoiceRepo.On("SaveAllWithPayments", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		result, err := svc.DistributeFamilyPayment(ctx, DistributeRequest{
			TenantID: tenantID,
			ParentID: parent.ID,
			Amount:   decimal.NewFromInt(250),
			Method:   fees.PaymentMethodCash,
		})
		require.NoError(t, err)

		assert.True(t, result.DistributedAmount.Equal(decimal.NewFromInt(100)))
		assert.True(t, result.RemainingBalance.Equal(decimal.NewFromInt(150)))
		// distributed + remaining always reconstructs the original amount
		assert.True(t, result.DistributedAmount.Add(result.RemainingBalance).Equal(decimal.NewFromInt(250)))
	})

	t.Run("no outstanding invoices writes nothing", func(t *testing.T) {
		svc, m := newPaymentService(t)
		parent, kinships, childIDs := newFamily(t)

		m.parentRepo.On("FindByIDForTenant", mock.Anything, tenantID, parent.ID).Return(parent, nil)
		m.kinshipRepo.On("FindChildren", mock.Anything, tenantID, parent.ID).Return(kinships, nil)
		m.invoiceRepo.On("FindOutstandingByStudents", mock.Anything, tenantID, childIDs).
			Return([]fees.Invoice{}, nil)

		result, err := svc.DistributeFamilyPayment(ctx, DistributeRequest{
			TenantID: tenantID,
			ParentID: parent.ID,
			Amount:   decimal.NewFromInt(500),
			Method:   fees.PaymentMethodCash,
		})
		require.NoError(t, err)

		assert.Empty(t, result.Breakdown)
		assert.True(t, result.DistributedAmount.IsZero())
		assert.True(t, result.RemainingBalance.Equal(decimal.NewFromInt(500)))
		m.invoiceRepo.AssertNotCalled(t, "SaveAllWithPayments", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("parent not found", func(t *testing.T) {
		svc, m := newPaymentService(t)
		id := uuid.New()
		m.parentRepo.On("FindByIDForTenant", mock.Anything, tenantID, id).Return(nil, nil)

		_, err := svc.DistributeFamilyPayment(ctx, DistributeRequest{
			TenantID: tenantID,
			ParentID: id,
			Amount:   decimal.NewFromInt(100),
			Method:   fees.PaymentMethodCash,
		})
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "PARENT_NOT_FOUND", derr.Code)
	})
}
