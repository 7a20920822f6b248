package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/schoolerp/backend/internal/domain/fees"
	"github.com/schoolerp/backend/internal/domain/school"
	"github.com/schoolerp/backend/internal/domain/shared"
)

// MockInvoiceRepository is a mock implementation of fees.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fees.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fees.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByInvoiceNo(ctx context.Context, tenantID uuid.UUID, invoiceNo string) (*fees.Invoice, error) {
	args := m.Called(ctx, tenantID, invoiceNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fees.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter fees.InvoiceFilter) ([]fees.Invoice, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]fees.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindOutstandingByStudent(ctx context.Context, tenantID, studentID uuid.UUID) ([]fees.Invoice, error) {
	args := m.Called(ctx, tenantID, studentID)
	return args.Get(0).([]fees.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindOutstandingByStudents(ctx context.Context, tenantID uuid.UUID, studentIDs []uuid.UUID) ([]fees.Invoice, error) {
	args := m.Called(ctx, tenantID, studentIDs)
	return args.Get(0).([]fees.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) CountForPeriod(ctx context.Context, tenantID uuid.UUID, studentIDs []uuid.UUID, month, year int) (int64, error) {
	args := m.Called(ctx, tenantID, studentIDs, month, year)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) FindActiveForPeriod(ctx context.Context, tenantID, studentID uuid.UUID, month, year int) (*fees.Invoice, error) {
	args := m.Called(ctx, tenantID, studentID, month, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fees.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *fees.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *fees.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) CreateBatch(ctx context.Context, invoices []*fees.Invoice) error {
	args := m.Called(ctx, invoices)
	return args.Error(0)
}

func (m *MockInvoiceRepository) CreateWithCancel(ctx context.Context, invoice *fees.Invoice, cancelled *fees.Invoice) error {
	args := m.Called(ctx, invoice, cancelled)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithPayment(ctx context.Context, invoice *fees.Invoice, payment *fees.Payment) error {
	args := m.Called(ctx, invoice, payment)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveAllWithPayments(ctx context.Context, invoices []*fees.Invoice, payments []*fees.Payment) error {
	args := m.Called(ctx, invoices, payments)
	return args.Error(0)
}

func (m *MockInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter fees.InvoiceFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) SumOutstandingByStudent(ctx context.Context, tenantID, studentID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, studentID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockInvoiceRepository) MarkOverdueDue(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}

// MockPaymentRepository is a mock implementation of fees.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fees.Payment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fees.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter fees.PaymentFilter) ([]fees.Payment, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]fees.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]fees.Payment, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	return args.Get(0).([]fees.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Save(ctx context.Context, payment *fees.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter fees.PaymentFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) SumForTenant(ctx context.Context, tenantID uuid.UUID, filter fees.PaymentFilter) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockFeeHeadRepository is a mock implementation of fees.FeeHeadRepository
type MockFeeHeadRepository struct {
	mock.Mock
}

func (m *MockFeeHeadRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fees.FeeHead, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fees.FeeHead), args.Error(1)
}

func (m *MockFeeHeadRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]fees.FeeHead, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).(map[uuid.UUID]fees.FeeHead), args.Error(1)
}

func (m *MockFeeHeadRepository) FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*fees.FeeHead, error) {
	args := m.Called(ctx, tenantID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fees.FeeHead), args.Error(1)
}

func (m *MockFeeHeadRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]fees.FeeHead, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]fees.FeeHead), args.Error(1)
}

func (m *MockFeeHeadRepository) Save(ctx context.Context, feeHead *fees.FeeHead) error {
	args := m.Called(ctx, feeHead)
	return args.Error(0)
}

func (m *MockFeeHeadRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// MockFeeStructureRepository is a mock implementation of fees.FeeStructureRepository
type MockFeeStructureRepository struct {
	mock.Mock
}

func (m *MockFeeStructureRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fees.FeeStructure, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fees.FeeStructure), args.Error(1)
}

func (m *MockFeeStructureRepository) FindByClass(ctx context.Context, tenantID, classID uuid.UUID) ([]fees.FeeStructure, error) {
	args := m.Called(ctx, tenantID, classID)
	return args.Get(0).([]fees.FeeStructure), args.Error(1)
}

func (m *MockFeeStructureRepository) FindByClassAndFeeHead(ctx context.Context, tenantID, classID, feeHeadID uuid.UUID) (*fees.FeeStructure, error) {
	args := m.Called(ctx, tenantID, classID, feeHeadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fees.FeeStructure), args.Error(1)
}

func (m *MockFeeStructureRepository) Save(ctx context.Context, structure *fees.FeeStructure) error {
	args := m.Called(ctx, structure)
	return args.Error(0)
}

func (m *MockFeeStructureRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// MockStudentFeeStructureRepository is a mock implementation of fees.StudentFeeStructureRepository
type MockStudentFeeStructureRepository struct {
	mock.Mock
}

func (m *MockStudentFeeStructureRepository) FindByStudent(ctx context.Context, tenantID, studentID uuid.UUID) (*fees.StudentFeeStructure, error) {
	args := m.Called(ctx, tenantID, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fees.StudentFeeStructure), args.Error(1)
}

func (m *MockStudentFeeStructureRepository) Save(ctx context.Context, structure *fees.StudentFeeStructure) error {
	args := m.Called(ctx, structure)
	return args.Error(0)
}

func (m *MockStudentFeeStructureRepository) Delete(ctx context.Context, tenantID, studentID uuid.UUID) error {
	args := m.Called(ctx, tenantID, studentID)
	return args.Error(0)
}

// MockDiscountRepository is a mock implementation of fees.DiscountRepository
type MockDiscountRepository struct {
	mock.Mock
}

func (m *MockDiscountRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fees.Discount, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fees.Discount), args.Error(1)
}

func (m *MockDiscountRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]fees.Discount, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]fees.Discount), args.Error(1)
}

func (m *MockDiscountRepository) FindActiveByStudent(ctx context.Context, tenantID, studentID uuid.UUID) (map[uuid.UUID]fees.Discount, error) {
	args := m.Called(ctx, tenantID, studentID)
	return args.Get(0).(map[uuid.UUID]fees.Discount), args.Error(1)
}

func (m *MockDiscountRepository) FindAssignment(ctx context.Context, tenantID, studentID, feeHeadID uuid.UUID) (*fees.StudentDiscount, error) {
	args := m.Called(ctx, tenantID, studentID, feeHeadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fees.StudentDiscount), args.Error(1)
}

func (m *MockDiscountRepository) Save(ctx context.Context, discount *fees.Discount) error {
	args := m.Called(ctx, discount)
	return args.Error(0)
}

func (m *MockDiscountRepository) SaveAssignment(ctx context.Context, assignment *fees.StudentDiscount) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *MockDiscountRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// MockStudentRepository is a mock implementation of school.StudentRepository
type MockStudentRepository struct {
	mock.Mock
}

func (m *MockStudentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*school.Student, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*school.Student), args.Error(1)
}

func (m *MockStudentRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]school.Student, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).(map[uuid.UUID]school.Student), args.Error(1)
}

func (m *MockStudentRepository) FindActiveByClass(ctx context.Context, tenantID, classID uuid.UUID) ([]school.Student, error) {
	args := m.Called(ctx, tenantID, classID)
	return args.Get(0).([]school.Student), args.Error(1)
}

func (m *MockStudentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]school.Student, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]school.Student), args.Error(1)
}

func (m *MockStudentRepository) Save(ctx context.Context, student *school.Student) error {
	args := m.Called(ctx, student)
	return args.Error(0)
}

// MockKinshipRepository is a mock implementation of school.KinshipRepository
type MockKinshipRepository struct {
	mock.Mock
}

func (m *MockKinshipRepository) FindChildren(ctx context.Context, tenantID, parentID uuid.UUID) ([]school.Kinship, error) {
	args := m.Called(ctx, tenantID, parentID)
	return args.Get(0).([]school.Kinship), args.Error(1)
}

func (m *MockKinshipRepository) FindParents(ctx context.Context, tenantID, studentID uuid.UUID) ([]school.Kinship, error) {
	args := m.Called(ctx, tenantID, studentID)
	return args.Get(0).([]school.Kinship), args.Error(1)
}

func (m *MockKinshipRepository) Save(ctx context.Context, kinship *school.Kinship) error {
	args := m.Called(ctx, kinship)
	return args.Error(0)
}

func (m *MockKinshipRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// MockParentRepository is a mock implementation of school.ParentRepository
type MockParentRepository struct {
	mock.Mock
}

func (m *MockParentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*school.Parent, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*school.Parent), args.Error(1)
}

func (m *MockParentRepository) Save(ctx context.Context, parent *school.Parent) error {
	args := m.Called(ctx, parent)
	return args.Error(0)
}
