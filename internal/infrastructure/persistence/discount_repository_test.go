package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/schoolerp/backend/internal/domain/fees"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/models"
)

func setupDiscountTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.DiscountModel{}, &models.StudentDiscountModel{})
	require.NoError(t, err)

	return db
}

func newTestDiscount(t *testing.T, tenantID, feeHeadID uuid.UUID, name string, value int64) *fees.Discount {
	t.Helper()
	discount, err := fees.NewDiscount(tenantID, name, fees.DiscountTypePercentage, decimal.NewFromInt(value), feeHeadID)
	require.NoError(t, err)
	return discount
}

func assignDiscount(t *testing.T, repo *GormDiscountRepository, tenantID, studentID, discountID uuid.UUID) *fees.StudentDiscount {
	t.Helper()
	assignment, err := fees.NewStudentDiscount(tenantID, studentID, discountID)
	require.NoError(t, err)
	require.NoError(t, repo.SaveAssignment(context.Background(), assignment))
	return assignment
}

func TestGormDiscountRepository_SaveAndFind(t *testing.T) {
	db := setupDiscountTestDB(t)
	repo := NewGormDiscountRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	discount := newTestDiscount(t, tenantID, uuid.New(), "Sibling Discount", 25)
	require.NoError(t, repo.Save(ctx, discount))

	found, err := repo.FindByIDForTenant(ctx, tenantID, discount.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sibling Discount", found.Name)
	assert.Equal(t, fees.DiscountTypePercentage, found.Type)
	assert.True(t, found.Value.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, discount.FeeHeadID, found.FeeHeadID)

	other, err := repo.FindByIDForTenant(ctx, uuid.New(), discount.ID)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestGormDiscountRepository_FindActiveByStudent(t *testing.T) {
	db := setupDiscountTestDB(t)
	repo := NewGormDiscountRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	studentID := uuid.New()
	tuitionHead := uuid.New()
	transportHead := uuid.New()

	tuitionDiscount := newTestDiscount(t, tenantID, tuitionHead, "Staff Child", 50)
	transportDiscount := newTestDiscount(t, tenantID, transportHead, "Bus Waiver", 100)
	inactiveDiscount := newTestDiscount(t, tenantID, uuid.New(), "Retired Bursary", 30)
	inactiveDiscount.Deactivate()
	for _, d := range []*fees.Discount{tuitionDiscount, transportDiscount, inactiveDiscount} {
		require.NoError(t, repo.Save(ctx, d))
	}

	stored, err := repo.FindByIDForTenant(ctx, tenantID, inactiveDiscount.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.False(t, stored.Active)

	assignDiscount(t, repo, tenantID, studentID, tuitionDiscount.ID)
	assignDiscount(t, repo, tenantID, studentID, transportDiscount.ID)
	assignDiscount(t, repo, tenantID, studentID, inactiveDiscount.ID)

	t.Run("maps active discounts by fee head", func(t *testing.T) {
		result, err := repo.FindActiveByStudent(ctx, tenantID, studentID)
		require.NoError(t, err)
		require.Len(t, result, 2)
		assert.Equal(t, tuitionDiscount.ID, result[tuitionHead].ID)
		assert.Equal(t, transportDiscount.ID, result[transportHead].ID)
	})

	t.Run("skips revoked assignments", func(t *testing.T) {
		assignment, err := repo.FindAssignment(ctx, tenantID, studentID, transportHead)
		require.NoError(t, err)
		require.NotNil(t, assignment)
		assignment.Revoke()
		require.NoError(t, repo.SaveAssignment(ctx, assignment))

		result, err := repo.FindActiveByStudent(ctx, tenantID, studentID)
		require.NoError(t, err)
		require.Len(t, result, 1)
		_, ok := result[transportHead]
		assert.False(t, ok)
	})

	t.Run("empty map for a student with no assignments", func(t *testing.T) {
		result, err := repo.FindActiveByStudent(ctx, tenantID, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, result)
	})
}

func TestGormDiscountRepository_FindAssignment(t *testing.T) {
	db := setupDiscountTestDB(t)
	repo := NewGormDiscountRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	studentID := uuid.New()
	feeHeadID := uuid.New()

	discount := newTestDiscount(t, tenantID, feeHeadID, "Early Bird", 10)
	require.NoError(t, repo.Save(ctx, discount))

	t.Run("nil when no assignment exists", func(t *testing.T) {
		assignment, err := repo.FindAssignment(ctx, tenantID, studentID, feeHeadID)
		require.NoError(t, err)
		assert.Nil(t, assignment)
	})

	t.Run("finds the assignment targeting the fee head", func(t *testing.T) {
		created := assignDiscount(t, repo, tenantID, studentID, discount.ID)

		assignment, err := repo.FindAssignment(ctx, tenantID, studentID, feeHeadID)
		require.NoError(t, err)
		require.NotNil(t, assignment)
		assert.Equal(t, created.ID, assignment.ID)
		assert.Equal(t, discount.ID, assignment.DiscountID)
	})

	t.Run("nil for a different fee head", func(t *testing.T) {
		assignment, err := repo.FindAssignment(ctx, tenantID, studentID, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, assignment)
	})
}

func TestGormDiscountRepository_Delete(t *testing.T) {
	db := setupDiscountTestDB(t)
	repo := NewGormDiscountRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	discount := newTestDiscount(t, tenantID, uuid.New(), "Temporary", 15)
	require.NoError(t, repo.Save(ctx, discount))

	require.NoError(t, repo.Delete(ctx, tenantID, discount.ID))

	found, err := repo.FindByIDForTenant(ctx, tenantID, discount.ID)
	require.NoError(t, err)
	assert.False(t, found.Active)

	assert.ErrorIs(t, repo.Delete(ctx, tenantID, uuid.New()), shared.ErrNotFound)
}
