// Package tenant provides GORM scopes for tenant-scoped queries.
//
// Tenant IDs are threaded explicitly from the request layer down to the
// repositories; these scopes are a shared shorthand for the WHERE clause
// every tenant-owned table needs.
//
// Usage:
//
//	db.Scopes(tenant.TenantScope(tenantID)).Find(&invoices)
package tenant

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrTenantIDRequired is returned when a tenant ID is missing
var ErrTenantIDRequired = errors.New("tenant_id is required")

// ErrInvalidTenantID is returned when a tenant ID is not a valid UUID
var ErrInvalidTenantID = errors.New("invalid tenant_id format")

// TenantScope applies tenant filtering to GORM queries
func TenantScope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == uuid.Nil {
			_ = db.AddError(ErrTenantIDRequired)
			return db
		}
		return db.Where("tenant_id = ?", tenantID)
	}
}

// TenantScopeString applies tenant filtering using a string tenant ID
func TenantScopeString(tenantID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == "" {
			_ = db.AddError(ErrTenantIDRequired)
			return db
		}
		if _, err := uuid.Parse(tenantID); err != nil {
			_ = db.AddError(ErrInvalidTenantID)
			return db
		}
		return db.Where("tenant_id = ?", tenantID)
	}
}
