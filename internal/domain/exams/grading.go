package exams

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/google/uuid"

	"github.com/schoolerp/backend/internal/domain/shared"
)

// GradeBand is one range of a grading scale: percentages within
// [MinPercent, MaxPercent] map to the band's grade label.
type GradeBand struct {
	Grade      string          `json:"grade"`
	MinPercent decimal.Decimal `json:"min_percent"`
	MaxPercent decimal.Decimal `json:"max_percent"`
	Remark     string          `json:"remark,omitempty"`
}

// Contains reports whether the percentage falls inside the band
func (b GradeBand) Contains(percent decimal.Decimal) bool {
	return percent.GreaterThanOrEqual(b.MinPercent) && percent.LessThanOrEqual(b.MaxPercent)
}

// GradeBands is a slice of GradeBand stored as JSONB
type GradeBands []GradeBand

// Value implements driver.Valuer for JSONB storage
func (b GradeBands) Value() (driver.Value, error) {
	if b == nil {
		return "[]", nil
	}
	return json.Marshal(b)
}

// Scan implements sql.Scanner for JSONB retrieval
func (b *GradeBands) Scan(value interface{}) error {
	if value == nil {
		*b = GradeBands{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan GradeBands: unsupported type")
	}

	if len(bytes) == 0 {
		*b = GradeBands{}
		return nil
	}

	return json.Unmarshal(bytes, b)
}

// GradingScale is a school's named set of grade bands, e.g. the UNEB
// division scale or a simple A-F scheme.
type GradingScale struct {
	shared.TenantAggregateRoot
	Name  string     `json:"name"`
	Bands GradeBands `json:"bands"`
}

// NewGradingScale creates a grading scale from its bands. Bands must not
// overlap; gaps are allowed and classify as ungraded.
func NewGradingScale(tenantID uuid.UUID, name string, bands GradeBands) (*GradingScale, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_SCALE_NAME", "Grading scale name cannot be empty")
	}
	if len(bands) == 0 {
		return nil, shared.NewDomainError("INVALID_BANDS", "Grading scale must have at least one band")
	}
	for i, band := range bands {
		if band.Grade == "" {
			return nil, shared.NewDomainError("INVALID_BANDS", "Grade band label cannot be empty")
		}
		if band.MinPercent.GreaterThan(band.MaxPercent) {
			return nil, shared.NewDomainError("INVALID_BANDS", "Grade band minimum cannot exceed its maximum")
		}
		for _, other := range bands[:i] {
			if band.MinPercent.LessThanOrEqual(other.MaxPercent) && other.MinPercent.LessThanOrEqual(band.MaxPercent) {
				return nil, shared.NewDomainError("INVALID_BANDS", "Grade bands cannot overlap")
			}
		}
	}

	return &GradingScale{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Bands:               bands,
	}, nil
}

// Classify resolves a percentage to its grade band. Returns nil if no
// band covers the percentage.
func (s *GradingScale) Classify(percent decimal.Decimal) *GradeBand {
	for i := range s.Bands {
		if s.Bands[i].Contains(percent) {
			return &s.Bands[i]
		}
	}
	return nil
}

// ReplaceBands swaps the scale's bands
func (s *GradingScale) ReplaceBands(bands GradeBands) error {
	if len(bands) == 0 {
		return shared.NewDomainError("INVALID_BANDS", "Grading scale must have at least one band")
	}
	s.Bands = bands
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}
