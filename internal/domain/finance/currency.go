package finance

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unoerp/backend/internal/domain/shared"
)

// Currency is a per-company currency with its current exchange rate against
// the local currency. Documents snapshot the rate at creation time, so later
// rate edits never change an existing document. (company, code) is unique.
type Currency struct {
	shared.BaseEntity
	CompanyID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_currencies_company_code"`
	Code      string          `gorm:"size:3;not null;uniqueIndex:ux_currencies_company_code"`
	Name      string          `gorm:"size:50;not null"`
	Rate      decimal.Decimal `gorm:"type:numeric(10,2);not null;default:1"`
	IsDefault bool            `gorm:"not null;default:false"`
}

// TableName returns the database table name
func (Currency) TableName() string { return "currencies" }

// NewCurrency creates a currency. The code is normalized to upper case; a
// non-positive rate falls back to 1 (the local currency's own rate).
func NewCurrency(companyID uuid.UUID, code, name string, rate decimal.Decimal) (*Currency, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	code = shared.NormalizeCode(code)
	if len(code) != 3 {
		return nil, shared.NewFieldError("INVALID_CURRENCY_CODE", "code",
			"Currency code must be exactly 3 characters")
	}
	if name == "" {
		return nil, shared.NewFieldError("INVALID_NAME", "name", "Currency name cannot be empty")
	}
	if !rate.IsPositive() {
		rate = decimal.NewFromInt(1)
	}
	return &Currency{
		BaseEntity: shared.NewBaseEntity(),
		CompanyID:  companyID,
		Code:       code,
		Name:       name,
		Rate:       rate,
	}, nil
}
