package finance

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unoerp/backend/internal/domain/shared"
)

// TaxValueType selects how a tax rule derives its amount
type TaxValueType string

const (
	TaxValueTypePercent TaxValueType = "percent"
	TaxValueTypeFixed   TaxValueType = "fixed"
)

// IsValid checks if the value is a known tax value type
func (t TaxValueType) IsValid() bool {
	return t == TaxValueTypePercent || t == TaxValueTypeFixed
}

// Tax is a per-company tax rule. (company, codename) is unique.
type Tax struct {
	shared.BaseEntity
	CompanyID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_taxes_company_codename"`
	Codename  string          `gorm:"size:50;not null;uniqueIndex:ux_taxes_company_codename"`
	Name      string          `gorm:"size:100;not null"`
	Value     decimal.Decimal `gorm:"type:numeric(22,2);not null"`
	ValueType TaxValueType    `gorm:"size:10;not null;default:percent"`
}

// TableName returns the database table name
func (Tax) TableName() string { return "taxes" }

// NewTax creates a tax rule
func NewTax(companyID uuid.UUID, codename, name string, value decimal.Decimal, valueType TaxValueType) (*Tax, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if codename == "" {
		return nil, shared.NewFieldError("INVALID_CODENAME", "codename", "Tax codename cannot be empty")
	}
	if !valueType.IsValid() {
		return nil, shared.NewFieldError("INVALID_VALUE_TYPE", "value_type",
			fmt.Sprintf("Unknown tax value type: '%s'", valueType))
	}
	if value.IsNegative() {
		return nil, shared.NewFieldError("INVALID_VALUE", "value",
			fmt.Sprintf("Tax value cannot be negative: %s", value))
	}
	return &Tax{
		BaseEntity: shared.NewBaseEntity(),
		CompanyID:  companyID,
		Codename:   codename,
		Name:       name,
		Value:      value,
		ValueType:  valueType,
	}, nil
}

// Calculate returns the tax amount for a base. Percent rules return
// (base / 100) × value. Fixed rules return the configured value no matter the
// base; that unconditional behavior is intentional.
func (t *Tax) Calculate(base decimal.Decimal) decimal.Decimal {
	if t.ValueType == TaxValueTypePercent {
		return base.Div(decimal.NewFromInt(100)).Mul(t.Value)
	}
	return t.Value
}
