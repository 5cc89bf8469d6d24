package finance

import (
	"github.com/google/uuid"
	"github.com/unoerp/backend/internal/domain/shared"
)

// PaymentMethod is a per-company payment method. (company, name) is unique.
type PaymentMethod struct {
	shared.BaseEntity
	CompanyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_payment_methods_company_name"`
	Name      string    `gorm:"size:100;not null;uniqueIndex:ux_payment_methods_company_name"`
}

// TableName returns the database table name
func (PaymentMethod) TableName() string { return "payment_methods" }

// NewPaymentMethod creates a payment method
func NewPaymentMethod(companyID uuid.UUID, name string) (*PaymentMethod, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewFieldError("INVALID_NAME", "name", "Payment method name cannot be empty")
	}
	return &PaymentMethod{
		BaseEntity: shared.NewBaseEntity(),
		CompanyID:  companyID,
		Name:       name,
	}, nil
}
