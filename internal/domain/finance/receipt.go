package finance

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/unoerp/backend/internal/domain/shared"
)

// receiptNumberLength is the mandated length of a fiscal receipt number:
// serie (1) + type code (2) + sequence (8).
const receiptNumberLength = 11

// TaxReceipt is a per-company fiscal receipt type. Both (company, code) and
// (company, name) are unique.
type TaxReceipt struct {
	shared.BaseEntity
	CompanyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_tax_receipts_company_code;uniqueIndex:ux_tax_receipts_company_name"`
	Code      string    `gorm:"size:2;not null;uniqueIndex:ux_tax_receipts_company_code"`
	Name      string    `gorm:"size:100;not null;uniqueIndex:ux_tax_receipts_company_name"`
	IsActive  bool      `gorm:"not null;default:true"`

	// Warning thresholds: notify when the unused stock of numbers drops to
	// MinAvailableToNotify, or when an authorization is within
	// MinDaysBeforeExpirationToNotify days of expiring.
	MinAvailableToNotify            int `gorm:"not null;default:0"`
	MinDaysBeforeExpirationToNotify int `gorm:"not null;default:0"`
}

// TableName returns the database table name
func (TaxReceipt) TableName() string { return "tax_receipts" }

// NewTaxReceipt creates a fiscal receipt type
func NewTaxReceipt(companyID uuid.UUID, code, name string) (*TaxReceipt, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	code = shared.NormalizeCode(code)
	if len(code) != 2 {
		return nil, shared.NewFieldError("INVALID_CODE", "code",
			fmt.Sprintf("Tax receipt code must be exactly 2 characters: '%s'", code))
	}
	if name == "" {
		return nil, shared.NewFieldError("INVALID_NAME", "name", "Tax receipt name cannot be empty")
	}
	return &TaxReceipt{
		BaseEntity: shared.NewBaseEntity(),
		CompanyID:  companyID,
		Code:       code,
		Name:       name,
		IsActive:   true,
	}, nil
}

// ValidateReceiptNumber checks a fiscal receipt number (NCF) against the
// mandated format and returns it normalized to uppercase. expectedCode, when
// non-empty, must match the 2-character type code embedded in the number.
// Every failure message embeds the offending value for audit trails.
func ValidateReceiptNumber(ncf string, expectedCode string) (string, error) {
	normalized := strings.ToUpper(ncf)

	if len(normalized) != receiptNumberLength {
		return "", shared.NewDomainError("INVALID_RECEIPT_LENGTH",
			fmt.Sprintf("A fiscal receipt number must have %d characters; got %d in '%s'",
				receiptNumberLength, len(normalized), normalized))
	}
	if normalized[0] < 'A' || normalized[0] > 'Z' {
		return "", shared.NewDomainError("INVALID_RECEIPT_SERIE",
			fmt.Sprintf("The first character of a fiscal receipt number must be a letter A-Z; got '%c' in '%s'",
				normalized[0], normalized))
	}
	if normalized[3:] == "00000000" {
		return "", shared.NewDomainError("INVALID_RECEIPT_SEQUENCE",
			fmt.Sprintf("A fiscal receipt sequence cannot be all zeros: '%s'. The first receipt of a range must end in 00000001",
				normalized))
	}
	for i := 1; i < receiptNumberLength; i++ {
		if normalized[i] < '0' || normalized[i] > '9' {
			return "", shared.NewDomainError("INVALID_RECEIPT_FORMAT",
				fmt.Sprintf("The fiscal receipt sequence holds non-numeric characters ('%s'). Only the first character may be a letter",
					normalized))
		}
	}
	if expectedCode != "" && normalized[1:3] != expectedCode {
		return "", shared.NewDomainError("RECEIPT_TYPE_MISMATCH",
			fmt.Sprintf("The fiscal receipt type '%s' does not match the expected type '%s'",
				normalized[1:3], expectedCode))
	}
	return normalized, nil
}

// ValidateNumber validates an NCF against this receipt type's code
func (r *TaxReceipt) ValidateNumber(ncf string) (string, error) {
	return ValidateReceiptNumber(ncf, r.Code)
}

// TaxReceiptNumber is one fiscal receipt instance (NCF). Immutable once
// created; (tax_receipt, number) is unique. A Document may claim it through
// its one-to-one tax_receipt_number reference, which marks it used.
type TaxReceiptNumber struct {
	shared.BaseEntity
	TaxReceiptID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:ux_tax_receipt_numbers_receipt_number"`
	Number          string     `gorm:"size:11;not null;uniqueIndex:ux_tax_receipt_numbers_receipt_number"`
	Serie           string     `gorm:"size:1;not null"`
	Sequence        string     `gorm:"size:8;not null"`
	AuthorizationID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the database table name
func (TaxReceiptNumber) TableName() string { return "tax_receipt_numbers" }
