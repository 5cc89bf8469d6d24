package document

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/unoerp/backend/internal/domain/shared"
)

// GenericType classifies a document type. The classification, not the
// individual DocumentType row, decides whether documents accept payments,
// move inventory, affect item cost and hit receivable/payable accounts.
type GenericType string

const (
	GenericTypeInvoice           GenericType = "invoice"
	GenericTypeInvoiceReturn     GenericType = "invoice_return"
	GenericTypePurchase          GenericType = "purchase"
	GenericTypePurchaseOrder     GenericType = "purchase_order"
	GenericTypeQuotation         GenericType = "quotation"
	GenericTypeInventoryInput    GenericType = "inventory_input"
	GenericTypeInventoryOutput   GenericType = "inventory_output"
	GenericTypeTransfer          GenericType = "transfer"
	GenericTypeAccountingIncome  GenericType = "accounting_income"
	GenericTypeAccountingExpense GenericType = "accounting_expense"
)

// Capabilities describes what documents of a generic type are allowed to do.
type Capabilities struct {
	AcceptsPayments          bool
	AffectsInventoryAsInput  bool
	AffectsInventoryAsOutput bool
	CanAffectCost            bool
	AffectsReceivable        bool
	AffectsPayable           bool
}

// capabilityTable is the single closed lookup table for generic type
// capabilities. Membership is fixed; it is never configured per instance.
var capabilityTable = map[GenericType]Capabilities{
	GenericTypeInvoice: {
		AcceptsPayments:          true,
		AffectsInventoryAsOutput: true,
		CanAffectCost:            true,
		AffectsReceivable:        true,
	},
	GenericTypeInvoiceReturn: {
		AcceptsPayments:         true,
		AffectsInventoryAsInput: true,
		CanAffectCost:           true,
		AffectsPayable:          true,
	},
	GenericTypePurchase: {
		AcceptsPayments:         true,
		AffectsInventoryAsInput: true,
		CanAffectCost:           true,
		AffectsPayable:          true,
	},
	GenericTypePurchaseOrder: {},
	GenericTypeQuotation:     {},
	GenericTypeInventoryInput: {
		AffectsInventoryAsInput: true,
		CanAffectCost:           true,
	},
	GenericTypeInventoryOutput: {
		AffectsInventoryAsOutput: true,
		CanAffectCost:            true,
	},
	GenericTypeTransfer: {},
	GenericTypeAccountingIncome: {
		AcceptsPayments:   true,
		AffectsReceivable: true,
	},
	GenericTypeAccountingExpense: {
		AcceptsPayments: true,
		AffectsPayable:  true,
	},
}

// IsValid checks if the value is a known generic type
func (t GenericType) IsValid() bool {
	_, ok := capabilityTable[t]
	return ok
}

// String returns the string representation of the generic type
func (t GenericType) String() string {
	return string(t)
}

// Capabilities returns the capability set for the generic type.
// Unknown types carry no capabilities.
func (t GenericType) Capabilities() Capabilities {
	return capabilityTable[t]
}

// AcceptsPayments reports whether documents of this type take transactions
func (t GenericType) AcceptsPayments() bool {
	return capabilityTable[t].AcceptsPayments
}

// AffectsReceivable reports whether documents of this type hit accounts receivable
func (t GenericType) AffectsReceivable() bool {
	return capabilityTable[t].AffectsReceivable
}

// AffectsPayable reports whether documents of this type hit accounts payable
func (t GenericType) AffectsPayable() bool {
	return capabilityTable[t].AffectsPayable
}

// DocumentType is the per-company template a Document is stamped from.
// (company, code) is unique.
type DocumentType struct {
	shared.BaseEntity
	CompanyID    uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:ux_document_types_company_code"`
	Code         string      `gorm:"size:6;not null;uniqueIndex:ux_document_types_company_code"`
	Name         string      `gorm:"size:70;not null"`
	GenericType  GenericType `gorm:"size:20;not null"`
	AffectCost   bool        `gorm:"not null;default:false"`
	TaxReceiptID *uuid.UUID  `gorm:"type:uuid"`
	IsActive     bool        `gorm:"not null;default:true"`
}

// TableName returns the database table name
func (DocumentType) TableName() string { return "document_types" }

// NewDocumentType creates a document type with a normalized code
func NewDocumentType(companyID uuid.UUID, code, name string, genericType GenericType) (*DocumentType, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	code = shared.NormalizeCode(code)
	if code == "" {
		return nil, shared.NewFieldError("INVALID_CODE", "code", "Document type code cannot be empty")
	}
	if len(code) > 6 {
		return nil, shared.NewFieldError("INVALID_CODE", "code",
			fmt.Sprintf("Document type code cannot exceed 6 characters: '%s'", code))
	}
	if name == "" {
		return nil, shared.NewFieldError("INVALID_NAME", "name", "Document type name cannot be empty")
	}
	if !genericType.IsValid() {
		return nil, shared.NewFieldError("INVALID_GENERIC_TYPE", "generic_type",
			fmt.Sprintf("Unknown generic type: '%s'", genericType))
	}

	return &DocumentType{
		BaseEntity:  shared.NewBaseEntity(),
		CompanyID:   companyID,
		Code:        code,
		Name:        name,
		GenericType: genericType,
		IsActive:    true,
	}, nil
}

// RequiresFiscalNumber reports whether documents of this type must draw a
// fiscal receipt number at finalization
func (t *DocumentType) RequiresFiscalNumber() bool {
	return t.TaxReceiptID != nil
}
