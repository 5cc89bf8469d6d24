package document

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unoerp/backend/internal/domain/shared"
)

// Document is one business transaction (an invoice, a purchase, a transfer...).
// (doctype, sequence) is unique; the sequence is assigned once at first save
// and never changes, even if later documents are deleted.
type Document struct {
	shared.BaseEntity
	DocTypeID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_documents_doctype_sequence"`
	DocType             *DocumentType   `gorm:"foreignKey:DocTypeID"`
	WarehouseID         uuid.UUID       `gorm:"type:uuid;not null"`
	TransferWarehouseID *uuid.UUID      `gorm:"type:uuid"`
	Sequence            int64           `gorm:"not null;uniqueIndex:ux_documents_doctype_sequence"`
	Number              string          `gorm:"size:30;not null"`
	PersonID            *uuid.UUID      `gorm:"type:uuid"`
	PersonName          string          `gorm:"size:100"`
	Note                string          `gorm:"size:500"`
	CurrencyCode        string          `gorm:"size:3"`
	CurrencyRate        decimal.Decimal `gorm:"type:numeric(10,2);not null;default:1"`
	PayTaxes            bool            `gorm:"not null;default:true"`
	TaxReceiptNumberID  *uuid.UUID      `gorm:"type:uuid;uniqueIndex"`

	// Derived fields, recomputed by Recalculate. Never edited by callers.
	Amount   decimal.Decimal `gorm:"type:numeric(32,2)"`
	Discount decimal.Decimal `gorm:"type:numeric(32,2)"`
	Tax      decimal.Decimal `gorm:"type:numeric(32,2)"`
	Total    decimal.Decimal `gorm:"type:numeric(32,2)"`

	CreatedBy *uuid.UUID `gorm:"type:uuid"`

	Movements []Movement `gorm:"foreignKey:DocumentID"`
}

// TableName returns the database table name
func (Document) TableName() string { return "documents" }

// NewDocument creates a draft document for the given type. The sequence and
// number are assigned by the repository at insert time, atomically with the
// insert itself.
func NewDocument(doctype *DocumentType, warehouseID uuid.UUID, transferWarehouseID *uuid.UUID) (*Document, error) {
	if doctype == nil {
		return nil, shared.NewDomainError("INVALID_DOCTYPE", "Document type cannot be nil")
	}
	if !doctype.IsActive {
		return nil, shared.NewFieldError("INACTIVE_DOCTYPE", "doctype",
			fmt.Sprintf("Document type '%s' is not active", doctype.Code))
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewFieldError("INVALID_WAREHOUSE", "warehouse", "Warehouse cannot be empty")
	}

	doc := &Document{
		BaseEntity:          shared.NewBaseEntity(),
		DocTypeID:           doctype.ID,
		DocType:             doctype,
		WarehouseID:         warehouseID,
		TransferWarehouseID: transferWarehouseID,
		CurrencyRate:        decimal.NewFromInt(1),
		PayTaxes:            true,
		Amount:              decimal.Zero,
		Discount:            decimal.Zero,
		Tax:                 decimal.Zero,
		Total:               decimal.Zero,
	}
	if err := doc.ValidateTransferWarehouse(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Company returns the owning company, derived from the document type.
// A document has no company column of its own. Requires DocType loaded.
func (d *Document) Company() uuid.UUID {
	if d.DocType == nil {
		return uuid.Nil
	}
	return d.DocType.CompanyID
}

// ValidateTransferWarehouse enforces the transfer-warehouse rule: a transfer
// document must name a destination warehouse, any other type must not, and
// source and destination must differ.
func (d *Document) ValidateTransferWarehouse() error {
	if d.DocType == nil {
		return shared.NewDomainError("INVALID_DOCTYPE", "Document type cannot be nil")
	}
	if d.DocType.GenericType == GenericTypeTransfer {
		if d.TransferWarehouseID == nil {
			return shared.NewFieldError("TRANSFER_WAREHOUSE_REQUIRED", "transfer_warehouse",
				"A transfer document must indicate the destination warehouse")
		}
	} else if d.TransferWarehouseID != nil {
		return shared.NewFieldError("TRANSFER_WAREHOUSE_NOT_ALLOWED", "transfer_warehouse",
			"Warehouse transfers are exclusive to transfer documents")
	}
	if d.TransferWarehouseID != nil && *d.TransferWarehouseID == d.WarehouseID {
		return shared.NewFieldError("TRANSFER_WAREHOUSE_SAME", "warehouse",
			"The destination warehouse must differ from the document warehouse")
	}
	return nil
}

// AssignSequence sets the per-doctype sequence and display number exactly once
func (d *Document) AssignSequence(sequence int64) error {
	if d.Sequence != 0 {
		return shared.NewDomainError("SEQUENCE_ASSIGNED",
			fmt.Sprintf("Document already carries sequence %d", d.Sequence))
	}
	if sequence < 1 {
		return shared.NewDomainError("INVALID_SEQUENCE",
			fmt.Sprintf("Sequence must start at 1, got %d", sequence))
	}
	d.Sequence = sequence
	if d.DocType != nil {
		d.Number = FormatNumber(d.DocType.Code, sequence)
	} else {
		d.Number = fmt.Sprintf("%012d", sequence)
	}
	return nil
}

// FormatNumber builds the display number for a doctype code and sequence
func FormatNumber(doctypeCode string, sequence int64) string {
	return fmt.Sprintf("%s-%012d", doctypeCode, sequence)
}

// AssignFiscalNumber links a fiscal receipt number to this document, once
func (d *Document) AssignFiscalNumber(numberID uuid.UUID) error {
	if d.TaxReceiptNumberID != nil {
		return shared.NewDomainError("FISCAL_NUMBER_ASSIGNED",
			fmt.Sprintf("Document %s already carries a fiscal receipt number", d.Number))
	}
	if numberID == uuid.Nil {
		return shared.NewDomainError("INVALID_FISCAL_NUMBER", "Fiscal receipt number cannot be empty")
	}
	d.TaxReceiptNumberID = &numberID
	return nil
}

// Totals holds the derived monetary fields of a document
type Totals struct {
	Amount   decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// SumMovements derives document totals from a movement set. An empty set
// yields zeros, not nulls.
func SumMovements(movements []Movement) Totals {
	t := Totals{
		Amount:   decimal.Zero,
		Discount: decimal.Zero,
		Tax:      decimal.Zero,
		Total:    decimal.Zero,
	}
	for i := range movements {
		m := &movements[i]
		t.Amount = t.Amount.Add(m.Amount())
		t.Discount = t.Discount.Add(m.Discount)
		t.Tax = t.Tax.Add(m.Tax)
		t.Total = t.Total.Add(m.Total())
	}
	return t
}

// ApplyTotals stores the derived fields and reports whether anything changed.
// A false return means the caller must not write; repeated recalculations
// with unchanged movements stay no-ops.
func (d *Document) ApplyTotals(t Totals) bool {
	if d.Amount.Equal(t.Amount) && d.Discount.Equal(t.Discount) &&
		d.Tax.Equal(t.Tax) && d.Total.Equal(t.Total) {
		return false
	}
	d.Amount = t.Amount
	d.Discount = t.Discount
	d.Tax = t.Tax
	d.Total = t.Total
	return true
}
