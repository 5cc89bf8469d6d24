package finance

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unoerp/backend/internal/domain/shared"
)

// TransactionMode is the sign of a transaction relative to its document, not
// to the company's cash direction. A credit on an invoice is a payment
// received; a debit on a purchase is a payment made.
type TransactionMode string

const (
	TransactionModeCredit TransactionMode = "credit"
	TransactionModeDebit  TransactionMode = "debit"
)

// IsValid checks if the value is a known transaction mode
func (m TransactionMode) IsValid() bool {
	return m == TransactionModeCredit || m == TransactionModeDebit
}

// Transaction is a monetary movement posted against a document. It is
// immutable once posted; there is no update path. The canonical model stores
// the user-entered amount in document currency plus the normalized local
// amount derived at post time.
type Transaction struct {
	shared.BaseEntity
	DocumentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Number     int64           `gorm:"not null"`
	Mode       TransactionMode `gorm:"size:6;not null"`

	// EntryAmount is what the user typed, in the document's currency.
	EntryAmount  decimal.Decimal `gorm:"type:numeric(22,2);not null"`
	CurrencyRate decimal.Decimal `gorm:"type:numeric(10,4);not null;default:1"`
	// Amount is EntryAmount × CurrencyRate in local currency, fixed at post time.
	Amount decimal.Decimal `gorm:"type:numeric(24,4);not null"`

	Concept         string     `gorm:"size:200"`
	PersonID        *uuid.UUID `gorm:"type:uuid"`
	PersonName      string     `gorm:"size:100"`
	PaymentMethodID *uuid.UUID `gorm:"type:uuid"`
	Note            string     `gorm:"size:500"`
	CreatedBy       *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the database table name
func (Transaction) TableName() string { return "transactions" }

// NewTransaction posts a transaction against a document. currencyRate
// defaults to 1 when zero; the normalized local amount is fixed here and
// never recomputed.
func NewTransaction(documentID uuid.UUID, mode TransactionMode, entryAmount, currencyRate decimal.Decimal) (*Transaction, error) {
	if documentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DOCUMENT", "Document ID cannot be empty")
	}
	if !mode.IsValid() {
		return nil, shared.NewFieldError("INVALID_MODE", "mode",
			fmt.Sprintf("Unknown transaction mode: '%s'", mode))
	}
	if !entryAmount.IsPositive() {
		return nil, shared.NewFieldError("INVALID_AMOUNT", "entry_amount",
			fmt.Sprintf("Transaction amount must be positive: %s", entryAmount))
	}
	if currencyRate.IsNegative() {
		return nil, shared.NewFieldError("INVALID_RATE", "currency_rate",
			fmt.Sprintf("Currency rate cannot be negative: %s", currencyRate))
	}
	if currencyRate.IsZero() {
		currencyRate = decimal.NewFromInt(1)
	}

	return &Transaction{
		BaseEntity:   shared.NewBaseEntity(),
		DocumentID:   documentID,
		Mode:         mode,
		EntryAmount:  entryAmount,
		CurrencyRate: currencyRate,
		Amount:       entryAmount.Mul(currencyRate),
	}, nil
}

// AssignNumber sets the per-document ordinal exactly once
func (t *Transaction) AssignNumber(number int64) error {
	if t.Number != 0 {
		return shared.NewDomainError("NUMBER_ASSIGNED",
			fmt.Sprintf("Transaction already carries number %d", t.Number))
	}
	if number < 1 {
		return shared.NewDomainError("INVALID_NUMBER",
			fmt.Sprintf("Transaction number must start at 1, got %d", number))
	}
	t.Number = number
	return nil
}

// Reference builds the display reference for the transaction
func (t *Transaction) Reference() string {
	return fmt.Sprintf("P%014d", t.Number)
}
