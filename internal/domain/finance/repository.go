package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxRepository defines the interface for tax rule persistence
type TaxRepository interface {
	// FindByID finds a tax rule by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Tax, error)

	// Save creates or updates a tax rule
	Save(ctx context.Context, tax *Tax) error
}

// TaxReceiptRepository defines the interface for fiscal receipt type persistence
type TaxReceiptRepository interface {
	// FindByID finds a tax receipt type by ID
	FindByID(ctx context.Context, id uuid.UUID) (*TaxReceipt, error)

	// FindByCompanyAndCode finds a tax receipt type by its 2-character code
	FindByCompanyAndCode(ctx context.Context, companyID uuid.UUID, code string) (*TaxReceipt, error)

	// Save creates or updates a tax receipt type
	Save(ctx context.Context, receipt *TaxReceipt) error
}

// AuthorizationRepository defines the interface for fiscal range authorizations
// and the receipt numbers they materialize.
type AuthorizationRepository interface {
	// CreateWithNumbers persists the authorization and its full number range
	// in a single transaction. A failure on any number, duplicates included,
	// rolls back everything; partial ranges never persist. Authorizations are
	// create-only: an already-persisted one is rejected.
	CreateWithNumbers(ctx context.Context, auth *TaxReceiptAuthorization, numbers []TaxReceiptNumber) error

	// FindByID finds an authorization by ID
	FindByID(ctx context.Context, id uuid.UUID) (*TaxReceiptAuthorization, error)

	// FindByReceipt returns the authorizations granted for a receipt type
	FindByReceipt(ctx context.Context, taxReceiptID uuid.UUID) ([]TaxReceiptAuthorization, error)

	// Numbers returns every receipt number linked to the authorization
	Numbers(ctx context.Context, authorizationID uuid.UUID) ([]TaxReceiptNumber, error)

	// FindNumberByID finds a materialized receipt number by ID
	FindNumberByID(ctx context.Context, id uuid.UUID) (*TaxReceiptNumber, error)

	// IsNumberUsed reports whether a document already references the number
	IsNumberUsed(ctx context.Context, numberID uuid.UUID) (bool, error)

	// ClaimForDocument draws the lowest unused receipt number of the given
	// type whose authorization has not expired at now, and links it to the
	// document in the same transaction, so the claimed row stays locked until
	// the link is committed. Returns shared.ErrNotFound when the stock is
	// exhausted and shared.ErrConcurrencyConflict when the document was linked
	// concurrently.
	ClaimForDocument(ctx context.Context, taxReceiptID, documentID uuid.UUID, now time.Time) (*TaxReceiptNumber, error)

	// CountAvailable counts unused, unexpired numbers for a receipt type
	CountAvailable(ctx context.Context, taxReceiptID uuid.UUID, now time.Time) (int64, error)
}

// CurrencyRepository defines the interface for currency persistence
type CurrencyRepository interface {
	// FindByCompanyAndCode finds a currency by its normalized 3-letter code
	FindByCompanyAndCode(ctx context.Context, companyID uuid.UUID, code string) (*Currency, error)

	// FindDefault returns the company's default currency
	FindDefault(ctx context.Context, companyID uuid.UUID) (*Currency, error)

	// Save creates or updates a currency. Duplicate (company, code) pairs
	// surface as a field-scoped domain error.
	Save(ctx context.Context, currency *Currency) error
}

// TransactionRepository defines the interface for posted transactions
type TransactionRepository interface {
	// Create posts a transaction, assigning its per-document ordinal
	// atomically with the insert. Transactions are never updated.
	Create(ctx context.Context, transaction *Transaction) error

	// FindByDocument returns the transactions posted against a document
	FindByDocument(ctx context.Context, documentID uuid.UUID) ([]Transaction, error)

	// SumByMode totals the normalized amounts of one mode for a document
	SumByMode(ctx context.Context, documentID uuid.UUID, mode TransactionMode) (decimal.Decimal, error)
}
