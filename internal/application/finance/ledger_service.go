package finance

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/unoerp/backend/internal/domain/document"
	"github.com/unoerp/backend/internal/domain/finance"
	"github.com/unoerp/backend/internal/domain/shared"
	"github.com/unoerp/backend/internal/infrastructure/logger"
)

// LedgerService posts transactions against documents and derives their
// outstanding balance.
type LedgerService struct {
	documentRepo    document.DocumentRepository
	transactionRepo finance.TransactionRepository
	logger          *zap.Logger
	validate        *validator.Validate
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	documentRepo document.DocumentRepository,
	transactionRepo finance.TransactionRepository,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		documentRepo:    documentRepo,
		transactionRepo: transactionRepo,
		logger:          logger,
		validate:        validator.New(),
	}
}

// PostTransactionRequest carries one payment or charge against a document
type PostTransactionRequest struct {
	DocumentID   uuid.UUID               `validate:"required"`
	Mode         finance.TransactionMode `validate:"required"`
	EntryAmount  decimal.Decimal
	CurrencyRate decimal.Decimal

	Concept         string `validate:"max=200"`
	PersonID        *uuid.UUID
	PersonName      string `validate:"max=100"`
	PaymentMethodID *uuid.UUID
	Note            string `validate:"max=500"`
	CreatedBy       *uuid.UUID
}

// PostTransaction posts an immutable transaction against a document. Only
// documents whose generic type accepts payments take transactions; the
// normalized local amount is fixed at post time and never recomputed.
func (s *LedgerService) PostTransaction(ctx context.Context, req PostTransactionRequest) (*finance.Transaction, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	doc, err := s.documentRepo.FindByID(ctx, req.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if doc.DocType == nil || !doc.DocType.GenericType.AcceptsPayments() {
		return nil, shared.NewDomainError("PAYMENTS_NOT_ACCEPTED",
			fmt.Sprintf("Document '%s' belongs to a type that does not accept payments", doc.Number))
	}

	tx, err := finance.NewTransaction(doc.ID, req.Mode, req.EntryAmount, req.CurrencyRate)
	if err != nil {
		return nil, err
	}
	tx.Concept = req.Concept
	tx.PersonID = req.PersonID
	tx.PersonName = req.PersonName
	tx.PaymentMethodID = req.PaymentMethodID
	tx.Note = req.Note
	tx.CreatedBy = req.CreatedBy

	ctx, log := logger.WithCompany(ctx, s.logger, doc.Company().String())
	if err := s.transactionRepo.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to post transaction: %w", err)
	}

	log.Info("transaction posted",
		zap.String("document_id", doc.ID.String()),
		zap.String("reference", tx.Reference()),
		zap.String("mode", string(tx.Mode)),
		zap.String("amount", tx.Amount.String()),
	)
	return tx, nil
}

// BalanceResult is the reconciled state of a document's account
type BalanceResult struct {
	Total   decimal.Decimal
	Applied decimal.Decimal
	Balance decimal.Decimal
	Settled bool
}

// Balance reconciles a document against its transactions. The document
// totals are refreshed first so the balance always reflects the current
// movement set. Only the mode that settles the document's account class
// reduces the balance: credits for receivable documents, debits for payable
// ones. The opposite mode is informational and leaves the balance untouched.
func (s *LedgerService) Balance(ctx context.Context, documentID uuid.UUID) (*BalanceResult, error) {
	totals, _, err := s.documentRepo.Recalculate(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to recalculate document: %w", err)
	}

	doc, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	mode, ok := settlingMode(doc)
	if !ok {
		// Types outside receivable/payable carry no account; the balance is
		// simply the document total.
		return &BalanceResult{
			Total:   totals.Total,
			Applied: decimal.Zero,
			Balance: totals.Total,
			Settled: totals.Total.IsZero(),
		}, nil
	}

	applied, err := s.transactionRepo.SumByMode(ctx, doc.ID, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to sum transactions: %w", err)
	}

	balance := totals.Total.Sub(applied)
	return &BalanceResult{
		Total:   totals.Total,
		Applied: applied,
		Balance: balance,
		Settled: !balance.IsPositive(),
	}, nil
}

// Transactions returns the transactions posted against a document
func (s *LedgerService) Transactions(ctx context.Context, documentID uuid.UUID) ([]finance.Transaction, error) {
	txs, err := s.transactionRepo.FindByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// settlingMode maps the document's account class to the transaction mode
// that reduces its balance.
func settlingMode(doc *document.Document) (finance.TransactionMode, bool) {
	if doc.DocType == nil {
		return "", false
	}
	switch {
	case doc.DocType.GenericType.AffectsReceivable():
		return finance.TransactionModeCredit, true
	case doc.DocType.GenericType.AffectsPayable():
		return finance.TransactionModeDebit, true
	default:
		return "", false
	}
}
