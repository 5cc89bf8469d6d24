package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unoerp/backend/internal/domain/document"
	"github.com/unoerp/backend/internal/domain/finance"
	"github.com/unoerp/backend/internal/domain/shared"
	"github.com/unoerp/backend/internal/infrastructure/logger"
)

// FiscalService manages fiscal receipt types, range authorizations and the
// assignment of receipt numbers to documents.
type FiscalService struct {
	receiptRepo  finance.TaxReceiptRepository
	authRepo     finance.AuthorizationRepository
	documentRepo document.DocumentRepository
	logger       *zap.Logger
	validate     *validator.Validate

	// recordLimit caps the size of one authorized range. Zero means the
	// domain default.
	recordLimit int
	now         func() time.Time
}

// NewFiscalService creates a new FiscalService
func NewFiscalService(
	receiptRepo finance.TaxReceiptRepository,
	authRepo finance.AuthorizationRepository,
	documentRepo document.DocumentRepository,
	recordLimit int,
	logger *zap.Logger,
) *FiscalService {
	return &FiscalService{
		receiptRepo:  receiptRepo,
		authRepo:     authRepo,
		documentRepo: documentRepo,
		logger:       logger,
		validate:     validator.New(),
		recordLimit:  recordLimit,
		now:          time.Now,
	}
}

// AuthorizeRangeRequest carries one range grant from the tax authority
type AuthorizeRangeRequest struct {
	TaxReceiptID      uuid.UUID `validate:"required"`
	Authorization     string    `validate:"required,max=50"`
	AuthorizationDate time.Time `validate:"required"`
	ExpirationDate    time.Time `validate:"required"`
	FirstReceipt      string    `validate:"required"`
	LastReceipt       string    `validate:"required"`
}

// AuthorizeRangeResult reports the persisted authorization and how many
// receipt numbers it materialized.
type AuthorizeRangeResult struct {
	Authorization  *finance.TaxReceiptAuthorization
	NumbersCreated int
}

// AuthorizeRange validates a range grant and materializes every receipt
// number in it. Authorization and numbers persist in one transaction; a
// duplicate anywhere in the range rolls back the whole grant.
func (s *FiscalService) AuthorizeRange(ctx context.Context, req AuthorizeRangeRequest) (*AuthorizeRangeResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	receipt, err := s.receiptRepo.FindByID(ctx, req.TaxReceiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tax receipt: %w", err)
	}

	auth, err := finance.NewTaxReceiptAuthorization(receipt, req.Authorization,
		req.AuthorizationDate, req.ExpirationDate,
		req.FirstReceipt, req.LastReceipt, s.recordLimit, s.now())
	if err != nil {
		return nil, err
	}

	numbers, err := auth.ExpandRange()
	if err != nil {
		return nil, err
	}

	ctx, log := logger.WithCompany(ctx, s.logger, receipt.CompanyID.String())
	if err := s.authRepo.CreateWithNumbers(ctx, auth, numbers); err != nil {
		return nil, fmt.Errorf("failed to persist authorization: %w", err)
	}

	log.Info("fiscal range authorized",
		zap.String("tax_receipt_id", receipt.ID.String()),
		zap.String("first", auth.FirstReceipt),
		zap.String("last", auth.LastReceipt),
		zap.Int("numbers", len(numbers)),
	)
	return &AuthorizeRangeResult{Authorization: auth, NumbersCreated: len(numbers)}, nil
}

// ValidateNumber checks a fiscal receipt number against the format rules and
// the receipt type's embedded code, returning the normalized form.
func (s *FiscalService) ValidateNumber(ctx context.Context, taxReceiptID uuid.UUID, ncf string) (string, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, taxReceiptID)
	if err != nil {
		return "", fmt.Errorf("failed to get tax receipt: %w", err)
	}
	return receipt.ValidateNumber(ncf)
}

// AssignFiscalNumber draws the next available receipt number for the
// document's configured receipt type and links it one-to-one. The claim and
// the link happen in one repository transaction, so the claimed number stays
// locked until the link commits. A document that already carries a number
// keeps it; the call then returns the linked number unchanged.
func (s *FiscalService) AssignFiscalNumber(ctx context.Context, documentID uuid.UUID) (*finance.TaxReceiptNumber, error) {
	doc, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if doc.DocType == nil || !doc.DocType.RequiresFiscalNumber() {
		return nil, shared.NewDomainError("FISCAL_NUMBER_NOT_REQUIRED",
			fmt.Sprintf("Document '%s' belongs to a type that does not use fiscal receipt numbers", doc.Number))
	}
	if doc.TaxReceiptNumberID != nil {
		number, err := s.authRepo.FindNumberByID(ctx, *doc.TaxReceiptNumberID)
		if err != nil {
			return nil, fmt.Errorf("failed to get fiscal number: %w", err)
		}
		return number, nil
	}

	number, err := s.authRepo.ClaimForDocument(ctx, *doc.DocType.TaxReceiptID, doc.ID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to claim fiscal number: %w", err)
	}
	if err := doc.AssignFiscalNumber(number.ID); err != nil {
		return nil, err
	}

	s.logger.Info("fiscal number assigned",
		zap.String("document_id", doc.ID.String()),
		zap.String("number", number.Number),
	)
	return number, nil
}

// StockStatus reports the unused number stock of a receipt type against its
// warning threshold.
type StockStatus struct {
	Available      int64
	BelowThreshold bool
}

// AvailableStock counts the unused, unexpired numbers of a receipt type and
// flags when the stock is at or below the type's notify threshold.
func (s *FiscalService) AvailableStock(ctx context.Context, taxReceiptID uuid.UUID) (*StockStatus, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, taxReceiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tax receipt: %w", err)
	}
	count, err := s.authRepo.CountAvailable(ctx, receipt.ID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to count available numbers: %w", err)
	}
	status := &StockStatus{
		Available:      count,
		BelowThreshold: receipt.MinAvailableToNotify > 0 && count <= int64(receipt.MinAvailableToNotify),
	}
	if status.BelowThreshold {
		s.logger.Warn("fiscal number stock low",
			zap.String("tax_receipt_id", receipt.ID.String()),
			zap.Int64("available", count),
			zap.Int("threshold", receipt.MinAvailableToNotify),
		)
	}
	return status, nil
}

// ExpiringSoon returns the authorizations of a receipt type that expire
// within the type's warning window. A zero window reports nothing.
func (s *FiscalService) ExpiringSoon(ctx context.Context, taxReceiptID uuid.UUID) ([]finance.TaxReceiptAuthorization, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, taxReceiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tax receipt: %w", err)
	}
	if receipt.MinDaysBeforeExpirationToNotify <= 0 {
		return nil, nil
	}

	auths, err := s.authRepo.FindByReceipt(ctx, receipt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list authorizations: %w", err)
	}

	now := s.now()
	var expiring []finance.TaxReceiptAuthorization
	for _, a := range auths {
		if !a.IsExpired(now) && a.ExpiresWithin(now, receipt.MinDaysBeforeExpirationToNotify) {
			expiring = append(expiring, a)
		}
	}
	return expiring, nil
}

// Numbers returns every receipt number materialized by an authorization
func (s *FiscalService) Numbers(ctx context.Context, authorizationID uuid.UUID) ([]finance.TaxReceiptNumber, error) {
	numbers, err := s.authRepo.Numbers(ctx, authorizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipt numbers: %w", err)
	}
	return numbers, nil
}

// IsNumberUsed reports whether a document already claims the receipt number
func (s *FiscalService) IsNumberUsed(ctx context.Context, numberID uuid.UUID) (bool, error) {
	used, err := s.authRepo.IsNumberUsed(ctx, numberID)
	if err != nil {
		return false, fmt.Errorf("failed to check number usage: %w", err)
	}
	return used, nil
}
