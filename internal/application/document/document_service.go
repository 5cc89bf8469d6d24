package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/unoerp/backend/internal/domain/document"
	"github.com/unoerp/backend/internal/domain/finance"
	"github.com/unoerp/backend/internal/domain/inventory"
	"github.com/unoerp/backend/internal/domain/shared"
	"github.com/unoerp/backend/internal/infrastructure/logger"
)

// DocumentService drives the document lifecycle: creation with sequence
// numbering, line intake through the calculator and total aggregation.
type DocumentService struct {
	doctypeRepo  document.DocumentTypeRepository
	documentRepo document.DocumentRepository
	movementRepo document.MovementRepository
	itemRepo     inventory.ItemRepository
	taxRepo      finance.TaxRepository
	currencyRepo finance.CurrencyRepository
	logger       *zap.Logger
	validate     *validator.Validate
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	doctypeRepo document.DocumentTypeRepository,
	documentRepo document.DocumentRepository,
	movementRepo document.MovementRepository,
	itemRepo inventory.ItemRepository,
	taxRepo finance.TaxRepository,
	currencyRepo finance.CurrencyRepository,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		doctypeRepo:  doctypeRepo,
		documentRepo: documentRepo,
		movementRepo: movementRepo,
		itemRepo:     itemRepo,
		taxRepo:      taxRepo,
		currencyRepo: currencyRepo,
		logger:       logger,
		validate:     validator.New(),
	}
}

// CreateDocumentRequest carries the caller input for a new document
type CreateDocumentRequest struct {
	DocTypeID           uuid.UUID  `validate:"required"`
	WarehouseID         uuid.UUID  `validate:"required"`
	TransferWarehouseID *uuid.UUID
	PersonID            *uuid.UUID
	PersonName          string `validate:"max=100"`
	Note                string `validate:"max=500"`
	CurrencyCode        string `validate:"omitempty,len=3,alpha"`
	CurrencyRate        decimal.Decimal
	PayTaxes            *bool
	CreatedBy           *uuid.UUID
}

// CreateDocument creates a draft document. The per-doctype sequence and the
// display number are assigned by the repository atomically with the insert,
// so two concurrent calls never share a number.
func (s *DocumentService) CreateDocument(ctx context.Context, req CreateDocumentRequest) (*document.Document, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	doctype, err := s.doctypeRepo.FindByID(ctx, req.DocTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get document type: %w", err)
	}

	doc, err := document.NewDocument(doctype, req.WarehouseID, req.TransferWarehouseID)
	if err != nil {
		return nil, err
	}

	// Snapshot the person's display name so the document survives later edits
	// to the person record.
	doc.PersonID = req.PersonID
	doc.PersonName = req.PersonName
	doc.Note = req.Note
	doc.CreatedBy = req.CreatedBy
	if req.PayTaxes != nil {
		doc.PayTaxes = *req.PayTaxes
	}
	if err := s.snapshotCurrency(ctx, doc, req); err != nil {
		return nil, err
	}

	ctx, log := logger.WithCompany(ctx, s.logger, doc.Company().String())
	if err := s.documentRepo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	log.Info("document created",
		zap.String("document_id", doc.ID.String()),
		zap.String("number", doc.Number),
		zap.Int64("sequence", doc.Sequence),
	)
	return doc, nil
}

// snapshotCurrency fixes the document's currency code and rate at creation
// time. An explicit rate wins; otherwise the rate comes from the company's
// currency record, so later rate edits never change this document. A missing
// currency record leaves the rate at 1.
func (s *DocumentService) snapshotCurrency(ctx context.Context, doc *document.Document, req CreateDocumentRequest) error {
	if req.CurrencyCode != "" {
		doc.CurrencyCode = shared.NormalizeCode(req.CurrencyCode)
	} else {
		currency, err := s.currencyRepo.FindDefault(ctx, doc.Company())
		switch {
		case err == nil:
			doc.CurrencyCode = currency.Code
			if currency.Rate.IsPositive() {
				doc.CurrencyRate = currency.Rate
			}
		case !errors.Is(err, shared.ErrNotFound):
			return fmt.Errorf("failed to get default currency: %w", err)
		}
	}

	if req.CurrencyRate.IsPositive() {
		doc.CurrencyRate = req.CurrencyRate
		return nil
	}
	if req.CurrencyCode == "" {
		return nil
	}

	currency, err := s.currencyRepo.FindByCompanyAndCode(ctx, doc.Company(), doc.CurrencyCode)
	switch {
	case err == nil:
		if currency.Rate.IsPositive() {
			doc.CurrencyRate = currency.Rate
		}
	case !errors.Is(err, shared.ErrNotFound):
		return fmt.Errorf("failed to get currency: %w", err)
	}
	return nil
}

// GetDocument returns a document with its type preloaded
func (s *DocumentService) GetDocument(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	doc, err := s.documentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// AddMovementRequest carries the caller input for a new line item
type AddMovementRequest struct {
	DocumentID uuid.UUID `validate:"required"`
	ItemID     *uuid.UUID
	Quantity   decimal.Decimal
	Price      decimal.Decimal
	Discount   decimal.Decimal
	// TaxIncluded marks the entered price as tax-inclusive; the tax component
	// is backed out before storage.
	TaxIncluded bool
	// SuppressRecalc skips the per-line total refresh. Bulk loaders set it and
	// call Recalculate once at the end.
	SuppressRecalc bool
}

// AddMovement runs the line calculator and appends a movement to the
// document. Unless suppressed, the document totals are refreshed afterwards.
func (s *DocumentService) AddMovement(ctx context.Context, req AddMovementRequest) (*document.Movement, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	doc, err := s.documentRepo.FindByID(ctx, req.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	var rule *finance.Tax
	if req.ItemID != nil {
		item, err := s.itemRepo.FindByID(ctx, *req.ItemID)
		if err != nil {
			return nil, fmt.Errorf("failed to get item: %w", err)
		}
		if item.CompanyID != doc.Company() {
			return nil, shared.NewFieldError("ITEM_COMPANY_MISMATCH", "item",
				fmt.Sprintf("Item '%s' belongs to another company", item.Code))
		}
		if item.TaxID != nil {
			rule, err = s.taxRepo.FindByID(ctx, *item.TaxID)
			if err != nil {
				return nil, fmt.Errorf("failed to get tax rule: %w", err)
			}
		}
	}

	line, err := document.ComputeLine(req.Quantity, req.Price, req.Discount, rule, req.TaxIncluded, doc.PayTaxes)
	if err != nil {
		return nil, err
	}

	movement, err := document.NewMovement(doc.ID, req.ItemID, req.Quantity, req.Discount, line, req.TaxIncluded)
	if err != nil {
		return nil, err
	}

	ctx, log := logger.WithCompany(ctx, s.logger, doc.Company().String())
	if err := s.movementRepo.Create(ctx, movement); err != nil {
		return nil, fmt.Errorf("failed to create movement: %w", err)
	}

	if !req.SuppressRecalc {
		if _, _, err := s.documentRepo.Recalculate(ctx, doc.ID); err != nil {
			return nil, fmt.Errorf("failed to recalculate document: %w", err)
		}
	}
	log.Debug("movement added",
		zap.String("document_id", doc.ID.String()),
		zap.Int64("number", movement.Number),
		zap.String("total", movement.Total().String()),
	)
	return movement, nil
}

// RemoveMovement deletes a line item and refreshes the document totals
func (s *DocumentService) RemoveMovement(ctx context.Context, documentID, movementID uuid.UUID) error {
	if err := s.movementRepo.Delete(ctx, movementID); err != nil {
		return fmt.Errorf("failed to delete movement: %w", err)
	}
	if _, _, err := s.documentRepo.Recalculate(ctx, documentID); err != nil {
		return fmt.Errorf("failed to recalculate document: %w", err)
	}
	return nil
}

// Recalculate re-derives the document totals from its movements. The write is
// skipped when nothing changed, so repeated calls settle into no-ops.
func (s *DocumentService) Recalculate(ctx context.Context, documentID uuid.UUID) (document.Totals, error) {
	totals, changed, err := s.documentRepo.Recalculate(ctx, documentID)
	if err != nil {
		return document.Totals{}, fmt.Errorf("failed to recalculate document: %w", err)
	}
	if changed {
		s.logger.Info("document totals updated",
			zap.String("document_id", documentID.String()),
			zap.String("total", totals.Total.String()),
		)
	}
	return totals, nil
}

// Movements returns the line items of a document ordered by their number
func (s *DocumentService) Movements(ctx context.Context, documentID uuid.UUID) ([]document.Movement, error) {
	movements, err := s.movementRepo.FindByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	return movements, nil
}
