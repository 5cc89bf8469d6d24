package document

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unoerp/backend/internal/domain/document"
	"github.com/unoerp/backend/internal/domain/shared"
)

// DocumentTypeService manages the per-company document type catalog
type DocumentTypeService struct {
	doctypeRepo document.DocumentTypeRepository
	logger      *zap.Logger
	validate    *validator.Validate
}

// NewDocumentTypeService creates a new DocumentTypeService
func NewDocumentTypeService(doctypeRepo document.DocumentTypeRepository, logger *zap.Logger) *DocumentTypeService {
	return &DocumentTypeService{
		doctypeRepo: doctypeRepo,
		logger:      logger,
		validate:    validator.New(),
	}
}

// CreateDocumentTypeRequest carries the caller input for a new document type
type CreateDocumentTypeRequest struct {
	CompanyID    uuid.UUID `validate:"required"`
	Code         string    `validate:"required"`
	Name         string    `validate:"required,max=70"`
	GenericType  string    `validate:"required"`
	AffectCost   bool
	TaxReceiptID *uuid.UUID
}

// CreateDocumentType creates a document type. AffectCost only sticks when the
// generic type is allowed to affect item cost.
func (s *DocumentTypeService) CreateDocumentType(ctx context.Context, req CreateDocumentTypeRequest) (*document.DocumentType, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	doctype, err := document.NewDocumentType(req.CompanyID, req.Code, req.Name, document.GenericType(req.GenericType))
	if err != nil {
		return nil, err
	}
	doctype.AffectCost = req.AffectCost && doctype.GenericType.Capabilities().CanAffectCost
	doctype.TaxReceiptID = req.TaxReceiptID

	if err := s.doctypeRepo.Save(ctx, doctype); err != nil {
		return nil, fmt.Errorf("failed to save document type: %w", err)
	}

	s.logger.Info("document type created",
		zap.String("company_id", doctype.CompanyID.String()),
		zap.String("code", doctype.Code),
		zap.String("generic_type", doctype.GenericType.String()),
	)
	return doctype, nil
}

// GetByCode finds a document type by its normalized code
func (s *DocumentTypeService) GetByCode(ctx context.Context, companyID uuid.UUID, code string) (*document.DocumentType, error) {
	doctype, err := s.doctypeRepo.FindByCompanyAndCode(ctx, companyID, shared.NormalizeCode(code))
	if err != nil {
		return nil, fmt.Errorf("failed to get document type: %w", err)
	}
	return doctype, nil
}

// ListActive returns the active document types of a company
func (s *DocumentTypeService) ListActive(ctx context.Context, companyID uuid.UUID) ([]document.DocumentType, error) {
	doctypes, err := s.doctypeRepo.FindActiveByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list document types: %w", err)
	}
	return doctypes, nil
}

// Deactivate retires a document type so no further documents use it.
// Existing documents keep their numbers.
func (s *DocumentTypeService) Deactivate(ctx context.Context, id uuid.UUID) error {
	doctype, err := s.doctypeRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get document type: %w", err)
	}
	if !doctype.IsActive {
		return nil
	}
	doctype.IsActive = false
	if err := s.doctypeRepo.Save(ctx, doctype); err != nil {
		return fmt.Errorf("failed to save document type: %w", err)
	}
	return nil
}
