package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/unoerp/backend/internal/domain/document"
	"github.com/unoerp/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormDocumentTypeRepository implements DocumentTypeRepository using GORM
type GormDocumentTypeRepository struct {
	db *gorm.DB
}

// NewGormDocumentTypeRepository creates a new GormDocumentTypeRepository
func NewGormDocumentTypeRepository(db *gorm.DB) *GormDocumentTypeRepository {
	return &GormDocumentTypeRepository{db: db}
}

// FindByID finds a document type by its ID
func (r *GormDocumentTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.DocumentType, error) {
	var doctype document.DocumentType
	if err := r.db.WithContext(ctx).
		First(&doctype, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &doctype, nil
}

// FindByCompanyAndCode finds a document type by its normalized code
func (r *GormDocumentTypeRepository) FindByCompanyAndCode(ctx context.Context, companyID uuid.UUID, code string) (*document.DocumentType, error) {
	var doctype document.DocumentType
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND code = ?", companyID, code).
		First(&doctype).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &doctype, nil
}

// FindActiveByCompany returns the active document types of a company
func (r *GormDocumentTypeRepository) FindActiveByCompany(ctx context.Context, companyID uuid.UUID) ([]document.DocumentType, error) {
	var doctypes []document.DocumentType
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND is_active = ?", companyID, true).
		Order("code").
		Find(&doctypes).Error; err != nil {
		return nil, err
	}
	return doctypes, nil
}

// Save creates or updates a document type
func (r *GormDocumentTypeRepository) Save(ctx context.Context, doctype *document.DocumentType) error {
	if err := r.db.WithContext(ctx).Save(doctype).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewFieldError("DUPLICATE_CODE", "code",
				"A document type with this code already exists for the company")
		}
		return err
	}
	return nil
}
