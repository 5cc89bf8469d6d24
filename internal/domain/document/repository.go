package document

import (
	"context"

	"github.com/google/uuid"
)

// DocumentTypeRepository defines the interface for document type persistence
type DocumentTypeRepository interface {
	// FindByID finds a document type by ID
	FindByID(ctx context.Context, id uuid.UUID) (*DocumentType, error)

	// FindByCompanyAndCode finds a document type by normalized code
	FindByCompanyAndCode(ctx context.Context, companyID uuid.UUID, code string) (*DocumentType, error)

	// FindActiveByCompany returns the active document types of a company
	FindActiveByCompany(ctx context.Context, companyID uuid.UUID) ([]DocumentType, error)

	// Save creates or updates a document type. Duplicate (company, code)
	// pairs surface as a field-scoped domain error.
	Save(ctx context.Context, doctype *DocumentType) error
}

// DocumentRepository defines the interface for document persistence
type DocumentRepository interface {
	// Create inserts a document, assigning its per-doctype sequence and
	// display number atomically with the insert. Two concurrent creations
	// for the same doctype never receive the same sequence.
	Create(ctx context.Context, doc *Document) error

	// FindByID finds a document by ID with its type preloaded
	FindByID(ctx context.Context, id uuid.UUID) (*Document, error)

	// Recalculate re-derives the document's amount, discount, tax and total
	// from its movements under a row lock on the document, writes the four
	// fields only when at least one differs, and reports whether it wrote.
	Recalculate(ctx context.Context, documentID uuid.UUID) (Totals, bool, error)
}

// MovementRepository defines the interface for line item persistence
type MovementRepository interface {
	// Create inserts a movement, assigning its ordinal within the document
	// atomically with the insert (row lock on the parent document).
	Create(ctx context.Context, movement *Movement) error

	// FindByDocument returns the movements of a document ordered by number
	FindByDocument(ctx context.Context, documentID uuid.UUID) ([]Movement, error)

	// Delete removes a movement
	Delete(ctx context.Context, id uuid.UUID) error
}
