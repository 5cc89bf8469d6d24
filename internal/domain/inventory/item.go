package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/unoerp/backend/internal/domain/shared"
)

// Item is an inventory article. Every item belongs to exactly one company;
// (company, code) is unique. The ledger core only needs the company binding
// to validate that a movement's item matches its document's company.
type Item struct {
	shared.BaseEntity
	CompanyID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:ux_items_company_code"`
	Code        string     `gorm:"size:8;not null;uniqueIndex:ux_items_company_code"`
	Codename    string     `gorm:"size:30;not null"`
	Name        string     `gorm:"size:70;not null"`
	Description string     `gorm:"size:500"`
	TaxID       *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the database table name
func (Item) TableName() string { return "items" }

// NewItem creates an inventory item
func NewItem(companyID uuid.UUID, code, codename, name string) (*Item, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	codename = shared.NormalizeCode(codename)
	if name == "" {
		return nil, shared.NewFieldError("INVALID_NAME", "name", "Item name cannot be empty")
	}
	return &Item{
		BaseEntity: shared.NewBaseEntity(),
		CompanyID:  companyID,
		Code:       code,
		Codename:   codename,
		Name:       name,
	}, nil
}

// ItemRepository defines the interface for item persistence
type ItemRepository interface {
	// FindByID finds an item by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)

	// Save creates or updates an item
	Save(ctx context.Context, item *Item) error
}
