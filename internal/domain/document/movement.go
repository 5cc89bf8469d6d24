package document

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unoerp/backend/internal/domain/finance"
	"github.com/unoerp/backend/internal/domain/shared"
)

// Movement is a line item of a Document. The item reference is optional so
// pure accounting lines can exist without inventory. Quantity, price,
// discount and tax are never negative.
type Movement struct {
	shared.BaseEntity
	DocumentID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Number     int64      `gorm:"not null"`
	ItemID     *uuid.UUID `gorm:"type:uuid"`

	Quantity decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	// Price is stored net of tax. When the entered price included tax, the
	// tax component is backed out at intake and Price holds the remainder.
	Price    decimal.Decimal `gorm:"type:numeric(22,2);not null"`
	Discount decimal.Decimal `gorm:"type:numeric(22,2);not null"`
	// Tax is computed from the item's tax rule, never edited by callers.
	Tax         decimal.Decimal `gorm:"type:numeric(22,2);not null"`
	TaxIncluded bool            `gorm:"not null;default:false"`
}

// TableName returns the database table name
func (Movement) TableName() string { return "movements" }

// LineAmounts is the result of the line calculator.
type LineAmounts struct {
	// NetPrice is the tax-exclusive unit price the movement stores.
	NetPrice           decimal.Decimal
	Amount             decimal.Decimal
	AmountWithDiscount decimal.Decimal
	Tax                decimal.Decimal
	Total              decimal.Decimal
}

// ComputeLine runs the line calculator:
//
//	amount               = price × quantity
//	amount_with_discount = amount − discount
//	tax                  = 0 when the document does not pay taxes or the item
//	                       has no tax rule, else the rule applied to
//	                       amount_with_discount
//	total                = amount_with_discount + tax
//
// When taxIncluded is set the entered price is treated as tax-inclusive and
// the tax is backed out instead of added on top. For percent rules the
// extraction is gross × rate / (100 + rate); the source system never fully
// specified this case, so that standard formula is the assumption here. For
// fixed rules the configured flat value is taken as the included component.
func ComputeLine(quantity, price, discount decimal.Decimal, rule *finance.Tax, taxIncluded, payTaxes bool) (LineAmounts, error) {
	if quantity.IsNegative() {
		return LineAmounts{}, shared.NewFieldError("INVALID_QUANTITY", "quantity",
			fmt.Sprintf("Quantity cannot be negative: %s", quantity))
	}
	if price.IsNegative() {
		return LineAmounts{}, shared.NewFieldError("INVALID_PRICE", "price",
			fmt.Sprintf("Price cannot be negative: %s", price))
	}
	if discount.IsNegative() {
		return LineAmounts{}, shared.NewFieldError("INVALID_DISCOUNT", "discount",
			fmt.Sprintf("Discount cannot be negative: %s", discount))
	}

	amount := price.Mul(quantity)
	withDiscount := amount.Sub(discount)

	if !payTaxes || rule == nil {
		return LineAmounts{
			NetPrice:           price,
			Amount:             amount,
			AmountWithDiscount: withDiscount,
			Tax:                decimal.Zero,
			Total:              withDiscount,
		}, nil
	}

	if !taxIncluded {
		tax := rule.Calculate(withDiscount)
		return LineAmounts{
			NetPrice:           price,
			Amount:             amount,
			AmountWithDiscount: withDiscount,
			Tax:                tax,
			Total:              withDiscount.Add(tax),
		}, nil
	}

	var tax decimal.Decimal
	switch rule.ValueType {
	case finance.TaxValueTypePercent:
		tax = withDiscount.Mul(rule.Value).Div(decimal.NewFromInt(100).Add(rule.Value))
	default:
		tax = rule.Value
	}
	netWithDiscount := withDiscount.Sub(tax)
	netAmount := netWithDiscount.Add(discount)
	netPrice := price
	if quantity.IsPositive() {
		netPrice = netAmount.Div(quantity)
	}
	return LineAmounts{
		NetPrice:           netPrice,
		Amount:             netAmount,
		AmountWithDiscount: netWithDiscount,
		Tax:                tax,
		// The discounted gross the caller supplied: net + extracted tax.
		Total: withDiscount,
	}, nil
}

// NewMovement builds a movement from calculator output. The ordinal number is
// assigned by the repository atomically with the insert.
func NewMovement(documentID uuid.UUID, itemID *uuid.UUID, quantity, discount decimal.Decimal, line LineAmounts, taxIncluded bool) (*Movement, error) {
	if documentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DOCUMENT", "Document ID cannot be empty")
	}
	if line.Tax.IsNegative() {
		return nil, shared.NewFieldError("INVALID_TAX", "tax",
			fmt.Sprintf("Tax cannot be negative: %s", line.Tax))
	}
	return &Movement{
		BaseEntity:  shared.NewBaseEntity(),
		DocumentID:  documentID,
		ItemID:      itemID,
		Quantity:    quantity,
		Price:       line.NetPrice,
		Discount:    discount,
		Tax:         line.Tax,
		TaxIncluded: taxIncluded,
	}, nil
}

// AssignNumber sets the ordinal within the document exactly once
func (m *Movement) AssignNumber(number int64) error {
	if m.Number != 0 {
		return shared.NewDomainError("NUMBER_ASSIGNED",
			fmt.Sprintf("Movement already carries number %d", m.Number))
	}
	if number < 1 {
		return shared.NewDomainError("INVALID_NUMBER",
			fmt.Sprintf("Movement number must start at 1, got %d", number))
	}
	m.Number = number
	return nil
}

// Amount returns price × quantity
func (m *Movement) Amount() decimal.Decimal {
	return m.Price.Mul(m.Quantity)
}

// AmountWithDiscount returns the amount after the fixed discount
func (m *Movement) AmountWithDiscount() decimal.Decimal {
	return m.Amount().Sub(m.Discount)
}

// Total returns the discounted amount plus tax
func (m *Movement) Total() decimal.Decimal {
	return m.AmountWithDiscount().Add(m.Tax)
}

// LocalAmount converts the amount into local currency at the document rate
func (m *Movement) LocalAmount(currencyRate decimal.Decimal) decimal.Decimal {
	return m.Amount().Mul(rateOrOne(currencyRate))
}

// LocalTotal converts the total into local currency at the document rate
func (m *Movement) LocalTotal(currencyRate decimal.Decimal) decimal.Decimal {
	return m.Total().Mul(rateOrOne(currencyRate))
}

// LocalTax converts the tax into local currency at the document rate
func (m *Movement) LocalTax(currencyRate decimal.Decimal) decimal.Decimal {
	return m.Tax.Mul(rateOrOne(currencyRate))
}

func rateOrOne(rate decimal.Decimal) decimal.Decimal {
	if rate.IsZero() {
		return decimal.NewFromInt(1)
	}
	return rate
}
