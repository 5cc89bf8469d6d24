package finance

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/unoerp/backend/internal/domain/shared"
)

// DefaultRecordLimit caps how many fiscal receipt numbers one authorization
// may materialize. The cap exists to keep the bulk insert within ordinary
// request budgets; deployments can raise or lower it through configuration.
const DefaultRecordLimit = 50000

// TaxReceiptAuthorization is a batch grant of a contiguous NCF range from the
// tax authority. Validating it materializes every number in
// [first_receipt, last_receipt]. Immutable after creation.
type TaxReceiptAuthorization struct {
	shared.BaseEntity
	TaxReceiptID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Authorization     string    `gorm:"size:50;not null"`
	AuthorizationDate time.Time `gorm:"not null"`
	ExpirationDate    time.Time `gorm:"not null"`
	FirstReceipt      string    `gorm:"size:11;not null"`
	LastReceipt       string    `gorm:"size:11;not null"`
}

// TableName returns the database table name
func (TaxReceiptAuthorization) TableName() string { return "tax_receipt_authorizations" }

// NewTaxReceiptAuthorization validates and builds an authorization for the
// given receipt type. recordLimit caps the range size; pass 0 for the
// default. The returned authorization still has to be persisted together
// with its numbers (see ExpandRange) in a single transaction.
func NewTaxReceiptAuthorization(receipt *TaxReceipt, authorization string, authorizationDate, expirationDate time.Time, firstReceipt, lastReceipt string, recordLimit int, now time.Time) (*TaxReceiptAuthorization, error) {
	if receipt == nil {
		return nil, shared.NewDomainError("INVALID_TAX_RECEIPT", "Tax receipt type cannot be nil")
	}
	if authorization == "" {
		return nil, shared.NewFieldError("INVALID_AUTHORIZATION", "authorization",
			"The authorization number supplied by the tax authority cannot be empty")
	}
	if recordLimit <= 0 {
		recordLimit = DefaultRecordLimit
	}

	if !expirationDate.After(now) {
		return nil, shared.NewFieldError("EXPIRATION_NOT_FUTURE", "expiration_date",
			"The expiration date must be a future date")
	}
	if authorizationDate.After(expirationDate) {
		return nil, shared.NewFieldError("DATE_ORDER", "authorization_date",
			"The authorization date must be earlier than or equal to the expiration date")
	}

	first, err := receipt.ValidateNumber(firstReceipt)
	if err != nil {
		return nil, err
	}
	last, err := receipt.ValidateNumber(lastReceipt)
	if err != nil {
		return nil, err
	}

	firstSeq, lastSeq, err := rangeBounds(first, last)
	if err != nil {
		return nil, err
	}
	if count := lastSeq - firstSeq + 1; count > int64(recordLimit) {
		return nil, shared.NewDomainError("RANGE_OVER_LIMIT",
			fmt.Sprintf("The range holds %d fiscal receipt numbers, above the limit of %d allowed per authorization",
				count, recordLimit))
	}

	return &TaxReceiptAuthorization{
		BaseEntity:        shared.NewBaseEntity(),
		TaxReceiptID:      receipt.ID,
		Authorization:     authorization,
		AuthorizationDate: authorizationDate,
		ExpirationDate:    expirationDate,
		FirstReceipt:      first,
		LastReceipt:       last,
	}, nil
}

// ExpandRange materializes one TaxReceiptNumber per integer in the inclusive
// range, sharing the serie of the first receipt and already linked to this
// authorization. The caller persists them with the authorization in one
// transaction so a mid-batch failure leaves nothing behind.
func (a *TaxReceiptAuthorization) ExpandRange() ([]TaxReceiptNumber, error) {
	firstSeq, lastSeq, err := rangeBounds(a.FirstReceipt, a.LastReceipt)
	if err != nil {
		return nil, err
	}
	serie := a.FirstReceipt[:1]
	code := a.FirstReceipt[1:3]

	numbers := make([]TaxReceiptNumber, 0, lastSeq-firstSeq+1)
	for n := firstSeq; n <= lastSeq; n++ {
		sequence := fmt.Sprintf("%08d", n)
		authID := a.ID
		numbers = append(numbers, TaxReceiptNumber{
			BaseEntity:      shared.NewBaseEntity(),
			TaxReceiptID:    a.TaxReceiptID,
			Number:          serie + code + sequence,
			Serie:           serie,
			Sequence:        sequence,
			AuthorizationID: &authID,
		})
	}
	return numbers, nil
}

// IsExpired reports whether the authorization's numbers are past expiration
func (a *TaxReceiptAuthorization) IsExpired(now time.Time) bool {
	return now.After(a.ExpirationDate)
}

// ExpiresWithin reports whether the authorization expires inside the given
// number of days from now. Used for the receipt type's warning threshold.
func (a *TaxReceiptAuthorization) ExpiresWithin(now time.Time, days int) bool {
	if a.IsExpired(now) {
		return true
	}
	return !now.AddDate(0, 0, days).Before(a.ExpirationDate)
}

// rangeBounds extracts the numeric suffixes of both boundary receipts and
// checks their ordering.
func rangeBounds(first, last string) (int64, int64, error) {
	firstSeq, err := strconv.ParseInt(first[3:], 10, 64)
	if err != nil {
		return 0, 0, shared.NewFieldError("INVALID_RECEIPT_SEQUENCE", "first_receipt",
			fmt.Sprintf("The receipt sequence must be numeric: '%s'", first))
	}
	lastSeq, err := strconv.ParseInt(last[3:], 10, 64)
	if err != nil {
		return 0, 0, shared.NewFieldError("INVALID_RECEIPT_SEQUENCE", "last_receipt",
			fmt.Sprintf("The receipt sequence must be numeric: '%s'", last))
	}
	if firstSeq > lastSeq {
		return 0, 0, shared.NewFieldError("RANGE_ORDER", "last_receipt",
			fmt.Sprintf("The last receipt '%s' must be greater than or equal to the first receipt '%s'",
				last, first))
	}
	return firstSeq, lastSeq, nil
}
