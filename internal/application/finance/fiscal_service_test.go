package finance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unoerp/backend/internal/domain/document"
	"github.com/unoerp/backend/internal/domain/finance"
	"github.com/unoerp/backend/internal/domain/shared"
)

// =============================================================================
// Mock Repositories
// =============================================================================

type MockTaxReceiptRepository struct {
	mock.Mock
}

func (m *MockTaxReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.TaxReceipt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.TaxReceipt), args.Error(1)
}

func (m *MockTaxReceiptRepository) FindByCompanyAndCode(ctx context.Context, companyID uuid.UUID, code string) (*finance.TaxReceipt, error) {
	args := m.Called(ctx, companyID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.TaxReceipt), args.Error(1)
}

func (m *MockTaxReceiptRepository) Save(ctx context.Context, receipt *finance.TaxReceipt) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}

type MockAuthorizationRepository struct {
	mock.Mock
}

func (m *MockAuthorizationRepository) CreateWithNumbers(ctx context.Context, auth *finance.TaxReceiptAuthorization, numbers []finance.TaxReceiptNumber) error {
	args := m.Called(ctx, auth, numbers)
	return args.Error(0)
}

func (m *MockAuthorizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.TaxReceiptAuthorization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.TaxReceiptAuthorization), args.Error(1)
}

func (m *MockAuthorizationRepository) FindByReceipt(ctx context.Context, taxReceiptID uuid.UUID) ([]finance.TaxReceiptAuthorization, error) {
	args := m.Called(ctx, taxReceiptID)
	return args.Get(0).([]finance.TaxReceiptAuthorization), args.Error(1)
}

func (m *MockAuthorizationRepository) Numbers(ctx context.Context, authorizationID uuid.UUID) ([]finance.TaxReceiptNumber, error) {
	args := m.Called(ctx, authorizationID)
	return args.Get(0).([]finance.TaxReceiptNumber), args.Error(1)
}

func (m *MockAuthorizationRepository) FindNumberByID(ctx context.Context, id uuid.UUID) (*finance.TaxReceiptNumber, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.TaxReceiptNumber), args.Error(1)
}

func (m *MockAuthorizationRepository) IsNumberUsed(ctx context.Context, numberID uuid.UUID) (bool, error) {
	args := m.Called(ctx, numberID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuthorizationRepository) ClaimForDocument(ctx context.Context, taxReceiptID, documentID uuid.UUID, now time.Time) (*finance.TaxReceiptNumber, error) {
	args := m.Called(ctx, taxReceiptID, documentID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.TaxReceiptNumber), args.Error(1)
}

func (m *MockAuthorizationRepository) CountAvailable(ctx context.Context, taxReceiptID uuid.UUID, now time.Time) (int64, error) {
	args := m.Called(ctx, taxReceiptID, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *document.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Document), args.Error(1)
}

func (m *MockDocumentRepository) Recalculate(ctx context.Context, documentID uuid.UUID) (document.Totals, bool, error) {
	args := m.Called(ctx, documentID)
	return args.Get(0).(document.Totals), args.Bool(1), args.Error(2)
}

// =============================================================================
// Fixtures
// =============================================================================

var fixedNow = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

type fiscalMocks struct {
	receiptRepo  *MockTaxReceiptRepository
	authRepo     *MockAuthorizationRepository
	documentRepo *MockDocumentRepository
}

func newFiscalService(t *testing.T, recordLimit int) (*FiscalService, *fiscalMocks) {
	t.Helper()
	m := &fiscalMocks{
		receiptRepo:  new(MockTaxReceiptRepository),
		authRepo:     new(MockAuthorizationRepository),
		documentRepo: new(MockDocumentRepository),
	}
	svc := NewFiscalService(m.receiptRepo, m.authRepo, m.documentRepo, recordLimit, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc, m
}

func newReceipt(t *testing.T) *finance.TaxReceipt {
	t.Helper()
	receipt, err := finance.NewTaxReceipt(uuid.New(), "01", "Consumer invoice")
	require.NoError(t, err)
	return receipt
}

// =============================================================================
// Tests
// =============================================================================

func TestAuthorizeRange(t *testing.T) {
	svc, m := newFiscalService(t, 0)
	receipt := newReceipt(t)

	m.receiptRepo.On("FindByID", mock.Anything, receipt.ID).Return(receipt, nil)
	m.authRepo.On("CreateWithNumbers", mock.Anything,
		mock.AnythingOfType("*finance.TaxReceiptAuthorization"),
		mock.AnythingOfType("[]finance.TaxReceiptNumber")).Return(nil)

	result, err := svc.AuthorizeRange(context.Background(), AuthorizeRangeRequest{
		TaxReceiptID:      receipt.ID,
		Authorization:     "AUT-2026-001",
		AuthorizationDate: fixedNow.AddDate(0, 0, -1),
		ExpirationDate:    fixedNow.AddDate(1, 0, 0),
		FirstReceipt:      "B0100000001",
		LastReceipt:       "B0100000009",
	})
	require.NoError(t, err)

	assert.Equal(t, 9, result.NumbersCreated)
	assert.Equal(t, "B0100000001", result.Authorization.FirstReceipt)
	m.authRepo.AssertExpectations(t)
}

func TestAuthorizeRangeRejectsOversizedRange(t *testing.T) {
	svc, m := newFiscalService(t, 5)
	receipt := newReceipt(t)

	m.receiptRepo.On("FindByID", mock.Anything, receipt.ID).Return(receipt, nil)

	_, err := svc.AuthorizeRange(context.Background(), AuthorizeRangeRequest{
		TaxReceiptID:      receipt.ID,
		Authorization:     "AUT-2026-001",
		AuthorizationDate: fixedNow,
		ExpirationDate:    fixedNow.AddDate(1, 0, 0),
		FirstReceipt:      "B0100000001",
		LastReceipt:       "B0100000009",
	})
	require.Error(t, err)
	assert.Equal(t, "RANGE_OVER_LIMIT", shared.AsDomainError(err).Code)
	m.authRepo.AssertNotCalled(t, "CreateWithNumbers", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthorizeRangeRollsBackOnDuplicate(t *testing.T) {
	svc, m := newFiscalService(t, 0)
	receipt := newReceipt(t)

	m.receiptRepo.On("FindByID", mock.Anything, receipt.ID).Return(receipt, nil)
	m.authRepo.On("CreateWithNumbers", mock.Anything, mock.Anything, mock.Anything).
		Return(shared.ErrAlreadyExists)

	_, err := svc.AuthorizeRange(context.Background(), AuthorizeRangeRequest{
		TaxReceiptID:      receipt.ID,
		Authorization:     "AUT-2026-001",
		AuthorizationDate: fixedNow,
		ExpirationDate:    fixedNow.AddDate(1, 0, 0),
		FirstReceipt:      "B0100000001",
		LastReceipt:       "B0100000009",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestValidateNumber(t *testing.T) {
	svc, m := newFiscalService(t, 0)
	receipt := newReceipt(t)

	m.receiptRepo.On("FindByID", mock.Anything, receipt.ID).Return(receipt, nil)

	got, err := svc.ValidateNumber(context.Background(), receipt.ID, "b0100000007")
	require.NoError(t, err)
	assert.Equal(t, "B0100000007", got)

	_, err = svc.ValidateNumber(context.Background(), receipt.ID, "B0200000007")
	require.Error(t, err)
	assert.Equal(t, "RECEIPT_TYPE_MISMATCH", shared.AsDomainError(err).Code)
}

func fiscalInvoiceDocument(t *testing.T, receiptID uuid.UUID) *document.Document {
	t.Helper()
	dt, err := document.NewDocumentType(uuid.New(), "FA", "Invoice", document.GenericTypeInvoice)
	require.NoError(t, err)
	dt.TaxReceiptID = &receiptID
	doc, err := document.NewDocument(dt, uuid.New(), nil)
	require.NoError(t, err)
	return doc
}

func TestAssignFiscalNumber(t *testing.T) {
	svc, m := newFiscalService(t, 0)
	receiptID := uuid.New()
	doc := fiscalInvoiceDocument(t, receiptID)

	number := &finance.TaxReceiptNumber{
		BaseEntity:   shared.NewBaseEntity(),
		TaxReceiptID: receiptID,
		Number:       "B0100000001",
		Serie:        "B",
		Sequence:     "00000001",
	}

	m.documentRepo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil)
	m.authRepo.On("ClaimForDocument", mock.Anything, receiptID, doc.ID, fixedNow).Return(number, nil)

	got, err := svc.AssignFiscalNumber(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "B0100000001", got.Number)
	assert.Equal(t, number.ID, *doc.TaxReceiptNumberID)
	m.authRepo.AssertExpectations(t)
}

func TestAssignFiscalNumberIdempotent(t *testing.T) {
	svc, m := newFiscalService(t, 0)
	receiptID := uuid.New()
	doc := fiscalInvoiceDocument(t, receiptID)
	existing := &finance.TaxReceiptNumber{
		BaseEntity:   shared.NewBaseEntity(),
		TaxReceiptID: receiptID,
		Number:       "B0100000003",
		Serie:        "B",
		Sequence:     "00000003",
	}
	require.NoError(t, doc.AssignFiscalNumber(existing.ID))

	m.documentRepo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil)
	m.authRepo.On("FindNumberByID", mock.Anything, existing.ID).Return(existing, nil)

	got, err := svc.AssignFiscalNumber(context.Background(), doc.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "B0100000003", got.Number)
	assert.Equal(t, existing.ID, *doc.TaxReceiptNumberID)
	m.authRepo.AssertNotCalled(t, "ClaimForDocument", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAssignFiscalNumberNotRequired(t *testing.T) {
	svc, m := newFiscalService(t, 0)
	dt, err := document.NewDocumentType(uuid.New(), "FA", "Invoice", document.GenericTypeInvoice)
	require.NoError(t, err)
	doc, err := document.NewDocument(dt, uuid.New(), nil)
	require.NoError(t, err)

	m.documentRepo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil)

	_, err = svc.AssignFiscalNumber(context.Background(), doc.ID)
	require.Error(t, err)
	assert.Equal(t, "FISCAL_NUMBER_NOT_REQUIRED", shared.AsDomainError(err).Code)
}

func TestAssignFiscalNumberExhaustedStock(t *testing.T) {
	svc, m := newFiscalService(t, 0)
	receiptID := uuid.New()
	doc := fiscalInvoiceDocument(t, receiptID)

	m.documentRepo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil)
	m.authRepo.On("ClaimForDocument", mock.Anything, receiptID, doc.ID, fixedNow).Return(nil, shared.ErrNotFound)

	_, err := svc.AssignFiscalNumber(context.Background(), doc.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAvailableStock(t *testing.T) {
	svc, m := newFiscalService(t, 0)
	receipt := newReceipt(t)
	receipt.MinAvailableToNotify = 10

	m.receiptRepo.On("FindByID", mock.Anything, receipt.ID).Return(receipt, nil)
	m.authRepo.On("CountAvailable", mock.Anything, receipt.ID, fixedNow).Return(int64(7), nil).Once()

	status, err := svc.AvailableStock(context.Background(), receipt.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 7, status.Available)
	assert.True(t, status.BelowThreshold)

	m.authRepo.On("CountAvailable", mock.Anything, receipt.ID, fixedNow).Return(int64(500), nil).Once()
	status, err = svc.AvailableStock(context.Background(), receipt.ID)
	require.NoError(t, err)
	assert.False(t, status.BelowThreshold)
}

func TestExpiringSoon(t *testing.T) {
	svc, m := newFiscalService(t, 0)
	receipt := newReceipt(t)
	receipt.MinDaysBeforeExpirationToNotify = 30

	soon := finance.TaxReceiptAuthorization{
		BaseEntity:     shared.NewBaseEntity(),
		ExpirationDate: fixedNow.AddDate(0, 0, 10),
	}
	far := finance.TaxReceiptAuthorization{
		BaseEntity:     shared.NewBaseEntity(),
		ExpirationDate: fixedNow.AddDate(1, 0, 0),
	}
	gone := finance.TaxReceiptAuthorization{
		BaseEntity:     shared.NewBaseEntity(),
		ExpirationDate: fixedNow.AddDate(0, 0, -10),
	}

	m.receiptRepo.On("FindByID", mock.Anything, receipt.ID).Return(receipt, nil)
	m.authRepo.On("FindByReceipt", mock.Anything, receipt.ID).
		Return([]finance.TaxReceiptAuthorization{soon, far, gone}, nil)

	expiring, err := svc.ExpiringSoon(context.Background(), receipt.ID)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, soon.ID, expiring[0].ID)
}

func TestNumbersAndUsageQueries(t *testing.T) {
	svc, m := newFiscalService(t, 0)
	authID := uuid.New()
	numberID := uuid.New()

	m.authRepo.On("Numbers", mock.Anything, authID).
		Return([]finance.TaxReceiptNumber{{Number: "B0100000001"}, {Number: "B0100000002"}}, nil)
	m.authRepo.On("IsNumberUsed", mock.Anything, numberID).Return(true, nil)

	numbers, err := svc.Numbers(context.Background(), authID)
	require.NoError(t, err)
	assert.Len(t, numbers, 2)

	used, err := svc.IsNumberUsed(context.Background(), numberID)
	require.NoError(t, err)
	assert.True(t, used)
}

func TestExpiringSoonDisabledThreshold(t *testing.T) {
	svc, m := newFiscalService(t, 0)
	receipt := newReceipt(t)

	m.receiptRepo.On("FindByID", mock.Anything, receipt.ID).Return(receipt, nil)

	expiring, err := svc.ExpiringSoon(context.Background(), receipt.ID)
	require.NoError(t, err)
	assert.Nil(t, expiring)
	m.authRepo.AssertNotCalled(t, "FindByReceipt", mock.Anything, mock.Anything)
}
