package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unoerp/backend/internal/domain/finance"
	"github.com/unoerp/backend/internal/domain/shared"
	"gorm.io/gorm"
)

func TestGormTransactionRepository_Create(t *testing.T) {
	t.Run("assigns the next ordinal under the document lock", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()
		repo := NewGormTransactionRepository(db)

		docID := uuid.New()
		transaction, err := finance.NewTransaction(docID, finance.TransactionModeCredit,
			decimal.NewFromInt(100), decimal.NewFromInt(1))
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "id" FROM "documents" WHERE id = \$1 ORDER BY .* FOR UPDATE`).
			WithArgs(docID, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(docID))
		mock.ExpectQuery(`SELECT COALESCE\(MAX\(number\), 0\) FROM "transactions" WHERE document_id = \$1`).
			WithArgs(docID).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(6))
		mock.ExpectExec(`INSERT INTO "transactions"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = repo.Create(context.Background(), transaction)

		require.NoError(t, err)
		assert.Equal(t, int64(7), transaction.Number)
		assert.Equal(t, "P00000000000007", transaction.Reference())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound when the document is missing", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()
		repo := NewGormTransactionRepository(db)

		docID := uuid.New()
		transaction, err := finance.NewTransaction(docID, finance.TransactionModeCredit,
			decimal.NewFromInt(100), decimal.NewFromInt(1))
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "id" FROM "documents" WHERE id = \$1 ORDER BY .* FOR UPDATE`).
			WithArgs(docID, 1).
			WillReturnError(gorm.ErrRecordNotFound)
		mock.ExpectRollback()

		err = repo.Create(context.Background(), transaction)

		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTransactionRepository_FindByDocument(t *testing.T) {
	t.Run("lists transactions ordered by number", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()
		repo := NewGormTransactionRepository(db)

		docID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "document_id", "number", "mode", "entry_amount", "currency_rate", "amount"}).
			AddRow(uuid.New(), docID, 1, "credit", "100", "1", "100").
			AddRow(uuid.New(), docID, 2, "debit", "30", "1", "30")

		mock.ExpectQuery(`SELECT \* FROM "transactions" WHERE document_id = \$1 ORDER BY number`).
			WithArgs(docID).
			WillReturnRows(rows)

		transactions, err := repo.FindByDocument(context.Background(), docID)

		require.NoError(t, err)
		require.Len(t, transactions, 2)
		assert.Equal(t, finance.TransactionModeCredit, transactions[0].Mode)
		assert.Equal(t, finance.TransactionModeDebit, transactions[1].Mode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTransactionRepository_SumByMode(t *testing.T) {
	t.Run("totals one mode for a document", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()
		repo := NewGormTransactionRepository(db)

		docID := uuid.New()

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "transactions" WHERE document_id = \$1 AND mode = \$2`).
			WithArgs(docID, finance.TransactionModeCredit).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("150.00"))

		sum, err := repo.SumByMode(context.Background(), docID, finance.TransactionModeCredit)

		require.NoError(t, err)
		assert.True(t, sum.Equal(decimal.NewFromInt(150)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("yields zero for a document without transactions", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()
		repo := NewGormTransactionRepository(db)

		docID := uuid.New()

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "transactions" WHERE document_id = \$1 AND mode = \$2`).
			WithArgs(docID, finance.TransactionModeDebit).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("0"))

		sum, err := repo.SumByMode(context.Background(), docID, finance.TransactionModeDebit)

		require.NoError(t, err)
		assert.True(t, sum.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTransactionRepository_InterfaceCompliance(t *testing.T) {
	db, _, mockDB := setupMockDB(t)
	defer mockDB.Close()

	var _ finance.TransactionRepository = NewGormTransactionRepository(db)
}
