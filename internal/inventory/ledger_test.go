package inventory

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openshelf/openshelf/internal/entities"
)

func setupTestDB(t *testing.T) (*gorm.DB, *Ledger, func()) {
	dbPath := "./test_inventory_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Book{})
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, NewLedger(db), cleanup
}

func createBook(t *testing.T, db *gorm.DB, title string, available int) *entities.Book {
	t.Helper()
	book := &entities.Book{
		Title:             title,
		TotalQuantity:     available,
		AvailableQuantity: available,
	}
	require.NoError(t, db.Create(book).Error)
	return book
}

func reload(t *testing.T, db *gorm.DB, id uint) *entities.Book {
	t.Helper()
	var book entities.Book
	require.NoError(t, db.First(&book, id).Error)
	return &book
}

func TestSufficient(t *testing.T) {
	db, ledger, cleanup := setupTestDB(t)
	defer cleanup()

	book := createBook(t, db, "The Go Programming Language", 3)

	ok, err := ledger.Sufficient([]entities.BorrowRequestItem{{BookID: book.ID, Quantity: 3}})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.Sufficient([]entities.BorrowRequestItem{{BookID: book.ID, Quantity: 4}})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestShortfallMessages(t *testing.T) {
	db, ledger, cleanup := setupTestDB(t)
	defer cleanup()

	scarce := createBook(t, db, "Rare First Edition", 1)
	plenty := createBook(t, db, "Paperback Classic", 10)
	gone := createBook(t, db, "Lost Volume", 0)

	messages, err := ledger.ShortfallMessages([]entities.BorrowRequestItem{
		{BookID: scarce.ID, Quantity: 2},
		{BookID: plenty.ID, Quantity: 1},
		{BookID: gone.ID, Quantity: 1},
	})
	require.NoError(t, err)

	// One message per unsatisfiable item, in item order
	require.Len(t, messages, 2)
	assert.Equal(t, "Book 'Rare First Edition' only has 1 left (requested 2)", messages[0])
	assert.Equal(t, "Book 'Lost Volume' only has 0 left (requested 1)", messages[1])
}

func TestShortfallMessagesEmptyWhenSatisfiable(t *testing.T) {
	db, ledger, cleanup := setupTestDB(t)
	defer cleanup()

	book := createBook(t, db, "Common Title", 5)
	messages, err := ledger.ShortfallMessages([]entities.BorrowRequestItem{
		{BookID: book.ID, Quantity: 5},
	})
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestDecrement(t *testing.T) {
	db, ledger, cleanup := setupTestDB(t)
	defer cleanup()

	t.Run("takes stock and bumps borrow count", func(t *testing.T) {
		book := createBook(t, db, "Decrement Target", 5)

		err := ledger.Decrement([]entities.BorrowRequestItem{{BookID: book.ID, Quantity: 2}})
		require.NoError(t, err)

		after := reload(t, db, book.ID)
		assert.Equal(t, 3, after.AvailableQuantity)
		assert.Equal(t, 2, after.BorrowCount)
		assert.Equal(t, 5, after.TotalQuantity)
	})

	t.Run("fails without touching stock when quantity exceeds availability", func(t *testing.T) {
		book := createBook(t, db, "Guarded Target", 1)

		err := ledger.Decrement([]entities.BorrowRequestItem{{BookID: book.ID, Quantity: 2}})
		require.ErrorIs(t, err, ErrInsufficientStock)

		after := reload(t, db, book.ID)
		assert.Equal(t, 1, after.AvailableQuantity)
		assert.Equal(t, 0, after.BorrowCount)
	})

	t.Run("can take the last copy", func(t *testing.T) {
		book := createBook(t, db, "Last Copy", 1)

		err := ledger.Decrement([]entities.BorrowRequestItem{{BookID: book.ID, Quantity: 1}})
		require.NoError(t, err)
		assert.Equal(t, 0, reload(t, db, book.ID).AvailableQuantity)
	})
}

func TestIncrement(t *testing.T) {
	db, ledger, cleanup := setupTestDB(t)
	defer cleanup()

	book := createBook(t, db, "Round Trip", 4)
	items := []entities.BorrowRequestItem{{BookID: book.ID, Quantity: 3}}

	require.NoError(t, ledger.Decrement(items))
	require.NoError(t, ledger.Increment(items))

	after := reload(t, db, book.ID)
	assert.Equal(t, 4, after.AvailableQuantity)
	// BorrowCount is a lifetime counter and stays bumped after the return
	assert.Equal(t, 3, after.BorrowCount)
}

func TestLedgerWithTxRollback(t *testing.T) {
	db, ledger, cleanup := setupTestDB(t)
	defer cleanup()

	book := createBook(t, db, "Transactional", 2)

	err := db.Transaction(func(tx *gorm.DB) error {
		txLedger := ledger.WithTx(tx)
		if err := txLedger.Decrement([]entities.BorrowRequestItem{{BookID: book.ID, Quantity: 2}}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	// Rolled back with the failing transaction
	assert.Equal(t, 2, reload(t, db, book.ID).AvailableQuantity)
}
