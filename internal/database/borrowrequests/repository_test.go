package borrowrequests

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openshelf/openshelf/internal/entities"
)

func setupTestDB(t *testing.T) (*gorm.DB, *Repository, func()) {
	dbPath := "./test_borrowrequests_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Book{},
		&entities.BorrowRequest{},
		&entities.BorrowRequestItem{},
		&entities.BorrowRequestTransition{},
	)
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}
	return db, repo, cleanup
}

func createUser(t *testing.T, db *gorm.DB, email string) *entities.User {
	t.Helper()
	user := &entities.User{Name: "Reader", Email: email}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createBook(t *testing.T, db *gorm.DB, title string) *entities.Book {
	t.Helper()
	book := &entities.Book{Title: title, TotalQuantity: 5, AvailableQuantity: 5}
	require.NoError(t, db.Create(book).Error)
	return book
}

func futureWindow() (time.Time, time.Time) {
	start := time.Now().AddDate(0, 0, 7).Truncate(24 * time.Hour)
	return start, start.AddDate(0, 0, 14)
}

func TestCreate(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createUser(t, db, "reader@example.com")
	book := createBook(t, db, "Checkout Me")
	start, end := futureWindow()

	t.Run("creates a pending request with items and reference", func(t *testing.T) {
		request, err := repo.Create(user.ID, start, end, []ItemInput{{BookID: book.ID, Quantity: 2}})
		require.NoError(t, err)

		assert.Equal(t, entities.StatusPending, request.Status)
		assert.NotEmpty(t, request.Reference)
		assert.False(t, request.RequestDate.IsZero())
		require.Len(t, request.Items, 1)
		assert.Equal(t, 2, request.Items[0].Quantity)
		assert.Equal(t, "Checkout Me", request.Items[0].Book.Title)
	})

	t.Run("refuses an empty cart", func(t *testing.T) {
		_, err := repo.Create(user.ID, start, end, nil)
		assert.Error(t, err)
	})

	t.Run("refuses an inverted window", func(t *testing.T) {
		_, err := repo.Create(user.ID, end, start, []ItemInput{{BookID: book.ID, Quantity: 1}})
		var verr *entities.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestGetForUser(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	owner := createUser(t, db, "owner@example.com")
	other := createUser(t, db, "other@example.com")
	book := createBook(t, db, "Private")
	start, end := futureWindow()

	request, err := repo.Create(owner.ID, start, end, []ItemInput{{BookID: book.ID, Quantity: 1}})
	require.NoError(t, err)

	_, err = repo.GetForUser(request.ID, owner.ID)
	assert.NoError(t, err)

	// Another user's request looks like it does not exist
	_, err = repo.GetForUser(request.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFilters(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")
	book := createBook(t, db, "Popular")
	start, end := futureWindow()

	first, err := repo.Create(alice.ID, start, end, []ItemInput{{BookID: book.ID, Quantity: 1}})
	require.NoError(t, err)
	_, err = repo.Create(alice.ID, start, end, []ItemInput{{BookID: book.ID, Quantity: 1}})
	require.NoError(t, err)
	_, err = repo.Create(bob.ID, start, end, []ItemInput{{BookID: book.ID, Quantity: 1}})
	require.NoError(t, err)

	require.NoError(t, repo.Cancel(first.ID, alice.ID))

	t.Run("filters by user", func(t *testing.T) {
		requests, total, err := repo.List(ListFilters{UserID: alice.ID})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, requests, 2)
	})

	t.Run("filters by status", func(t *testing.T) {
		cancelled := entities.StatusCancelled
		requests, total, err := repo.List(ListFilters{Status: &cancelled})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, requests, 1)
		assert.Equal(t, first.ID, requests[0].ID)
	})

	t.Run("filters by request date range", func(t *testing.T) {
		tomorrow := time.Now().AddDate(0, 0, 1)
		_, total, err := repo.List(ListFilters{RequestDateFrom: &tomorrow})
		require.NoError(t, err)
		assert.Zero(t, total)

		yesterday := time.Now().AddDate(0, 0, -1)
		_, total, err = repo.List(ListFilters{RequestDateFrom: &yesterday})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
	})

	t.Run("paginates", func(t *testing.T) {
		requests, total, err := repo.List(ListFilters{Limit: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Len(t, requests, 2)
	})
}

func TestReplaceItems(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createUser(t, db, "editor@example.com")
	first := createBook(t, db, "First Pick")
	second := createBook(t, db, "Second Pick")
	start, end := futureWindow()

	request, err := repo.Create(user.ID, start, end, []ItemInput{{BookID: first.ID, Quantity: 1}})
	require.NoError(t, err)

	t.Run("swaps items on a pending request", func(t *testing.T) {
		updated, err := repo.ReplaceItems(request.ID, user.ID, []ItemInput{
			{BookID: second.ID, Quantity: 3},
		})
		require.NoError(t, err)

		require.Len(t, updated.Items, 1)
		assert.Equal(t, second.ID, updated.Items[0].BookID)
		assert.Equal(t, 3, updated.Items[0].Quantity)
		assert.Equal(t, entities.StatusPending, updated.Status)
	})

	t.Run("resets need_update back to pending and clears the reasons", func(t *testing.T) {
		err := db.Model(&entities.BorrowRequest{}).
			Session(&gorm.Session{SkipHooks: true}).
			Where("id = ?", request.ID).
			Updates(map[string]any{
				"status":             entities.StatusNeedUpdate,
				"need_update_reason": entities.StringList{"Book 'First Pick' only has 0 left (requested 1)"},
			}).Error
		require.NoError(t, err)

		updated, err := repo.ReplaceItems(request.ID, user.ID, []ItemInput{
			{BookID: second.ID, Quantity: 1},
		})
		require.NoError(t, err)
		assert.Equal(t, entities.StatusPending, updated.Status)
		assert.Empty(t, updated.NeedUpdateReason)
	})

	t.Run("refuses once the request left review", func(t *testing.T) {
		err := db.Model(&entities.BorrowRequest{}).
			Session(&gorm.Session{SkipHooks: true}).
			Where("id = ?", request.ID).
			Update("status", entities.StatusRejected).Error
		require.NoError(t, err)

		_, err = repo.ReplaceItems(request.ID, user.ID, []ItemInput{{BookID: first.ID, Quantity: 1}})
		assert.ErrorIs(t, err, ErrNotPending)
	})
}

func TestCancel(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createUser(t, db, "canceller@example.com")
	book := createBook(t, db, "Cancellable")
	start, end := futureWindow()

	t.Run("cancels a pending request", func(t *testing.T) {
		request, err := repo.Create(user.ID, start, end, []ItemInput{{BookID: book.ID, Quantity: 1}})
		require.NoError(t, err)

		require.NoError(t, repo.Cancel(request.ID, user.ID))

		after, err := repo.GetByID(request.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.StatusCancelled, after.Status)
	})

	t.Run("refuses a non-pending request", func(t *testing.T) {
		request, err := repo.Create(user.ID, start, end, []ItemInput{{BookID: book.ID, Quantity: 1}})
		require.NoError(t, err)

		err = db.Model(&entities.BorrowRequest{}).
			Session(&gorm.Session{SkipHooks: true}).
			Where("id = ?", request.ID).
			Update("status", entities.StatusApproved).Error
		require.NoError(t, err)

		assert.ErrorIs(t, repo.Cancel(request.ID, user.ID), ErrNotPending)
	})

	t.Run("unknown request", func(t *testing.T) {
		assert.ErrorIs(t, repo.Cancel(9999, user.ID), ErrNotFound)
	})
}

func TestMarkOverdueAndExpired(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createUser(t, db, "scanned@example.com")
	book := createBook(t, db, "Scanned")
	today := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	// Raw inserts so the fixtures can sit in past windows. SkipHooks also
	// skips the reference hook, so set it explicitly.
	seed := func(status entities.Status, start, end time.Time) uint {
		request := entities.BorrowRequest{
			Reference:   uuid.NewString(),
			UserID:      user.ID,
			RequestDate: start.AddDate(0, 0, -10),
			StartDate:   start,
			EndDate:     end,
			Items:       []entities.BorrowRequestItem{{BookID: book.ID, Quantity: 1}},
		}
		require.NoError(t, db.Session(&gorm.Session{SkipHooks: true}).Create(&request).Error)
		require.NoError(t, db.Model(&entities.BorrowRequest{}).
			Session(&gorm.Session{SkipHooks: true}).
			Where("id = ?", request.ID).
			Update("status", status).Error)
		return request.ID
	}

	statusOf := func(id uint) entities.Status {
		var request entities.BorrowRequest
		require.NoError(t, db.First(&request, id).Error)
		return request.Status
	}

	t.Run("overdue scan", func(t *testing.T) {
		pastDue := seed(entities.StatusBorrowed, today.AddDate(0, 0, -20), today.AddDate(0, 0, -1))
		dueToday := seed(entities.StatusBorrowed, today.AddDate(0, 0, -20), today)
		pending := seed(entities.StatusPending, today.AddDate(0, 0, -20), today.AddDate(0, 0, -1))

		count, err := repo.MarkOverdue(today)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)

		assert.Equal(t, entities.StatusOverdue, statusOf(pastDue))
		// Due today is not yet overdue; non-borrowed requests are untouched
		assert.Equal(t, entities.StatusBorrowed, statusOf(dueToday))
		assert.Equal(t, entities.StatusPending, statusOf(pending))
	})

	t.Run("expired scan", func(t *testing.T) {
		missed := seed(entities.StatusPending, today.AddDate(0, 0, -1), today.AddDate(0, 0, 5))
		startsToday := seed(entities.StatusPending, today, today.AddDate(0, 0, 5))
		approved := seed(entities.StatusApproved, today.AddDate(0, 0, -1), today.AddDate(0, 0, 5))

		count, err := repo.MarkExpired(today)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)

		assert.Equal(t, entities.StatusExpired, statusOf(missed))
		assert.Equal(t, entities.StatusPending, statusOf(startsToday))
		assert.Equal(t, entities.StatusApproved, statusOf(approved))
	})
}

func TestTransitions(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createUser(t, db, "logged@example.com")
	book := createBook(t, db, "Logged")
	start, end := futureWindow()

	request, err := repo.Create(user.ID, start, end, []ItemInput{{BookID: book.ID, Quantity: 1}})
	require.NoError(t, err)

	adminID := uint(4)
	rows := []entities.BorrowRequestTransition{
		{BorrowRequestID: request.ID, FromStatus: entities.StatusPending, ToStatus: entities.StatusApproved, AdminID: &adminID},
		{BorrowRequestID: request.ID, FromStatus: entities.StatusApproved, ToStatus: entities.StatusBorrowed, AdminID: &adminID},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}

	log, err := repo.Transitions(request.ID)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, entities.StatusApproved, log[0].ToStatus)
	assert.Equal(t, entities.StatusBorrowed, log[1].ToStatus)
}
