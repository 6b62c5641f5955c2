package services

import (
	"context"
	"testing"
	"time"

	"github.com/openshelf/library-server-go/pkg/apierrors"
	"github.com/openshelf/library-server-go/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedBook(t *testing.T, db *gorm.DB, bookID string, total, available int) *models.Book {
	book := models.Book{
		BookID:          bookID,
		Title:           "The Go Programming Language",
		Author:          "Donovan & Kernighan",
		TotalCopies:     total,
		AvailableCopies: available,
		Status:          models.BookStatusAvailable,
	}
	if available == 0 {
		book.Status = models.BookStatusBorrowed
	}
	require.NoError(t, db.Create(&book).Error)
	return &book
}

func seedMember(t *testing.T, db *gorm.DB, memberID string) *models.Member {
	member := models.Member{
		MemberID: memberID,
		Name:     "Test Member",
		Email:    memberID + "@example.com",
		Status:   models.MemberStatusActive,
	}
	require.NoError(t, db.Create(&member).Error)
	return &member
}

// fixedClock pins the service clock so fine accrual is deterministic
func fixedClock(s *CirculationService, at time.Time) {
	s.now = func() time.Time { return at }
}

func TestCirculationService_Checkout(t *testing.T) {
	ctx := context.Background()

	t.Run("Checkout_Success", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewCirculationService(db)
		seedBook(t, db, "book_1", 3, 3)
		seedMember(t, db, "LIB-2026-0001")

		txn, err := service.Checkout(ctx, "LIB-2026-0001", "book_1", 0, models.ChannelStaff)

		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusBorrowed, txn.Status)
		assert.Equal(t, models.ChannelStaff, txn.Channel)
		assert.Equal(t, txn.CheckoutDate.AddDate(0, 0, models.DefaultLoanPeriodDays), txn.DueDate)

		var book models.Book
		require.NoError(t, db.First(&book, "book_id = ?", "book_1").Error)
		assert.Equal(t, 2, book.AvailableCopies)
		assert.Equal(t, models.BookStatusAvailable, book.Status)
	})

	t.Run("Checkout_LastCopyMarksBookBorrowed", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewCirculationService(db)
		seedBook(t, db, "book_1", 1, 1)
		seedMember(t, db, "LIB-2026-0001")

		_, err := service.Checkout(ctx, "LIB-2026-0001", "book_1", 7, models.ChannelMember)
		require.NoError(t, err)

		var book models.Book
		require.NoError(t, db.First(&book, "book_id = ?", "book_1").Error)
		assert.Equal(t, 0, book.AvailableCopies)
		assert.Equal(t, models.BookStatusBorrowed, book.Status)
	})

	t.Run("Checkout_NoCopiesAvailable", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewCirculationService(db)
		seedBook(t, db, "book_1", 2, 0)
		seedMember(t, db, "LIB-2026-0001")

		_, err := service.Checkout(ctx, "LIB-2026-0001", "book_1", 0, models.ChannelStaff)

		require.Error(t, err)
		apiErr, ok := apierrors.AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, apierrors.ErrorTypeAdmissionDenied, apiErr.Type)

		// The count must never go negative
		var book models.Book
		require.NoError(t, db.First(&book, "book_id = ?", "book_1").Error)
		assert.Equal(t, 0, book.AvailableCopies)

		// No transaction row is left behind
		var count int64
		db.Model(&models.LoanTransaction{}).Count(&count)
		assert.Equal(t, int64(0), count)
	})

	t.Run("Checkout_BookNotFound", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewCirculationService(db)
		seedMember(t, db, "LIB-2026-0001")

		_, err := service.Checkout(ctx, "LIB-2026-0001", "book_missing", 0, models.ChannelStaff)

		require.Error(t, err)
		apiErr, ok := apierrors.AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, apierrors.ErrorTypeNotFound, apiErr.Type)
	})

	t.Run("Checkout_MemberNotFound", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewCirculationService(db)
		seedBook(t, db, "book_1", 1, 1)

		_, err := service.Checkout(ctx, "LIB-2026-9999", "book_1", 0, models.ChannelStaff)

		require.Error(t, err)
		apiErr, ok := apierrors.AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, apierrors.ErrorTypeNotFound, apiErr.Type)
	})
}

func TestCirculationService_Return(t *testing.T) {
	ctx := context.Background()

	t.Run("Return_Success", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewCirculationService(db)
		seedBook(t, db, "book_1", 1, 1)
		seedMember(t, db, "LIB-2026-0001")

		txn, err := service.Checkout(ctx, "LIB-2026-0001", "book_1", 0, models.ChannelStaff)
		require.NoError(t, err)

		returned, err := service.Return(ctx, txn.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusReturned, returned.Status)
		require.NotNil(t, returned.ReturnDate)
		assert.Equal(t, int64(0), returned.FineAmount)

		var book models.Book
		require.NoError(t, db.First(&book, "book_id = ?", "book_1").Error)
		assert.Equal(t, 1, book.AvailableCopies)
		assert.Equal(t, models.BookStatusAvailable, book.Status)
	})

	t.Run("Return_AlreadyReturned", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewCirculationService(db)
		seedBook(t, db, "book_1", 1, 1)
		seedMember(t, db, "LIB-2026-0001")

		txn, err := service.Checkout(ctx, "LIB-2026-0001", "book_1", 0, models.ChannelStaff)
		require.NoError(t, err)

		_, err = service.Return(ctx, txn.TransactionID)
		require.NoError(t, err)

		_, err = service.Return(ctx, txn.TransactionID)
		require.Error(t, err)
		apiErr, ok := apierrors.AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, apierrors.ErrorTypePreconditionFailed, apiErr.Type)

		// The second attempt must not increment availability again
		var book models.Book
		require.NoError(t, db.First(&book, "book_id = ?", "book_1").Error)
		assert.Equal(t, 1, book.AvailableCopies)
	})

	t.Run("Return_LateSettlesFine", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewCirculationService(db)
		seedBook(t, db, "book_1", 1, 1)
		seedMember(t, db, "LIB-2026-0001")

		checkoutAt := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
		fixedClock(service, checkoutAt)
		txn, err := service.Checkout(ctx, "LIB-2026-0001", "book_1", 14, models.ChannelStaff)
		require.NoError(t, err)

		// 5 full days past due at 200 per day
		fixedClock(service, checkoutAt.AddDate(0, 0, 19))
		returned, err := service.Return(ctx, txn.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, int64(5*models.DefaultFineRatePerDay), returned.FineAmount)

		// A later recalculation uses the return date, not the clock
		fixedClock(service, checkoutAt.AddDate(0, 0, 40))
		fine, err := service.CalculateFine(ctx, txn.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, int64(5*models.DefaultFineRatePerDay), fine.FineAmount)
	})

	t.Run("Return_NotFound", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewCirculationService(db)

		_, err := service.Return(ctx, "txn_missing")
		require.Error(t, err)
		apiErr, ok := apierrors.AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, apierrors.ErrorTypeNotFound, apiErr.Type)
	})
}

func TestCirculationService_CalculateFine(t *testing.T) {
	ctx := context.Background()

	t.Run("CalculateFine_NotOverdue", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewCirculationService(db)
		seedBook(t, db, "book_1", 1, 1)
		seedMember(t, db, "LIB-2026-0001")

		checkoutAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		fixedClock(service, checkoutAt)
		txn, err := service.Checkout(ctx, "LIB-2026-0001", "book_1", 14, models.ChannelStaff)
		require.NoError(t, err)

		fixedClock(service, checkoutAt.AddDate(0, 0, 10))
		fine, err := service.CalculateFine(ctx, txn.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), fine.FineAmount)
	})

	t.Run("CalculateFine_AccruesWhileOpen", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewCirculationService(db)
		seedBook(t, db, "book_1", 1, 1)
		seedMember(t, db, "LIB-2026-0001")

		checkoutAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		fixedClock(service, checkoutAt)
		txn, err := service.Checkout(ctx, "LIB-2026-0001", "book_1", 14, models.ChannelStaff)
		require.NoError(t, err)

		// 3 days past due
		fixedClock(service, checkoutAt.AddDate(0, 0, 17))
		fine, err := service.CalculateFine(ctx, txn.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, int64(3*models.DefaultFineRatePerDay), fine.FineAmount)

		// Two more days, the stored amount moves with the clock
		fixedClock(service, checkoutAt.AddDate(0, 0, 19))
		fine, err = service.CalculateFine(ctx, txn.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, int64(5*models.DefaultFineRatePerDay), fine.FineAmount)

		var stored models.LoanTransaction
		require.NoError(t, db.First(&stored, "transaction_id = ?", txn.TransactionID).Error)
		assert.Equal(t, int64(5*models.DefaultFineRatePerDay), stored.FineAmount)
	})

	t.Run("CalculateFine_FrozenOncePaid", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewCirculationService(db)
		seedBook(t, db, "book_1", 1, 1)
		seedMember(t, db, "LIB-2026-0001")

		checkoutAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		fixedClock(service, checkoutAt)
		txn, err := service.Checkout(ctx, "LIB-2026-0001", "book_1", 14, models.ChannelStaff)
		require.NoError(t, err)

		fixedClock(service, checkoutAt.AddDate(0, 0, 17))
		fine, err := service.CalculateFine(ctx, txn.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, int64(3*models.DefaultFineRatePerDay), fine.FineAmount)

		paid, err := service.MarkFinePaid(ctx, txn.TransactionID)
		require.NoError(t, err)
		assert.True(t, paid.FinePaid)

		// The clock keeps moving but the settled amount does not
		fixedClock(service, checkoutAt.AddDate(0, 0, 30))
		fine, err = service.CalculateFine(ctx, txn.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, int64(3*models.DefaultFineRatePerDay), fine.FineAmount)
		assert.True(t, fine.FinePaid)
	})
}

func TestCirculationService_MarkFinePaid(t *testing.T) {
	ctx := context.Background()

	t.Run("MarkFinePaid_Success", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewCirculationService(db)
		seedBook(t, db, "book_1", 1, 1)
		seedMember(t, db, "LIB-2026-0001")

		txn, err := service.Checkout(ctx, "LIB-2026-0001", "book_1", 0, models.ChannelStaff)
		require.NoError(t, err)

		fine, err := service.MarkFinePaid(ctx, txn.TransactionID)
		require.NoError(t, err)
		assert.True(t, fine.FinePaid)

		// Idempotent on repeat
		fine, err = service.MarkFinePaid(ctx, txn.TransactionID)
		require.NoError(t, err)
		assert.True(t, fine.FinePaid)
	})

	t.Run("MarkFinePaid_NotFound", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewCirculationService(db)

		_, err := service.MarkFinePaid(ctx, "txn_missing")
		require.Error(t, err)
		apiErr, ok := apierrors.AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, apierrors.ErrorTypeNotFound, apiErr.Type)
	})
}

func TestCirculationService_Renew(t *testing.T) {
	ctx := context.Background()

	t.Run("Renew_ExtendsDueDate", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewCirculationService(db)
		seedBook(t, db, "book_1", 1, 1)
		seedMember(t, db, "LIB-2026-0001")

		txn, err := service.Checkout(ctx, "LIB-2026-0001", "book_1", 14, models.ChannelStaff)
		require.NoError(t, err)

		resp, err := service.Renew(ctx, txn.TransactionID, 7)
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.True(t, resp.NewDueDate.Equal(txn.DueDate.AddDate(0, 0, 7)),
			"expected due date %v, got %v", txn.DueDate.AddDate(0, 0, 7), resp.NewDueDate)
	})

	t.Run("Renew_ClearsOverdueStatus", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewCirculationService(db)
		seedBook(t, db, "book_1", 1, 1)
		seedMember(t, db, "LIB-2026-0001")

		txn, err := service.Checkout(ctx, "LIB-2026-0001", "book_1", 14, models.ChannelStaff)
		require.NoError(t, err)
		require.NoError(t, db.Model(&models.LoanTransaction{}).
			Where("transaction_id = ?", txn.TransactionID).
			Update("status", models.TransactionStatusOverdue).Error)

		_, err = service.Renew(ctx, txn.TransactionID, 0)
		require.NoError(t, err)

		var stored models.LoanTransaction
		require.NoError(t, db.First(&stored, "transaction_id = ?", txn.TransactionID).Error)
		assert.Equal(t, models.TransactionStatusBorrowed, stored.Status)
	})

	t.Run("Renew_ReturnedTransaction", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewCirculationService(db)
		seedBook(t, db, "book_1", 1, 1)
		seedMember(t, db, "LIB-2026-0001")

		txn, err := service.Checkout(ctx, "LIB-2026-0001", "book_1", 0, models.ChannelStaff)
		require.NoError(t, err)
		_, err = service.Return(ctx, txn.TransactionID)
		require.NoError(t, err)

		_, err = service.Renew(ctx, txn.TransactionID, 0)
		require.Error(t, err)
		apiErr, ok := apierrors.AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, apierrors.ErrorTypePreconditionFailed, apiErr.Type)
	})

	t.Run("Renew_BlockedByUnpaidFineOnOtherLoan", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewCirculationService(db)
		seedBook(t, db, "book_1", 1, 1)
		seedBook(t, db, "book_2", 1, 1)
		seedMember(t, db, "LIB-2026-0001")

		checkoutAt := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
		fixedClock(service, checkoutAt)

		late, err := service.Checkout(ctx, "LIB-2026-0001", "book_1", 14, models.ChannelStaff)
		require.NoError(t, err)
		current, err := service.Checkout(ctx, "LIB-2026-0001", "book_2", 60, models.ChannelStaff)
		require.NoError(t, err)

		// The first loan goes 2 days overdue and accrues a fine
		fixedClock(service, checkoutAt.AddDate(0, 0, 16))
		fine, err := service.CalculateFine(ctx, late.TransactionID)
		require.NoError(t, err)
		require.Equal(t, int64(2*models.DefaultFineRatePerDay), fine.FineAmount)

		// Renewal of a different, on-time loan is still blocked
		_, err = service.Renew(ctx, current.TransactionID, 0)
		require.Error(t, err)
		apiErr, ok := apierrors.AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, apierrors.ErrorTypeAdmissionDenied, apiErr.Type)

		// Paying the fine unblocks renewal
		_, err = service.MarkFinePaid(ctx, late.TransactionID)
		require.NoError(t, err)
		resp, err := service.Renew(ctx, current.TransactionID, 0)
		require.NoError(t, err)
		assert.True(t, resp.Success)
	})
}

func TestCirculationService_GetMemberTransactions(t *testing.T) {
	ctx := context.Background()

	t.Run("GetMemberTransactions_Success", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewCirculationService(db)
		seedBook(t, db, "book_1", 2, 2)
		seedMember(t, db, "LIB-2026-0001")
		seedMember(t, db, "LIB-2026-0002")

		_, err := service.Checkout(ctx, "LIB-2026-0001", "book_1", 0, models.ChannelStaff)
		require.NoError(t, err)
		_, err = service.Checkout(ctx, "LIB-2026-0002", "book_1", 0, models.ChannelMember)
		require.NoError(t, err)

		txns, err := service.GetMemberTransactions("LIB-2026-0001")
		require.NoError(t, err)
		assert.Len(t, txns, 1)
		assert.Equal(t, "LIB-2026-0001", txns[0].MemberID)
	})

	t.Run("GetMemberTransactions_MemberNotFound", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewCirculationService(db)

		_, err := service.GetMemberTransactions("LIB-2026-9999")
		require.Error(t, err)
		apiErr, ok := apierrors.AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, apierrors.ErrorTypeNotFound, apiErr.Type)
	})
}
