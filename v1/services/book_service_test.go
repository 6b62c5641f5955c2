package services

import (
	"context"
	"testing"

	"github.com/openshelf/library-server-go/pkg/apierrors"
	"github.com/openshelf/library-server-go/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookService_CreateBook(t *testing.T) {
	t.Run("CreateBook_Success", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewBookService(db)

		book, err := service.CreateBook(&models.CreateBookRequest{
			Title:       "Clean Architecture",
			Author:      "Robert C. Martin",
			ISBN:        "9780134494166",
			TotalCopies: 4,
		})

		require.NoError(t, err)
		assert.Equal(t, 4, book.TotalCopies)
		assert.Equal(t, 4, book.AvailableCopies)
		assert.Equal(t, models.BookStatusAvailable, book.Status)
	})

	t.Run("CreateBook_MissingTitle", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewBookService(db)

		_, err := service.CreateBook(&models.CreateBookRequest{Author: "Anonymous"})
		require.Error(t, err)
		apiErr, ok := apierrors.AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, apierrors.ErrorTypeValidation, apiErr.Type)
	})

	t.Run("CreateBook_NegativeCopies", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewBookService(db)

		_, err := service.CreateBook(&models.CreateBookRequest{
			Title:       "Bad Count",
			Author:      "Anonymous",
			TotalCopies: -1,
		})
		require.Error(t, err)
		apiErr, ok := apierrors.AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, apierrors.ErrorTypeValidation, apiErr.Type)
	})
}

func TestBookService_UpdateBook(t *testing.T) {
	t.Run("UpdateBook_ShrinkClampsAvailability", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewBookService(db)

		created, err := service.CreateBook(&models.CreateBookRequest{
			Title:       "Popular Title",
			Author:      "Author",
			TotalCopies: 5,
		})
		require.NoError(t, err)

		newTotal := 2
		updated, err := service.UpdateBook(created.BookID, &models.UpdateBookRequest{TotalCopies: &newTotal})
		require.NoError(t, err)
		assert.Equal(t, 2, updated.TotalCopies)
		assert.Equal(t, 2, updated.AvailableCopies)
	})

	t.Run("UpdateBook_ManualStatusOverride", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewBookService(db)

		created, err := service.CreateBook(&models.CreateBookRequest{
			Title:       "Fragile Title",
			Author:      "Author",
			TotalCopies: 1,
		})
		require.NoError(t, err)

		damaged := models.BookStatusDamaged
		updated, err := service.UpdateBook(created.BookID, &models.UpdateBookRequest{Status: &damaged})
		require.NoError(t, err)
		assert.Equal(t, models.BookStatusDamaged, updated.Status)
	})

	t.Run("UpdateBook_InvalidStatus", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewBookService(db)

		created, err := service.CreateBook(&models.CreateBookRequest{
			Title:       "Title",
			Author:      "Author",
			TotalCopies: 1,
		})
		require.NoError(t, err)

		bogus := models.BookStatus("burned")
		_, err = service.UpdateBook(created.BookID, &models.UpdateBookRequest{Status: &bogus})
		require.Error(t, err)
		apiErr, ok := apierrors.AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, apierrors.ErrorTypeValidation, apiErr.Type)
	})

	t.Run("UpdateBook_NotFound", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewBookService(db)

		title := "New Title"
		_, err := service.UpdateBook("book_missing", &models.UpdateBookRequest{Title: &title})
		require.Error(t, err)
		apiErr, ok := apierrors.AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, apierrors.ErrorTypeNotFound, apiErr.Type)
	})
}

func TestBookService_DeleteBook(t *testing.T) {
	t.Run("DeleteBook_Success", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewBookService(db)

		created, err := service.CreateBook(&models.CreateBookRequest{
			Title:       "Short Lived",
			Author:      "Author",
			TotalCopies: 1,
		})
		require.NoError(t, err)

		require.NoError(t, service.DeleteBook(created.BookID))

		_, err = service.GetBook(created.BookID)
		require.Error(t, err)
	})

	t.Run("DeleteBook_BlockedByOpenLoan", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		service := NewBookService(db)
		circ := NewCirculationService(db)

		created, err := service.CreateBook(&models.CreateBookRequest{
			Title:       "On Loan",
			Author:      "Author",
			TotalCopies: 1,
		})
		require.NoError(t, err)
		seedMember(t, db, "LIB-2026-0001")

		txn, err := circ.Checkout(context.Background(), "LIB-2026-0001", created.BookID, 0, models.ChannelStaff)
		require.NoError(t, err)

		err = service.DeleteBook(created.BookID)
		require.Error(t, err)
		apiErr, ok := apierrors.AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, apierrors.ErrorTypePreconditionFailed, apiErr.Type)

		// Returning the book clears the block
		_, err = circ.Return(context.Background(), txn.TransactionID)
		require.NoError(t, err)
		require.NoError(t, service.DeleteBook(created.BookID))
	})
}
