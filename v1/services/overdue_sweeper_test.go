package services

import (
	"context"
	"testing"
	"time"

	"github.com/openshelf/library-server-go/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverdueSweeper_RunSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("RunSweep_MarksPastDueLoans", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		circ := NewCirculationService(db)
		sweeper := NewOverdueSweeper(db, circ, "")
		seedBook(t, db, "book_1", 2, 2)
		seedMember(t, db, "LIB-2026-0001")

		checkoutAt := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
		fixedClock(circ, checkoutAt)

		late, err := circ.Checkout(ctx, "LIB-2026-0001", "book_1", 7, models.ChannelStaff)
		require.NoError(t, err)
		onTime, err := circ.Checkout(ctx, "LIB-2026-0001", "book_1", 30, models.ChannelStaff)
		require.NoError(t, err)

		// 10 days later: the 7-day loan is 3 days overdue
		fixedClock(circ, checkoutAt.AddDate(0, 0, 10))
		marked, err := sweeper.RunSweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), marked)

		var stored models.LoanTransaction
		require.NoError(t, db.First(&stored, "transaction_id = ?", late.TransactionID).Error)
		assert.Equal(t, models.TransactionStatusOverdue, stored.Status)
		assert.Equal(t, int64(3*models.DefaultFineRatePerDay), stored.FineAmount)

		var storedOnTime models.LoanTransaction
		require.NoError(t, db.First(&storedOnTime, "transaction_id = ?", onTime.TransactionID).Error)
		assert.Equal(t, models.TransactionStatusBorrowed, storedOnTime.Status)
		assert.Equal(t, int64(0), storedOnTime.FineAmount)
	})

	t.Run("RunSweep_AlreadyOverdueNotRecounted", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		circ := NewCirculationService(db)
		sweeper := NewOverdueSweeper(db, circ, "")
		seedBook(t, db, "book_1", 1, 1)
		seedMember(t, db, "LIB-2026-0001")

		checkoutAt := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
		fixedClock(circ, checkoutAt)
		txn, err := circ.Checkout(ctx, "LIB-2026-0001", "book_1", 7, models.ChannelStaff)
		require.NoError(t, err)

		fixedClock(circ, checkoutAt.AddDate(0, 0, 10))
		marked, err := sweeper.RunSweep(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(1), marked)

		// The next sweep marks nothing new but keeps the fine current
		fixedClock(circ, checkoutAt.AddDate(0, 0, 12))
		marked, err = sweeper.RunSweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), marked)

		var stored models.LoanTransaction
		require.NoError(t, db.First(&stored, "transaction_id = ?", txn.TransactionID).Error)
		assert.Equal(t, int64(5*models.DefaultFineRatePerDay), stored.FineAmount)
	})

	t.Run("RunSweep_SkipsPaidFines", func(t *testing.T) {
		db := SetupSQLiteTestDB(t)
		circ := NewCirculationService(db)
		sweeper := NewOverdueSweeper(db, circ, "")
		seedBook(t, db, "book_1", 1, 1)
		seedMember(t, db, "LIB-2026-0001")

		checkoutAt := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
		fixedClock(circ, checkoutAt)
		txn, err := circ.Checkout(ctx, "LIB-2026-0001", "book_1", 7, models.ChannelStaff)
		require.NoError(t, err)

		fixedClock(circ, checkoutAt.AddDate(0, 0, 10))
		_, err = sweeper.RunSweep(ctx)
		require.NoError(t, err)

		_, err = circ.MarkFinePaid(ctx, txn.TransactionID)
		require.NoError(t, err)

		// Later sweeps leave the settled amount alone
		fixedClock(circ, checkoutAt.AddDate(0, 0, 20))
		_, err = sweeper.RunSweep(ctx)
		require.NoError(t, err)

		var stored models.LoanTransaction
		require.NoError(t, db.First(&stored, "transaction_id = ?", txn.TransactionID).Error)
		assert.Equal(t, int64(3*models.DefaultFineRatePerDay), stored.FineAmount)
		assert.True(t, stored.FinePaid)
	})
}
