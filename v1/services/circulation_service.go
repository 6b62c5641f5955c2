package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/library-server-go/monitoring"
	"github.com/openshelf/library-server-go/pkg/apierrors"
	"github.com/openshelf/library-server-go/v1/models"
	"gorm.io/gorm"
)

// CirculationService owns the loan state machine: checkout, return,
// renewal, and fine handling. Every mutation runs inside a database
// transaction; availability changes are guarded UPDATEs so two
// concurrent checkouts of the last copy cannot both succeed.
type CirculationService struct {
	db             *gorm.DB
	loanPeriodDays int
	fineRatePerDay int64

	// now is swapped out in tests to pin fine accrual
	now func() time.Time
}

// NewCirculationService creates a circulation service with the default
// loan period and fine rate.
func NewCirculationService(db *gorm.DB) *CirculationService {
	return &CirculationService{
		db:             db,
		loanPeriodDays: models.DefaultLoanPeriodDays,
		fineRatePerDay: models.DefaultFineRatePerDay,
		now:            time.Now,
	}
}

// NewCirculationServiceWithConfig creates a circulation service with
// explicit loan period and fine rate, falling back to defaults for
// non-positive values.
func NewCirculationServiceWithConfig(db *gorm.DB, loanPeriodDays int, fineRatePerDay int64) *CirculationService {
	s := NewCirculationService(db)
	if loanPeriodDays > 0 {
		s.loanPeriodDays = loanPeriodDays
	}
	if fineRatePerDay > 0 {
		s.fineRatePerDay = fineRatePerDay
	}
	return s
}

// Checkout creates a loan for a member against a book. The availability
// decrement only lands when a copy is on the shelf; losing the race for
// the last copy surfaces as an admission failure, never a negative count.
func (s *CirculationService) Checkout(ctx context.Context, memberID, bookID string, dueDays int, channel models.Channel) (*models.TransactionResponse, error) {
	if memberID == "" || bookID == "" {
		return nil, apierrors.Validation("memberId and bookId are required")
	}
	if dueDays <= 0 {
		dueDays = s.loanPeriodDays
	}

	var txn models.LoanTransaction

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var member models.Member
		if err := tx.First(&member, "member_id = ?", memberID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierrors.NotFound("member")
			}
			return apierrors.Database("get member", err)
		}

		var book models.Book
		if err := tx.First(&book, "book_id = ?", bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierrors.NotFound("book")
			}
			return apierrors.Database("get book", err)
		}

		result := tx.Model(&models.Book{}).
			Where("book_id = ? AND available_copies > 0", bookID).
			UpdateColumn("available_copies", gorm.Expr("available_copies - 1"))
		if result.Error != nil {
			return apierrors.Database("decrement availability", result.Error)
		}
		if result.RowsAffected == 0 {
			return apierrors.AdmissionDenied("no copies available")
		}

		if err := tx.First(&book, "book_id = ?", bookID).Error; err != nil {
			return apierrors.Database("reload book", err)
		}
		if book.AvailableCopies == 0 && book.Status == models.BookStatusAvailable {
			if err := tx.Model(&book).UpdateColumn("status", models.BookStatusBorrowed).Error; err != nil {
				return apierrors.Database("update book status", err)
			}
		}

		checkoutDate := s.now()
		txn = models.LoanTransaction{
			TransactionID: "txn_" + uuid.New().String(),
			BookID:        bookID,
			MemberID:      memberID,
			Channel:       channel,
			CheckoutDate:  checkoutDate,
			DueDate:       checkoutDate.AddDate(0, 0, dueDays),
			Status:        models.TransactionStatusBorrowed,
		}
		if err := tx.Create(&txn).Error; err != nil {
			return apierrors.Database("create transaction", err)
		}
		return nil
	})

	monitoring.RecordCirculationEvent(ctx, "checkout", err == nil)
	if err != nil {
		return nil, err
	}
	monitoring.LoansOutstandingAdd(ctx, 1)

	slog.Info("Checked out book", "transactionId", txn.TransactionID,
		"bookId", bookID, "memberId", memberID, "channel", channel)
	return models.NewTransactionResponse(&txn), nil
}

// Return closes a loan: sets the return date, restores the copy to the
// shelf, and settles the fine for the final overdue span. Returning an
// already-returned loan fails rather than incrementing twice.
func (s *CirculationService) Return(ctx context.Context, transactionID string) (*models.TransactionResponse, error) {
	var txn models.LoanTransaction

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&txn, "transaction_id = ?", transactionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierrors.NotFound("transaction")
			}
			return apierrors.Database("get transaction", err)
		}

		if txn.Status == models.TransactionStatusReturned || txn.ReturnDate != nil {
			return apierrors.PreconditionFailed("transaction already returned")
		}

		returnedAt := s.now()
		txn.ReturnDate = &returnedAt
		txn.Status = models.TransactionStatusReturned
		if !txn.FinePaid {
			txn.FineAmount = s.fineFor(&txn)
		}

		if err := tx.Save(&txn).Error; err != nil {
			return apierrors.Database("update transaction", err)
		}

		result := tx.Model(&models.Book{}).
			Where("book_id = ? AND available_copies < total_copies", txn.BookID).
			UpdateColumn("available_copies", gorm.Expr("available_copies + 1"))
		if result.Error != nil {
			return apierrors.Database("increment availability", result.Error)
		}

		var book models.Book
		if err := tx.First(&book, "book_id = ?", txn.BookID).Error; err != nil {
			return apierrors.Database("reload book", err)
		}
		if book.AvailableCopies > 0 && book.Status == models.BookStatusBorrowed {
			if err := tx.Model(&book).UpdateColumn("status", models.BookStatusAvailable).Error; err != nil {
				return apierrors.Database("update book status", err)
			}
		}
		return nil
	})

	monitoring.RecordCirculationEvent(ctx, "return", err == nil)
	if err != nil {
		return nil, err
	}
	monitoring.LoansOutstandingAdd(ctx, -1)

	slog.Info("Returned book", "transactionId", txn.TransactionID,
		"bookId", txn.BookID, "fineAmount", txn.FineAmount)
	return models.NewTransactionResponse(&txn), nil
}

// CalculateFine recomputes and persists the fine on a transaction. A
// paid fine is frozen: the stored amount comes back untouched no matter
// how much further the clock has moved.
func (s *CirculationService) CalculateFine(ctx context.Context, transactionID string) (*models.FineResponse, error) {
	var txn models.LoanTransaction

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&txn, "transaction_id = ?", transactionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierrors.NotFound("transaction")
			}
			return apierrors.Database("get transaction", err)
		}

		if txn.FinePaid {
			return nil
		}

		amount := s.fineFor(&txn)
		if amount != txn.FineAmount {
			if err := tx.Model(&txn).UpdateColumn("fine_amount", amount).Error; err != nil {
				return apierrors.Database("update fine", err)
			}
			txn.FineAmount = amount
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.FineResponse{
		TransactionID: txn.TransactionID,
		FineAmount:    txn.FineAmount,
		FinePaid:      txn.FinePaid,
	}, nil
}

// MarkFinePaid settles the fine on a transaction. The flag is one-way;
// once set, later recalculations leave the amount alone.
func (s *CirculationService) MarkFinePaid(ctx context.Context, transactionID string) (*models.FineResponse, error) {
	var txn models.LoanTransaction

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&txn, "transaction_id = ?", transactionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierrors.NotFound("transaction")
			}
			return apierrors.Database("get transaction", err)
		}

		if txn.FinePaid {
			return nil
		}

		if err := tx.Model(&txn).UpdateColumn("fine_paid", true).Error; err != nil {
			return apierrors.Database("update fine paid", err)
		}
		txn.FinePaid = true
		return nil
	})

	monitoring.RecordCirculationEvent(ctx, "pay_fine", err == nil)
	if err != nil {
		return nil, err
	}
	monitoring.RecordFineCollected(ctx, txn.FineAmount)

	slog.Info("Marked fine paid", "transactionId", txn.TransactionID, "fineAmount", txn.FineAmount)
	return &models.FineResponse{
		TransactionID: txn.TransactionID,
		FineAmount:    txn.FineAmount,
		FinePaid:      txn.FinePaid,
	}, nil
}

// Renew extends an open loan. A member holding any unpaid fine, on this
// loan or another, is not eligible. Renewal clears an overdue status but
// leaves already-accrued fines in place.
func (s *CirculationService) Renew(ctx context.Context, transactionID string, extendDays int) (*models.RenewResponse, error) {
	if extendDays <= 0 {
		extendDays = s.loanPeriodDays
	}

	var txn models.LoanTransaction

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&txn, "transaction_id = ?", transactionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierrors.NotFound("transaction")
			}
			return apierrors.Database("get transaction", err)
		}

		if txn.Status != models.TransactionStatusBorrowed && txn.Status != models.TransactionStatusOverdue {
			return apierrors.PreconditionFailed("only open loans can be renewed")
		}

		var unpaidFines int64
		err := tx.Model(&models.LoanTransaction{}).
			Where("member_id = ? AND fine_amount > 0 AND fine_paid = ?", txn.MemberID, false).
			Count(&unpaidFines).Error
		if err != nil {
			return apierrors.Database("count unpaid fines", err)
		}
		if unpaidFines > 0 {
			return apierrors.AdmissionDenied("member has unpaid fines")
		}

		txn.DueDate = txn.DueDate.AddDate(0, 0, extendDays)
		txn.Status = models.TransactionStatusBorrowed

		if err := tx.Save(&txn).Error; err != nil {
			return apierrors.Database("update transaction", err)
		}
		return nil
	})

	monitoring.RecordCirculationEvent(ctx, "renew", err == nil)
	if err != nil {
		return nil, err
	}

	slog.Info("Renewed loan", "transactionId", txn.TransactionID, "newDueDate", txn.DueDate)
	return &models.RenewResponse{
		Success:    true,
		Message:    "loan renewed",
		NewDueDate: txn.DueDate,
	}, nil
}

// GetTransaction retrieves a transaction by ID
func (s *CirculationService) GetTransaction(transactionID string) (*models.TransactionResponse, error) {
	var txn models.LoanTransaction
	if err := s.db.First(&txn, "transaction_id = ?", transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFound("transaction")
		}
		return nil, apierrors.Database("get transaction", err)
	}
	return models.NewTransactionResponse(&txn), nil
}

// GetAllTransactions retrieves all loan transactions, newest first
func (s *CirculationService) GetAllTransactions() ([]models.TransactionResponse, error) {
	var txns []models.LoanTransaction
	if err := s.db.Order("checkout_date DESC").Find(&txns).Error; err != nil {
		return nil, apierrors.Database("list transactions", err)
	}

	response := make([]models.TransactionResponse, len(txns))
	for i := range txns {
		response[i] = *models.NewTransactionResponse(&txns[i])
	}
	return response, nil
}

// GetMemberTransactions retrieves a member's loan history, newest first
func (s *CirculationService) GetMemberTransactions(memberID string) ([]models.TransactionResponse, error) {
	var member models.Member
	if err := s.db.First(&member, "member_id = ?", memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFound("member")
		}
		return nil, apierrors.Database("get member", err)
	}

	var txns []models.LoanTransaction
	if err := s.db.Where("member_id = ?", memberID).Order("checkout_date DESC").Find(&txns).Error; err != nil {
		return nil, apierrors.Database("list member transactions", err)
	}

	response := make([]models.TransactionResponse, len(txns))
	for i := range txns {
		response[i] = *models.NewTransactionResponse(&txns[i])
	}
	return response, nil
}

// fineFor computes the fine owed on a transaction. Closed loans accrue
// up to the return date, open loans up to the current clock. Partial
// days do not count.
func (s *CirculationService) fineFor(txn *models.LoanTransaction) int64 {
	var end time.Time
	switch {
	case txn.ReturnDate != nil:
		end = *txn.ReturnDate
	case txn.Status == models.TransactionStatusBorrowed || txn.Status == models.TransactionStatusOverdue:
		end = s.now()
	default:
		return 0
	}

	overdueDays := int64(end.Sub(txn.DueDate).Hours() / 24)
	if overdueDays < 0 {
		overdueDays = 0
	}
	return overdueDays * s.fineRatePerDay
}
