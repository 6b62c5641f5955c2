package services

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/openshelf/library-server-go/pkg/apierrors"
	"github.com/openshelf/library-server-go/v1/models"
	"gorm.io/gorm"
)

// BookService handles catalog operations
type BookService struct {
	db *gorm.DB
}

// NewBookService creates a new book service
func NewBookService(db *gorm.DB) *BookService {
	return &BookService{db: db}
}

// CreateBook adds a book to the catalog. All copies start available.
func (s *BookService) CreateBook(req *models.CreateBookRequest) (*models.Book, error) {
	if req.Title == "" || req.Author == "" {
		return nil, apierrors.Validation("title and author are required")
	}
	if len(req.Title) > models.MaxTitleLength {
		return nil, apierrors.Validation("title exceeds maximum length")
	}
	if req.TotalCopies < 0 {
		return nil, apierrors.Validation("totalCopies cannot be negative")
	}

	book := models.Book{
		BookID:          "book_" + uuid.New().String(),
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		Publisher:       req.Publisher,
		Category:        req.Category,
		PublishedYear:   req.PublishedYear,
		TotalCopies:     req.TotalCopies,
		AvailableCopies: req.TotalCopies,
		Status:          models.BookStatusAvailable,
	}
	if book.TotalCopies == 0 {
		book.Status = models.BookStatusBorrowed
	}

	if err := s.db.Create(&book).Error; err != nil {
		return nil, apierrors.Database("create book", err)
	}

	slog.Info("Created book", "bookId", book.BookID, "title", book.Title)
	return &book, nil
}

// GetBook retrieves a book by ID
func (s *BookService) GetBook(bookID string) (*models.Book, error) {
	var book models.Book
	if err := s.db.First(&book, "book_id = ?", bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFound("book")
		}
		return nil, apierrors.Database("get book", err)
	}
	return &book, nil
}

// GetAllBooks retrieves the catalog
func (s *BookService) GetAllBooks() ([]models.Book, error) {
	var books []models.Book
	if err := s.db.Order("title").Find(&books).Error; err != nil {
		return nil, apierrors.Database("list books", err)
	}
	return books, nil
}

// UpdateBook edits a book; nil request fields are left unchanged.
// Shrinking TotalCopies clamps AvailableCopies back into range.
func (s *BookService) UpdateBook(bookID string, req *models.UpdateBookRequest) (*models.Book, error) {
	var book models.Book

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&book, "book_id = ?", bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierrors.NotFound("book")
			}
			return apierrors.Database("get book", err)
		}

		if req.Title != nil {
			book.Title = *req.Title
		}
		if req.Author != nil {
			book.Author = *req.Author
		}
		if req.ISBN != nil {
			book.ISBN = *req.ISBN
		}
		if req.Publisher != nil {
			book.Publisher = *req.Publisher
		}
		if req.Category != nil {
			book.Category = *req.Category
		}
		if req.PublishedYear != nil {
			book.PublishedYear = *req.PublishedYear
		}
		if req.TotalCopies != nil {
			if *req.TotalCopies < 0 {
				return apierrors.Validation("totalCopies cannot be negative")
			}
			book.TotalCopies = *req.TotalCopies
			if book.AvailableCopies > book.TotalCopies {
				book.AvailableCopies = book.TotalCopies
			}
		}
		if req.Status != nil {
			switch *req.Status {
			case models.BookStatusAvailable, models.BookStatusBorrowed,
				models.BookStatusDamaged, models.BookStatusLost:
				book.Status = *req.Status
			default:
				return apierrors.Validation("invalid book status")
			}
		}

		if err := tx.Save(&book).Error; err != nil {
			return apierrors.Database("update book", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &book, nil
}

// DeleteBook removes a book from the catalog. Books with open loans
// cannot be deleted.
func (s *BookService) DeleteBook(bookID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var book models.Book
		if err := tx.First(&book, "book_id = ?", bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierrors.NotFound("book")
			}
			return apierrors.Database("get book", err)
		}

		var openLoans int64
		err := tx.Model(&models.LoanTransaction{}).
			Where("book_id = ? AND status IN ?", bookID,
				[]models.TransactionStatus{models.TransactionStatusBorrowed, models.TransactionStatusOverdue}).
			Count(&openLoans).Error
		if err != nil {
			return apierrors.Database("count open loans", err)
		}
		if openLoans > 0 {
			return apierrors.PreconditionFailed("book has open loans")
		}

		if err := tx.Delete(&book).Error; err != nil {
			return apierrors.Database("delete book", err)
		}

		slog.Info("Deleted book", "bookId", bookID)
		return nil
	})
}
