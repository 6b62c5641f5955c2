package services

import (
	"testing"

	"github.com/openshelf/library-server-go/v1/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupSQLiteTestDB creates an in-memory SQLite database with the full
// schema migrated. Each call returns a fresh database, so tests do not
// need to clean up after themselves.
//
// Exported for use in handler tests
func SetupSQLiteTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Book{},
		&models.Member{},
		&models.LoanTransaction{},
		&models.StaffAccount{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CleanupTestData removes all rows between sub-tests that share a database
// Exported for use in handler tests
func CleanupTestData(t *testing.T, db *gorm.DB) {
	// Delete in reverse order of dependencies
	if err := db.Exec("DELETE FROM loan_transactions").Error; err != nil {
		t.Logf("Warning: failed to cleanup loan_transactions: %v", err)
	}
	if err := db.Exec("DELETE FROM staff_accounts").Error; err != nil {
		t.Logf("Warning: failed to cleanup staff_accounts: %v", err)
	}
	if err := db.Exec("DELETE FROM members").Error; err != nil {
		t.Logf("Warning: failed to cleanup members: %v", err)
	}
	if err := db.Exec("DELETE FROM books").Error; err != nil {
		t.Logf("Warning: failed to cleanup books: %v", err)
	}
}
