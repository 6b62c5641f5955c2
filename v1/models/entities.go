package models

import "time"

// Book represents the books table. TotalCopies is staff-set capacity;
// AvailableCopies is mutated only by checkout and return.
type Book struct {
	BookID          string     `gorm:"primarykey;column:book_id" json:"bookId"`
	Title           string     `gorm:"column:title;not null" json:"title"`
	Author          string     `gorm:"column:author;not null" json:"author"`
	ISBN            string     `gorm:"column:isbn" json:"isbn"`
	Publisher       string     `gorm:"column:publisher" json:"publisher"`
	Category        string     `gorm:"column:category" json:"category"`
	PublishedYear   int        `gorm:"column:published_year" json:"publishedYear"`
	TotalCopies     int        `gorm:"column:total_copies;not null" json:"totalCopies"`
	AvailableCopies int        `gorm:"column:available_copies;not null" json:"availableCopies"`
	Status          BookStatus `gorm:"column:status;not null;default:available" json:"status"`
	BaseModel
}

// TableName sets the table name for GORM
func (Book) TableName() string {
	return "books"
}

// Member represents the members table. IdpUserID links the row to the
// authenticated identity for self-service circulation; staff-created
// members without a portal login leave it empty.
type Member struct {
	MemberID    string       `gorm:"primarykey;column:member_id" json:"memberId"`
	Name        string       `gorm:"column:name;not null" json:"name"`
	Email       string       `gorm:"column:email;not null" json:"email"`
	PhoneNumber string       `gorm:"column:phone_number" json:"phoneNumber"`
	Status      MemberStatus `gorm:"column:status;not null;default:active" json:"status"`
	IdpUserID   string       `gorm:"column:idp_user_id" json:"idpUserId"`
	BaseModel
}

// TableName sets the table name for GORM
func (Member) TableName() string {
	return "members"
}

// LoanTransaction represents the loan_transactions table. Staff-initiated
// and self-service checkouts share this table; Channel records which
// admission path created the row.
type LoanTransaction struct {
	TransactionID string            `gorm:"primarykey;column:transaction_id" json:"transactionId"`
	BookID        string            `gorm:"column:book_id;not null" json:"bookId"`
	MemberID      string            `gorm:"column:member_id;not null" json:"memberId"`
	Channel       Channel           `gorm:"column:channel;not null;default:staff" json:"channel"`
	CheckoutDate  time.Time         `gorm:"column:checkout_date;not null" json:"checkoutDate"`
	DueDate       time.Time         `gorm:"column:due_date;not null" json:"dueDate"`
	ReturnDate    *time.Time        `gorm:"column:return_date" json:"returnDate,omitempty"`
	Status        TransactionStatus `gorm:"column:status;not null;default:borrowed" json:"status"`
	FineAmount    int64             `gorm:"column:fine_amount;not null;default:0" json:"fineAmount"`
	FinePaid      bool              `gorm:"column:fine_paid;not null;default:false" json:"finePaid"`
	BaseModel

	// Relationships
	Book   Book   `gorm:"foreignKey:BookID;references:BookID" json:"book,omitempty"`
	Member Member `gorm:"foreignKey:MemberID;references:MemberID" json:"member,omitempty"`
}

// TableName sets the table name for GORM
func (LoanTransaction) TableName() string {
	return "loan_transactions"
}

// StaffAccount represents the staff_accounts table. The IdP user is the
// source of truth for credentials; this row carries the library-side
// profile and role.
type StaffAccount struct {
	StaffID   string    `gorm:"primarykey;column:staff_id" json:"staffId"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Email     string    `gorm:"column:email;not null" json:"email"`
	Role      StaffRole `gorm:"column:role;not null;default:librarian" json:"role"`
	IdpUserID string    `gorm:"column:idp_user_id;not null" json:"idpUserId"`
	BaseModel
}

// TableName sets the table name for GORM
func (StaffAccount) TableName() string {
	return "staff_accounts"
}
