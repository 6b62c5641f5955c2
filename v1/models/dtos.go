package models

import "time"

// CollectionResponse wraps list endpoints
type CollectionResponse struct {
	Items interface{} `json:"items"`
	Count int         `json:"count"`
}

// CreateBookRequest is the payload for adding a book to the catalog
type CreateBookRequest struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	ISBN          string `json:"isbn"`
	Publisher     string `json:"publisher"`
	Category      string `json:"category"`
	PublishedYear int    `json:"publishedYear"`
	TotalCopies   int    `json:"totalCopies"`
}

// UpdateBookRequest is the payload for editing a book; nil fields are
// left unchanged. Status accepts the manual overrides (damaged, lost).
type UpdateBookRequest struct {
	Title         *string     `json:"title,omitempty"`
	Author        *string     `json:"author,omitempty"`
	ISBN          *string     `json:"isbn,omitempty"`
	Publisher     *string     `json:"publisher,omitempty"`
	Category      *string     `json:"category,omitempty"`
	PublishedYear *int        `json:"publishedYear,omitempty"`
	TotalCopies   *int        `json:"totalCopies,omitempty"`
	Status        *BookStatus `json:"status,omitempty"`
}

// CreateMemberRequest is the payload for registering a member
type CreateMemberRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	IdpUserID   string `json:"idpUserId,omitempty"`
}

// UpdateMemberRequest is the payload for editing a member
type UpdateMemberRequest struct {
	Name        *string       `json:"name,omitempty"`
	Email       *string       `json:"email,omitempty"`
	PhoneNumber *string       `json:"phoneNumber,omitempty"`
	Status      *MemberStatus `json:"status,omitempty"`
}

// MemberResponse is the API representation of a member
type MemberResponse struct {
	MemberID    string       `json:"memberId"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	PhoneNumber string       `json:"phoneNumber"`
	Status      MemberStatus `json:"status"`
	IdpUserID   string       `json:"idpUserId,omitempty"`
	CreatedAt   string       `json:"createdAt"`
	UpdatedAt   string       `json:"updatedAt"`
}

// CheckoutRequest is the staff-initiated checkout payload
type CheckoutRequest struct {
	MemberID string `json:"memberId"`
	BookID   string `json:"bookId"`
	DueDays  int    `json:"dueDays,omitempty"`
}

// MemberCheckoutRequest is the self-service checkout payload; the
// borrower is the authenticated identity.
type MemberCheckoutRequest struct {
	BookID  string `json:"bookId"`
	DueDays int    `json:"dueDays,omitempty"`
}

// RenewRequest is the renewal payload
type RenewRequest struct {
	ExtendDays int `json:"extendDays,omitempty"`
}

// RenewResponse reports the outcome of a renewal
type RenewResponse struct {
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	NewDueDate time.Time `json:"newDueDate"`
}

// FineResponse reports the current fine on a transaction
type FineResponse struct {
	TransactionID string `json:"transactionId"`
	FineAmount    int64  `json:"fineAmount"`
	FinePaid      bool   `json:"finePaid"`
}

// TransactionResponse is the API representation of a loan transaction
type TransactionResponse struct {
	TransactionID string            `json:"transactionId"`
	BookID        string            `json:"bookId"`
	MemberID      string            `json:"memberId"`
	Channel       Channel           `json:"channel"`
	CheckoutDate  time.Time         `json:"checkoutDate"`
	DueDate       time.Time         `json:"dueDate"`
	ReturnDate    *time.Time        `json:"returnDate,omitempty"`
	Status        TransactionStatus `json:"status"`
	FineAmount    int64             `json:"fineAmount"`
	FinePaid      bool              `json:"finePaid"`
}

// CreateStaffRequest is the payload for provisioning a staff account
type CreateStaffRequest struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	Role        StaffRole `json:"role"`
}

// UpdateStaffRequest is the payload for editing a staff account
type UpdateStaffRequest struct {
	Name *string    `json:"name,omitempty"`
	Role *StaffRole `json:"role,omitempty"`
}

// StaffResponse is the API representation of a staff account
type StaffResponse struct {
	StaffID   string    `json:"staffId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      StaffRole `json:"role"`
	IdpUserID string    `json:"idpUserId"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt"`
}

// NewTransactionResponse builds a TransactionResponse from the entity
func NewTransactionResponse(txn *LoanTransaction) *TransactionResponse {
	return &TransactionResponse{
		TransactionID: txn.TransactionID,
		BookID:        txn.BookID,
		MemberID:      txn.MemberID,
		Channel:       txn.Channel,
		CheckoutDate:  txn.CheckoutDate,
		DueDate:       txn.DueDate,
		ReturnDate:    txn.ReturnDate,
		Status:        txn.Status,
		FineAmount:    txn.FineAmount,
		FinePaid:      txn.FinePaid,
	}
}

// NewMemberResponse builds a MemberResponse from the entity
func NewMemberResponse(m *Member) *MemberResponse {
	return &MemberResponse{
		MemberID:    m.MemberID,
		Name:        m.Name,
		Email:       m.Email,
		PhoneNumber: m.PhoneNumber,
		Status:      m.Status,
		IdpUserID:   m.IdpUserID,
		CreatedAt:   m.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   m.UpdatedAt.Format(time.RFC3339),
	}
}

// NewStaffResponse builds a StaffResponse from the entity
func NewStaffResponse(s *StaffAccount) *StaffResponse {
	return &StaffResponse{
		StaffID:   s.StaffID,
		Name:      s.Name,
		Email:     s.Email,
		Role:      s.Role,
		IdpUserID: s.IdpUserID,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt.Format(time.RFC3339),
	}
}
