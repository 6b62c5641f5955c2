package models

// UserGroup represents different user groups in the identity provider
type UserGroup string

const (
	UserGroupAdmin     UserGroup = "OpenShelf_Admin"
	UserGroupLibrarian UserGroup = "OpenShelf_Librarian"
	UserGroupMember    UserGroup = "OpenShelf_Member"
)

// BookStatus represents the derived availability label on a book
type BookStatus string

const (
	BookStatusAvailable BookStatus = "available"
	BookStatusBorrowed  BookStatus = "borrowed"
	// Manual overrides set by staff, never produced by the circulation engine
	BookStatusDamaged BookStatus = "damaged"
	BookStatusLost    BookStatus = "lost"
)

// MemberStatus represents membership standing
type MemberStatus string

const (
	MemberStatusActive    MemberStatus = "active"
	MemberStatusInactive  MemberStatus = "inactive"
	MemberStatusSuspended MemberStatus = "suspended"
)

// TransactionStatus represents the state of a loan transaction
type TransactionStatus string

const (
	TransactionStatusBorrowed TransactionStatus = "borrowed"
	TransactionStatusReturned TransactionStatus = "returned"
	TransactionStatusOverdue  TransactionStatus = "overdue"
)

// Channel identifies which admission path created a loan transaction
type Channel string

const (
	ChannelStaff  Channel = "staff"
	ChannelMember Channel = "member"
)

// StaffRole represents the role assigned to a staff account
type StaffRole string

const (
	StaffRoleAdmin     StaffRole = "admin"
	StaffRoleLibrarian StaffRole = "librarian"
)

// Circulation defaults
const (
	// DefaultLoanPeriodDays is the loan period applied when a checkout
	// or renewal does not specify one.
	DefaultLoanPeriodDays = 14

	// DefaultFineRatePerDay is the fine accrued per overdue day, in the
	// smallest currency unit.
	DefaultFineRatePerDay = 200
)

// MemberIDPrefix is the prefix of generated member identifiers
// (LIB-<year>-<4-digit-sequence>).
const MemberIDPrefix = "LIB"

// Field length constraints
const (
	MaxNameLength  = 255
	MaxTitleLength = 500
	MaxEmailLength = 320 // RFC 3696 specification
	MaxPhoneLength = 15  // E.164 format
	MaxISBNLength  = 17
)
