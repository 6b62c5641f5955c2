package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/openshelf/library-server-go/idp"
	"github.com/openshelf/library-server-go/pkg/apierrors"
	"github.com/openshelf/library-server-go/v1/models"
	"github.com/openshelf/library-server-go/v1/services"
	"github.com/openshelf/library-server-go/v1/utils"
	"gorm.io/gorm"
)

// V1Handler handles all V1 API routes
type V1Handler struct {
	bookService        *services.BookService
	memberService      *services.MemberService
	circulationService *services.CirculationService
	staffService       *services.StaffService
}

// NewV1Handler creates a new V1 handler
func NewV1Handler(db *gorm.DB, provider idp.IdentityProviderAPI) *V1Handler {
	return &V1Handler{
		bookService:        services.NewBookService(db),
		memberService:      services.NewMemberService(db),
		circulationService: services.NewCirculationService(db),
		staffService:       services.NewStaffService(db, provider),
	}
}

// NewV1HandlerWithServices creates a handler from pre-built services.
// Used by tests to inject configured or mocked services.
func NewV1HandlerWithServices(
	bookService *services.BookService,
	memberService *services.MemberService,
	circulationService *services.CirculationService,
	staffService *services.StaffService,
) *V1Handler {
	return &V1Handler{
		bookService:        bookService,
		memberService:      memberService,
		circulationService: circulationService,
		staffService:       staffService,
	}
}

// SetupV1Routes configures all V1 API routes
func (h *V1Handler) SetupV1Routes(mux *http.ServeMux) {
	// Catalog routes
	mux.Handle("/api/v1/books", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleBooks)))
	mux.Handle("/api/v1/books/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleBooks)))

	// Member routes
	mux.Handle("/api/v1/members", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleMembers)))
	mux.Handle("/api/v1/members/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleMembers)))

	// Circulation routes
	mux.Handle("/api/v1/transactions", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleTransactions)))
	mux.Handle("/api/v1/transactions/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleTransactions)))

	// Staff routes
	mux.Handle("/api/v1/staff", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleStaff)))
	mux.Handle("/api/v1/staff/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleStaff)))
}

// handleBooks handles catalog routes
func (h *V1Handler) handleBooks(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/books")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	// Handle collection endpoint: GET /api/v1/books and POST /api/v1/books
	if len(parts) == 1 && parts[0] == "" {
		switch r.Method {
		case http.MethodGet:
			h.getAllBooks(w, r)
		case http.MethodPost:
			h.createBook(w, r)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	bookID := parts[0]

	// Handle base book endpoint: GET/PUT/DELETE /api/v1/books/:bookId
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.getBook(w, r, bookID)
		case http.MethodPut:
			h.updateBook(w, r, bookID)
		case http.MethodDelete:
			h.deleteBook(w, r, bookID)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}

func (h *V1Handler) getAllBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.bookService.GetAllBooks()
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, models.CollectionResponse{Items: books, Count: len(books)})
}

func (h *V1Handler) getBook(w http.ResponseWriter, r *http.Request, bookID string) {
	book, err := h.bookService.GetBook(bookID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, book)
}

func (h *V1Handler) createBook(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	book, err := h.bookService.CreateBook(&req)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusCreated, book)
}

func (h *V1Handler) updateBook(w http.ResponseWriter, r *http.Request, bookID string) {
	var req models.UpdateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	book, err := h.bookService.UpdateBook(bookID, &req)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, book)
}

func (h *V1Handler) deleteBook(w http.ResponseWriter, r *http.Request, bookID string) {
	if err := h.bookService.DeleteBook(bookID); err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMembers handles member registry routes
func (h *V1Handler) handleMembers(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/members")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	// Handle collection endpoint: GET /api/v1/members and POST /api/v1/members
	if len(parts) == 1 && parts[0] == "" {
		switch r.Method {
		case http.MethodGet:
			h.getAllMembers(w, r)
		case http.MethodPost:
			h.createMember(w, r)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	// Handle self-service profile: GET /api/v1/members/me
	if len(parts) == 1 && parts[0] == "me" {
		if r.Method == http.MethodGet {
			h.getOwnProfile(w, r)
		} else {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	memberID := parts[0]

	// Handle base member endpoint: GET /api/v1/members/:memberId and PUT /api/v1/members/:memberId
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.getMember(w, r, memberID)
		case http.MethodPut:
			h.updateMember(w, r, memberID)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	// Handle loan history: GET /api/v1/members/:memberId/transactions
	if len(parts) == 2 && parts[1] == "transactions" {
		if r.Method == http.MethodGet {
			h.getMemberTransactions(w, r, memberID)
		} else {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}

func (h *V1Handler) getAllMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.memberService.GetAllMembers()
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, models.CollectionResponse{Items: members, Count: len(members)})
}

func (h *V1Handler) getMember(w http.ResponseWriter, r *http.Request, memberID string) {
	member, err := h.memberService.GetMember(memberID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, member)
}

func (h *V1Handler) getOwnProfile(w http.ResponseWriter, r *http.Request) {
	member, err := h.resolveAuthenticatedMember(r)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, models.NewMemberResponse(member))
}

func (h *V1Handler) createMember(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	member, err := h.memberService.CreateMember(&req)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusCreated, member)
}

func (h *V1Handler) updateMember(w http.ResponseWriter, r *http.Request, memberID string) {
	var req models.UpdateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	member, err := h.memberService.UpdateMember(memberID, &req)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, member)
}

func (h *V1Handler) getMemberTransactions(w http.ResponseWriter, r *http.Request, memberID string) {
	txns, err := h.circulationService.GetMemberTransactions(memberID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, models.CollectionResponse{Items: txns, Count: len(txns)})
}

// handleTransactions handles circulation routes
func (h *V1Handler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/transactions")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	// Handle collection endpoint: GET /api/v1/transactions
	if len(parts) == 1 && parts[0] == "" {
		if r.Method == http.MethodGet {
			h.getAllTransactions(w, r)
		} else {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	// Handle checkout endpoints: POST /api/v1/transactions/checkout
	// and POST /api/v1/transactions/member-checkout
	if len(parts) == 1 && parts[0] == "checkout" {
		if r.Method == http.MethodPost {
			h.checkout(w, r)
		} else {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}
	if len(parts) == 1 && parts[0] == "member-checkout" {
		if r.Method == http.MethodPost {
			h.memberCheckout(w, r)
		} else {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	transactionID := parts[0]

	// Handle base transaction endpoint: GET /api/v1/transactions/:transactionId
	if len(parts) == 1 {
		if r.Method == http.MethodGet {
			h.getTransaction(w, r, transactionID)
		} else {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	// Handle transaction actions: /api/v1/transactions/:transactionId/...
	if len(parts) == 2 {
		switch parts[1] {
		case "return":
			if r.Method == http.MethodPost {
				h.returnBook(w, r, transactionID)
				return
			}
		case "renew":
			if r.Method == http.MethodPost {
				h.renewLoan(w, r, transactionID)
				return
			}
		case "pay-fine":
			if r.Method == http.MethodPost {
				h.payFine(w, r, transactionID)
				return
			}
		case "fine":
			if r.Method == http.MethodGet {
				h.getFine(w, r, transactionID)
				return
			}
		default:
			utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
			return
		}
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}

func (h *V1Handler) getAllTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.circulationService.GetAllTransactions()
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, models.CollectionResponse{Items: txns, Count: len(txns)})
}

func (h *V1Handler) getTransaction(w http.ResponseWriter, r *http.Request, transactionID string) {
	txn, err := h.circulationService.GetTransaction(transactionID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, txn)
}

func (h *V1Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	txn, err := h.circulationService.Checkout(r.Context(), req.MemberID, req.BookID, req.DueDays, models.ChannelStaff)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusCreated, txn)
}

func (h *V1Handler) memberCheckout(w http.ResponseWriter, r *http.Request) {
	var req models.MemberCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	member, err := h.resolveAuthenticatedMember(r)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	txn, err := h.circulationService.Checkout(r.Context(), member.MemberID, req.BookID, req.DueDays, models.ChannelMember)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusCreated, txn)
}

func (h *V1Handler) returnBook(w http.ResponseWriter, r *http.Request, transactionID string) {
	txn, err := h.circulationService.Return(r.Context(), transactionID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, txn)
}

func (h *V1Handler) renewLoan(w http.ResponseWriter, r *http.Request, transactionID string) {
	var req models.RenewRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	resp, err := h.circulationService.Renew(r.Context(), transactionID, req.ExtendDays)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, resp)
}

func (h *V1Handler) payFine(w http.ResponseWriter, r *http.Request, transactionID string) {
	fine, err := h.circulationService.MarkFinePaid(r.Context(), transactionID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, fine)
}

func (h *V1Handler) getFine(w http.ResponseWriter, r *http.Request, transactionID string) {
	fine, err := h.circulationService.CalculateFine(r.Context(), transactionID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, fine)
}

// handleStaff handles staff provisioning routes
func (h *V1Handler) handleStaff(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/staff")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	// Handle collection endpoint: GET /api/v1/staff and POST /api/v1/staff
	if len(parts) == 1 && parts[0] == "" {
		switch r.Method {
		case http.MethodGet:
			h.getAllStaff(w, r)
		case http.MethodPost:
			h.createStaff(w, r)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	staffID := parts[0]

	// Handle base staff endpoint: GET/PUT/DELETE /api/v1/staff/:staffId
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.getStaff(w, r, staffID)
		case http.MethodPut:
			h.updateStaff(w, r, staffID)
		case http.MethodDelete:
			h.deleteStaff(w, r, staffID)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}

func (h *V1Handler) getAllStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.staffService.GetAllStaff()
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, models.CollectionResponse{Items: staff, Count: len(staff)})
}

func (h *V1Handler) getStaff(w http.ResponseWriter, r *http.Request, staffID string) {
	staff, err := h.staffService.GetStaff(staffID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, staff)
}

func (h *V1Handler) createStaff(w http.ResponseWriter, r *http.Request) {
	var req models.CreateStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	staff, err := h.staffService.CreateStaff(r.Context(), &req)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusCreated, staff)
}

func (h *V1Handler) updateStaff(w http.ResponseWriter, r *http.Request, staffID string) {
	var req models.UpdateStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	staff, err := h.staffService.UpdateStaff(r.Context(), staffID, &req)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, staff)
}

func (h *V1Handler) deleteStaff(w http.ResponseWriter, r *http.Request, staffID string) {
	if err := h.staffService.DeleteStaff(r.Context(), staffID); err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// resolveAuthenticatedMember maps the request identity to its member row
func (h *V1Handler) resolveAuthenticatedMember(r *http.Request) (*models.Member, error) {
	user, err := utils.GetAuthenticatedUser(r.Context())
	if err != nil || user.IdpUserID == "" {
		return nil, apierrors.AuthRequired("no identity on request")
	}
	return h.memberService.GetMemberByIdpUserID(user.IdpUserID)
}
