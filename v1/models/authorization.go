package models

// Role represents user roles in the system
type Role string

const (
	RoleAdmin     Role = "OpenShelf_Admin"     // Full access, including staff provisioning
	RoleLibrarian Role = "OpenShelf_Librarian" // Catalog, member registry, and circulation desk
	RoleMember    Role = "OpenShelf_Member"    // Self-service circulation and own profile
)

// IsValid reports whether the role is one the system knows about
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleLibrarian, RoleMember:
		return true
	}
	return false
}

// String returns the role as a string
func (r Role) String() string {
	return string(r)
}

// Permission represents specific permissions
type Permission string

const (
	// Catalog permissions
	PermissionCreateBook Permission = "book:create"
	PermissionReadBook   Permission = "book:read"
	PermissionUpdateBook Permission = "book:update"
	PermissionDeleteBook Permission = "book:delete"

	// Member registry permissions
	PermissionCreateMember   Permission = "member:create"
	PermissionReadMember     Permission = "member:read"
	PermissionUpdateMember   Permission = "member:update"
	PermissionReadAllMembers Permission = "member:read:all"

	// Circulation permissions
	PermissionCheckoutBook    Permission = "circulation:checkout"
	PermissionSelfCheckout    Permission = "circulation:self_checkout"
	PermissionReturnBook      Permission = "circulation:return"
	PermissionRenewBook       Permission = "circulation:renew"
	PermissionReadTransaction Permission = "circulation:read"
	PermissionMarkFinePaid    Permission = "circulation:pay_fine"

	// Staff management permissions
	PermissionManageStaff Permission = "staff:manage"
)

// RolePermissions defines what permissions each role has
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionCreateBook, PermissionReadBook, PermissionUpdateBook, PermissionDeleteBook,
		PermissionCreateMember, PermissionReadMember, PermissionUpdateMember, PermissionReadAllMembers,
		PermissionCheckoutBook, PermissionSelfCheckout, PermissionReturnBook, PermissionRenewBook,
		PermissionReadTransaction, PermissionMarkFinePaid,
		PermissionManageStaff,
	},
	RoleLibrarian: {
		PermissionCreateBook, PermissionReadBook, PermissionUpdateBook, PermissionDeleteBook,
		PermissionCreateMember, PermissionReadMember, PermissionUpdateMember, PermissionReadAllMembers,
		PermissionCheckoutBook, PermissionReturnBook, PermissionRenewBook,
		PermissionReadTransaction, PermissionMarkFinePaid,
	},
	RoleMember: {
		PermissionReadBook,
		PermissionReadMember,
		PermissionSelfCheckout, PermissionRenewBook, PermissionReadTransaction,
	},
}

// HasPermission checks if a role grants a specific permission
func (r Role) HasPermission(permission Permission) bool {
	for _, p := range RolePermissions[r] {
		if p == permission {
			return true
		}
	}
	return false
}

// EndpointPermission defines the required permission for an endpoint
type EndpointPermission struct {
	Method     string
	Path       string
	Permission Permission
}

// EndpointPermissions maps HTTP endpoints to required permissions.
// Paths ending in * match any suffix segment.
var EndpointPermissions = []EndpointPermission{
	// Catalog endpoints
	{"GET", "/api/v1/books", PermissionReadBook},
	{"POST", "/api/v1/books", PermissionCreateBook},
	{"GET", "/api/v1/books/*", PermissionReadBook},
	{"PUT", "/api/v1/books/*", PermissionUpdateBook},
	{"DELETE", "/api/v1/books/*", PermissionDeleteBook},

	// Member endpoints
	{"GET", "/api/v1/members", PermissionReadAllMembers},
	{"POST", "/api/v1/members", PermissionCreateMember},
	{"GET", "/api/v1/members/me", PermissionReadMember},
	{"GET", "/api/v1/members/*", PermissionReadAllMembers},
	{"PUT", "/api/v1/members/*", PermissionUpdateMember},

	// Circulation endpoints
	{"GET", "/api/v1/transactions", PermissionReadTransaction},
	{"POST", "/api/v1/transactions/checkout", PermissionCheckoutBook},
	{"POST", "/api/v1/transactions/member-checkout", PermissionSelfCheckout},
	{"GET", "/api/v1/transactions/*", PermissionReadTransaction},
	{"POST", "/api/v1/transactions/*/renew", PermissionRenewBook},
	{"POST", "/api/v1/transactions/*/pay-fine", PermissionMarkFinePaid},
	{"POST", "/api/v1/transactions/*", PermissionReturnBook},

	// Staff endpoints
	{"GET", "/api/v1/staff", PermissionManageStaff},
	{"POST", "/api/v1/staff", PermissionManageStaff},
	{"GET", "/api/v1/staff/*", PermissionManageStaff},
	{"PUT", "/api/v1/staff/*", PermissionManageStaff},
	{"DELETE", "/api/v1/staff/*", PermissionManageStaff},
}
