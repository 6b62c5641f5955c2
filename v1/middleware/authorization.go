package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/openshelf/library-server-go/v1/models"
	authutils "github.com/openshelf/library-server-go/v1/utils"
)

// AuthorizationMiddleware provides role-based access control functionality
type AuthorizationMiddleware struct{}

// NewAuthorizationMiddleware creates a new authorization middleware
func NewAuthorizationMiddleware() *AuthorizationMiddleware {
	return &AuthorizationMiddleware{}
}

// AuthorizeRequest returns a middleware function that checks user permissions for endpoints
func (a *AuthorizationMiddleware) AuthorizeRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.shouldSkipAuthorization(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		// JWT middleware runs earlier in the chain
		user, err := authutils.RequireAuthentication(r)
		if err != nil {
			slog.Warn("Authorization failed: user not authenticated", "path", r.URL.Path, "method", r.Method, "error", err)
			authutils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		endpointPermission, found := authutils.FindEndpointPermission(r.Method, r.URL.Path)
		if !found {
			// Undefined endpoints are staff-only
			if user.IsAdmin() || user.IsLibrarian() {
				next.ServeHTTP(w, r)
				return
			}
			slog.Warn("Access denied to undefined endpoint",
				"user", user.Email,
				"role", user.GetPrimaryRole(),
				"path", r.URL.Path,
				"method", r.Method)
			authutils.RespondWithError(w, http.StatusForbidden, "Endpoint access not explicitly permitted")
			return
		}

		if !user.HasPermission(endpointPermission.Permission) {
			slog.Warn("Access denied: insufficient permissions",
				"user", user.Email,
				"role", user.GetPrimaryRole(),
				"required_permission", endpointPermission.Permission,
				"path", r.URL.Path,
				"method", r.Method)
			authutils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireRole returns a middleware that requires a specific role
func (a *AuthorizationMiddleware) RequireRole(requiredRole models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authutils.RequireRole(r, requiredRole)
			if err != nil {
				slog.Warn("Role requirement not met",
					"required_role", requiredRole,
					"path", r.URL.Path,
					"method", r.Method,
					"error", err)
				authutils.RespondWithError(w, http.StatusForbidden, "Insufficient privileges")
				return
			}

			slog.Info("Role requirement satisfied",
				"user", user.Email,
				"required_role", requiredRole,
				"path", r.URL.Path,
				"method", r.Method)

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyRole returns a middleware that requires any of the specified roles
func (a *AuthorizationMiddleware) RequireAnyRole(requiredRoles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, err := authutils.RequireAnyRole(r, requiredRoles...)
			if err != nil {
				roleNames := make([]string, len(requiredRoles))
				for i, role := range requiredRoles {
					roleNames[i] = role.String()
				}

				slog.Warn("Role requirement not met",
					"required_roles", strings.Join(roleNames, ", "),
					"path", r.URL.Path,
					"method", r.Method,
					"error", err)
				authutils.RespondWithError(w, http.StatusForbidden, "Insufficient privileges")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdminRole is a convenience middleware that requires the admin role
func (a *AuthorizationMiddleware) RequireAdminRole() func(http.Handler) http.Handler {
	return a.RequireRole(models.RoleAdmin)
}

// RequireStaffRole requires either the admin or librarian role
func (a *AuthorizationMiddleware) RequireStaffRole() func(http.Handler) http.Handler {
	return a.RequireAnyRole(models.RoleAdmin, models.RoleLibrarian)
}

// shouldSkipAuthorization determines if authorization should be skipped for this path
func (a *AuthorizationMiddleware) shouldSkipAuthorization(path string) bool {
	skipPaths := []string{
		"/health",
		"/debug",
		"/metrics",
		"/favicon.ico",
	}

	for _, skipPath := range skipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}

// GetUserFromRequest is a helper to extract the authenticated user from request context
func GetUserFromRequest(r *http.Request) (*models.AuthenticatedUser, error) {
	return authutils.GetAuthenticatedUser(r.Context())
}
