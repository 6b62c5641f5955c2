package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/openshelf/library-server-go/v1/models"
	"github.com/stretchr/testify/assert"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantToken string
		wantErr   bool
	}{
		{name: "Valid token", header: "Bearer abc123", wantToken: "abc123"},
		{name: "Missing header", header: "", wantErr: true},
		{name: "Wrong scheme", header: "Basic abc123", wantErr: true},
		{name: "Empty token", header: "Bearer ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/v1/books", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			token, err := ExtractBearerToken(r)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}

func TestMatchesEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		pattern string
		want    bool
	}{
		{"Exact match", "/api/v1/books", "/api/v1/books", true},
		{"Trailing wildcard one segment", "/api/v1/books/book_1", "/api/v1/books/*", true},
		{"Trailing wildcard consumes remainder", "/api/v1/members/LIB-2026-0001/transactions", "/api/v1/members/*", true},
		{"Mid wildcard matches one segment", "/api/v1/transactions/txn_1/renew", "/api/v1/transactions/*/renew", true},
		{"Mid wildcard wrong suffix", "/api/v1/transactions/txn_1/return", "/api/v1/transactions/*/renew", false},
		{"Pattern longer than path", "/api/v1/books", "/api/v1/books/*", false},
		{"Different resource", "/api/v1/members", "/api/v1/books", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesEndpoint(tt.path, tt.pattern))
		})
	}
}

func TestFindEndpointPermission(t *testing.T) {
	ResetEndpointCacheForTesting()

	tests := []struct {
		name          string
		method        string
		path          string
		expectedFound bool
		expectedPerm  models.Permission
	}{
		{
			name:          "Exact match - GET books collection",
			method:        "GET",
			path:          "/api/v1/books",
			expectedFound: true,
			expectedPerm:  models.PermissionReadBook,
		},
		{
			name:          "Exact match - own profile beats member wildcard",
			method:        "GET",
			path:          "/api/v1/members/me",
			expectedFound: true,
			expectedPerm:  models.PermissionReadMember,
		},
		{
			name:          "Wildcard match - single book",
			method:        "PUT",
			path:          "/api/v1/books/book_123",
			expectedFound: true,
			expectedPerm:  models.PermissionUpdateBook,
		},
		{
			name:          "Specific action beats generic transaction wildcard",
			method:        "POST",
			path:          "/api/v1/transactions/txn_1/renew",
			expectedFound: true,
			expectedPerm:  models.PermissionRenewBook,
		},
		{
			name:          "Pay fine action",
			method:        "POST",
			path:          "/api/v1/transactions/txn_1/pay-fine",
			expectedFound: true,
			expectedPerm:  models.PermissionMarkFinePaid,
		},
		{
			name:          "Return falls through to generic wildcard",
			method:        "POST",
			path:          "/api/v1/transactions/txn_1/return",
			expectedFound: true,
			expectedPerm:  models.PermissionReturnBook,
		},
		{
			name:          "Staff management",
			method:        "DELETE",
			path:          "/api/v1/staff/staff_1",
			expectedFound: true,
			expectedPerm:  models.PermissionManageStaff,
		},
		{
			name:          "No match - unknown endpoint",
			method:        "GET",
			path:          "/api/v1/unknown",
			expectedFound: false,
		},
		{
			name:          "No match - wrong method",
			method:        "PATCH",
			path:          "/api/v1/books",
			expectedFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep, found := FindEndpointPermission(tt.method, tt.path)

			assert.Equal(t, tt.expectedFound, found)
			if tt.expectedFound {
				assert.Equal(t, tt.expectedPerm, ep.Permission)
			}
		})
	}
}

func TestIsOwnerOrStaff(t *testing.T) {
	t.Run("Owner", func(t *testing.T) {
		user := &models.AuthenticatedUser{IdpUserID: "idp-1", Roles: []models.Role{models.RoleMember}}
		assert.True(t, IsOwnerOrStaff(user, "idp-1"))
	})

	t.Run("NotOwnerNotStaff", func(t *testing.T) {
		user := &models.AuthenticatedUser{IdpUserID: "idp-1", Roles: []models.Role{models.RoleMember}}
		assert.False(t, IsOwnerOrStaff(user, "idp-2"))
	})

	t.Run("LibrarianBypassesOwnership", func(t *testing.T) {
		user := &models.AuthenticatedUser{IdpUserID: "idp-1", Roles: []models.Role{models.RoleLibrarian}}
		assert.True(t, IsOwnerOrStaff(user, "idp-2"))
	})
}

func TestGetRequestIP(t *testing.T) {
	t.Run("XForwardedFor_FirstEntry", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/health", nil)
		r.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
		assert.Equal(t, "10.0.0.1", GetRequestIP(r))
	})

	t.Run("RemoteAddr_Fallback", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/health", nil)
		r.RemoteAddr = "192.168.1.5:54321"
		assert.Equal(t, "192.168.1.5", GetRequestIP(r))
	})
}
