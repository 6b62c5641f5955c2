package middleware

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/openshelf/library-server-go/v1/models"
	authutils "github.com/openshelf/library-server-go/v1/utils"
)

// JWKS represents the JSON Web Key Set structure
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a single JSON Web Key
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWTAuthMiddleware provides JWT authentication functionality
type JWTAuthMiddleware struct {
	jwksURL          string
	expectedIssuer   string
	expectedAudience string
	httpClient       *http.Client
	mutex            sync.RWMutex
	keys             map[string]*rsa.PublicKey
	lastFetch        time.Time
}

// JWTAuthConfig contains configuration for JWT authentication
type JWTAuthConfig struct {
	JWKSURL          string
	ExpectedIssuer   string
	ExpectedAudience string
	Timeout          time.Duration
}

// NewJWTAuthMiddleware creates a new JWT authentication middleware
func NewJWTAuthMiddleware(config JWTAuthConfig) *JWTAuthMiddleware {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &JWTAuthMiddleware{
		jwksURL:          config.JWKSURL,
		expectedIssuer:   config.ExpectedIssuer,
		expectedAudience: config.ExpectedAudience,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		keys: make(map[string]*rsa.PublicKey),
	}
}

// AuthenticateJWT returns a middleware function that validates JWT tokens
func (j *JWTAuthMiddleware) AuthenticateJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if j.shouldSkipAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		tokenString, err := authutils.ExtractBearerToken(r)
		if err != nil {
			slog.Warn("Failed to extract bearer token", "error", err, "path", r.URL.Path, "method", r.Method)
			authutils.RespondWithError(w, http.StatusUnauthorized, "Invalid or missing authorization header")
			return
		}

		user, authCtx, err := j.validateToken(tokenString)
		if err != nil {
			slog.Warn("Token validation failed", "error", err, "path", r.URL.Path, "method", r.Method)
			authutils.RespondWithError(w, http.StatusUnauthorized, "Invalid access token")
			return
		}

		if user.IsTokenExpired() {
			slog.Warn("Token is expired", "expiry", user.ExpiresAt, "user", user.Email)
			authutils.RespondWithError(w, http.StatusUnauthorized, "Access token has expired")
			return
		}

		ctx := authutils.SetAuthenticatedUser(r.Context(), user)
		ctx = authutils.SetAuthContext(ctx, authCtx)

		slog.Info("User authenticated successfully",
			"user_id", user.IdpUserID,
			"email", user.Email,
			"roles", user.Roles,
			"path", r.URL.Path,
			"method", r.Method)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validateToken validates a JWT token and returns the authenticated user
func (j *JWTAuthMiddleware) validateToken(tokenString string) (*models.AuthenticatedUser, *models.AuthContext, error) {
	if err := j.ensureKeysFresh(); err != nil {
		return nil, nil, fmt.Errorf("failed to ensure fresh keys: %w", err)
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("missing 'kid' in token header")
		}

		publicKey, exists := j.lookupKey(kid)
		if !exists {
			// Try to refresh keys once
			slog.Info("Key not found, refreshing JWKS", "kid", kid)
			if err := j.fetchJWKS(); err != nil {
				return nil, fmt.Errorf("failed to refresh JWKS: %w", err)
			}
			publicKey, exists = j.lookupKey(kid)
			if !exists {
				return nil, fmt.Errorf("no public key found for kid: %s", kid)
			}
		}

		return publicKey, nil
	})

	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*models.UserClaims)
	if !ok || !token.Valid {
		return nil, nil, fmt.Errorf("invalid token claims")
	}

	if err := j.validateStandardClaims(claims); err != nil {
		return nil, nil, fmt.Errorf("claim validation failed: %w", err)
	}

	user := models.NewAuthenticatedUser(claims)

	authCtx := &models.AuthContext{
		User:        user,
		Token:       tokenString,
		IssuedBy:    claims.Issuer,
		Audience:    claims.Audience,
		Permissions: user.GetPermissions(),
	}

	return user, authCtx, nil
}

// validateStandardClaims validates the standard JWT claims
func (j *JWTAuthMiddleware) validateStandardClaims(claims *models.UserClaims) error {
	now := time.Now()

	if !claims.ExpiresAt.IsZero() && now.After(claims.ExpiresAt) {
		return fmt.Errorf("token is expired")
	}

	if !claims.NotBefore.IsZero() && now.Before(claims.NotBefore) {
		return fmt.Errorf("token is not valid yet")
	}

	if j.expectedIssuer != "" && claims.Issuer != j.expectedIssuer {
		return fmt.Errorf("invalid issuer: expected %s, got %s", j.expectedIssuer, claims.Issuer)
	}

	if j.expectedAudience != "" && !j.containsAudience(claims.Audience, j.expectedAudience) {
		return fmt.Errorf("invalid audience: expected %s, got %v", j.expectedAudience, claims.Audience)
	}

	if claims.Email == "" {
		return fmt.Errorf("email claim is missing")
	}

	if claims.IdpUserID == "" {
		return fmt.Errorf("subject claim is missing")
	}

	return nil
}

// containsAudience checks if the audience list contains the expected audience
func (j *JWTAuthMiddleware) containsAudience(audiences []string, expected string) bool {
	for _, aud := range audiences {
		if aud == expected {
			return true
		}
	}
	return false
}

// lookupKey returns the cached public key for a key id
func (j *JWTAuthMiddleware) lookupKey(kid string) (*rsa.PublicKey, bool) {
	j.mutex.RLock()
	defer j.mutex.RUnlock()
	key, exists := j.keys[kid]
	return key, exists
}

// fetchJWKS fetches the JWKS from the configured endpoint
func (j *JWTAuthMiddleware) fetchJWKS() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", j.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := j.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read JWKS response: %w", err)
	}

	var jwks JWKS
	if err := json.Unmarshal(body, &jwks); err != nil {
		return fmt.Errorf("failed to parse JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey)
	for _, key := range jwks.Keys {
		if key.Kty == "RSA" && key.Use == "sig" {
			publicKey, err := j.buildRSAPublicKey(key.N, key.E)
			if err != nil {
				slog.Warn("Failed to build RSA public key", "kid", key.Kid, "error", err)
				continue
			}
			keys[key.Kid] = publicKey
		}
	}

	j.mutex.Lock()
	j.keys = keys
	j.lastFetch = time.Now()
	j.mutex.Unlock()

	slog.Info("Successfully fetched JWKS", "keys_count", len(keys))
	return nil
}

// buildRSAPublicKey constructs an RSA public key from modulus and exponent
func (j *JWTAuthMiddleware) buildRSAPublicKey(nStr, eStr string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(eStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)

	if !e.IsInt64() || e.Int64() < 2 {
		return nil, fmt.Errorf("invalid exponent")
	}

	return &rsa.PublicKey{
		N: n,
		E: int(e.Int64()),
	}, nil
}

// ensureKeysFresh refreshes the JWKS cache when empty or older than an hour
func (j *JWTAuthMiddleware) ensureKeysFresh() error {
	j.mutex.RLock()
	stale := len(j.keys) == 0 || time.Since(j.lastFetch) > time.Hour
	j.mutex.RUnlock()

	if stale {
		return j.fetchJWKS()
	}
	return nil
}

// shouldSkipAuth determines if authentication should be skipped for this path
func (j *JWTAuthMiddleware) shouldSkipAuth(path string) bool {
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
