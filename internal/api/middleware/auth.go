// Package middleware provides HTTP middleware for the Gin router.
//
// Go Learning Note — Middleware Pattern (Gin):
// In Gin, middleware is any function with the signature `gin.HandlerFunc`, which
// is `func(*gin.Context)`. Middleware functions form a chain: each one runs,
// optionally calls c.Next() to pass control to the next handler, and can call
// c.Abort() to stop the chain. This is the "chain of responsibility" pattern.
//
// Authenticate resolves the bearer token into an access.Identity and stores it
// on the context. The Require* middlewares run the same gates the services
// run, so a request that fails a gate stops here with 403 before any handler
// code executes.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ridehail/internal/access"
)

// IdentityKey is the gin context key holding the *access.Identity.
const IdentityKey = "identity"

// IdentityResolver turns a bearer token into the caller. Implemented by
// services.AuthService.
type IdentityResolver interface {
	Identify(ctx context.Context, bearer string) (*access.Identity, error)
}

// Authenticate validates the Authorization header.
// Format: "Bearer <jwt>".
//
// Go Learning Note — Returning Functions (Closures):
// Authenticate() returns a gin.HandlerFunc that captures the resolver. This
// is how Gin middleware receives its configuration.
func Authenticate(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		// strings.SplitN splits into at most 2 parts, handling tokens with spaces.
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			c.Abort()
			return
		}

		identity, err := resolver.Identify(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// RequireRider ensures the caller passes the rider gate. Must be used after
// Authenticate() in the chain.
func RequireRider() gin.HandlerFunc {
	return require(access.RiderGate)
}

// RequireDriver ensures the caller is an approved driver.
func RequireDriver() gin.HandlerFunc {
	return require(access.DriverGate)
}

func RequireAdmin() gin.HandlerFunc {
	return require(access.AdminGate)
}

func require(gate access.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !gate(GetIdentity(c)) {
			c.JSON(http.StatusForbidden, gin.H{"error": access.ErrNotPermitted.Error()})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetIdentity returns the caller stored by Authenticate, or nil.
//
// Go Learning Note — Type Assertion:
// c.Get() returns (any, bool). The two-value form `v, ok := x.(T)` never
// panics, so a route mounted without Authenticate simply sees a nil identity
// and fails every gate.
func GetIdentity(c *gin.Context) *access.Identity {
	value, exists := c.Get(IdentityKey)
	if !exists {
		return nil
	}
	identity, _ := value.(*access.Identity)
	return identity
}
