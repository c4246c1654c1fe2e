package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	apperrors "github.com/imam0321/bistro-boss-server/common/errors"
	"github.com/imam0321/bistro-boss-server/common/logger"
	"github.com/imam0321/bistro-boss-server/models"
)

// ClaimsKey is the gin context key holding the verified token claims.
const ClaimsKey = "claims"

type TokenVerifier interface {
	Verify(tokenStr string) (jwt.MapClaims, error)
}

// RoleLookup finds a user by email. A nil user means no record exists.
type RoleLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// RequestValue extracts the value an identity claim is compared against.
type RequestValue func(c *gin.Context) string

// RequireToken verifies the bearer token and stores its claims.
func RequireToken(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			apperrors.Abort(c, apperrors.ErrUnauthorized)
			return
		}

		claims, err := verifier.Verify(tokenStr)
		if err != nil {
			logger.Debug(c, "token rejected", zap.Error(err))
			apperrors.Abort(c, err)
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// bearerToken extracts the credentials of a "Bearer <token>" header. The
// scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// RequireAdmin allows the request only if the token's email belongs to a
// user with the admin role. Mount after RequireToken.
func RequireAdmin(users RoleLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := GetEmail(c)
		if email == "" {
			apperrors.Abort(c, apperrors.ErrForbidden)
			return
		}

		user, err := users.FindByEmail(c.Request.Context(), email)
		if err != nil {
			apperrors.Abort(c, apperrors.Internal(fmt.Errorf("role lookup: %w", err)))
			return
		}
		if !user.IsAdmin() {
			apperrors.Abort(c, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// RequireClaimMatch rejects the request when the named claim differs from
// the value taken from the request. An empty request value is let through
// so the handler can answer with an empty result.
func RequireClaimMatch(claim string, source RequestValue) gin.HandlerFunc {
	return func(c *gin.Context) {
		want := source(c)
		if want == "" {
			c.Next()
			return
		}

		got, _ := GetClaims(c)[claim].(string)
		if got != want {
			apperrors.Abort(c, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// RequireOwner requires the token email to equal the request's email.
func RequireOwner(source RequestValue) gin.HandlerFunc {
	return RequireClaimMatch("email", source)
}

func FromQuery(name string) RequestValue {
	return func(c *gin.Context) string { return c.Query(name) }
}

func FromParam(name string) RequestValue {
	return func(c *gin.Context) string { return c.Param(name) }
}

// GetClaims returns the verified claims, or nil outside a token-gated route.
func GetClaims(c *gin.Context) jwt.MapClaims {
	if val, exists := c.Get(ClaimsKey); exists {
		if claims, ok := val.(jwt.MapClaims); ok {
			return claims
		}
	}
	return nil
}

// GetEmail returns the email claim of the verified token.
func GetEmail(c *gin.Context) string {
	email, _ := GetClaims(c)["email"].(string)
	return email
}
