// Package middleware holds fiber middleware shared by the HTTP handlers.
package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const localsClaims = "auth_claims"

// Claims are the parts of an access token the API relies on.
type Claims struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the token carries the given admin role.
func (c *Claims) IsAdmin(adminRole string) bool {
	return c != nil && adminRole != "" && c.Role == adminRole
}

// accessTokenClaims mirrors the managed auth backend's token layout: the user
// id in "sub" and the role under app_metadata.
type accessTokenClaims struct {
	jwt.RegisteredClaims
	AppMetadata struct {
		Role string `json:"role"`
	} `json:"app_metadata"`
}

// ParseToken verifies an HS256 access token and extracts its claims.
func ParseToken(tokenString, secret string) (*Claims, error) {
	var claims accessTokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("token parse error: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token missing user id")
	}
	if err := uuid.Validate(claims.Subject); err != nil {
		return nil, fmt.Errorf("token user id: %w", err)
	}
	return &Claims{UserID: claims.Subject, Role: claims.AppMetadata.Role}, nil
}

// Authenticate rejects requests without a valid Bearer token with 401 and
// stores the verified claims for downstream handlers.
func Authenticate(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}

		claims, err := ParseToken(strings.TrimSpace(tokenString), secret)
		if err != nil {
			log.Debug().
				Err(err).
				Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
				Str("path", c.Path()).
				Msg("rejected access token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}

		c.Locals(localsClaims, claims)
		return c.Next()
	}
}

// RequireRole answers 403 unless the authenticated user has role.
// Must run after Authenticate.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := ClaimsFrom(c)
		if claims == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		if !claims.IsAdmin(role) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}
		return c.Next()
	}
}

// ClaimsFrom returns the claims stored by Authenticate, or nil.
func ClaimsFrom(c *fiber.Ctx) *Claims {
	claims, _ := c.Locals(localsClaims).(*Claims)
	return claims
}

// UserID returns the authenticated user's id, or "".
func UserID(c *fiber.Ctx) string {
	if claims := ClaimsFrom(c); claims != nil {
		return claims.UserID
	}
	return ""
}
