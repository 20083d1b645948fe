package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"medrecapi/internal/authz"
)

// IdentityLocalKey is the key under which the verified caller identity is
// stored in Fiber's context locals.
const IdentityLocalKey = "identity"

// identityClaims is the token payload issued by the auth service: the
// subject holds the numeric user id, role the caller's role.
type identityClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Identity verifies the bearer token on each request and stores the
// resulting authz.Identity in context locals. Everything past this
// middleware treats the identity as trusted; signature and expiry are
// checked only here.
func Identity(secret string) fiber.Handler {
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		auth := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		var claims identityClaims
		_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return key, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid subject claim")
		}
		role, err := authz.ParseRole(claims.Role)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid role claim")
		}

		c.Locals(IdentityLocalKey, authz.Identity{ID: id, Role: role})
		return c.Next()
	}
}

// IdentityFromCtx returns the identity stored by the Identity middleware.
func IdentityFromCtx(c *fiber.Ctx) (authz.Identity, bool) {
	id, ok := c.Locals(IdentityLocalKey).(authz.Identity)
	return id, ok
}
