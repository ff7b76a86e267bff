package handlers

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/storefront/order-service/internal/domain"
	sharedHTTP "github.com/storefront/order-service/pkg/http"
)

const (
	identityKey = "identity"
	adminRole   = "ADMIN"
)

// Authenticate validates the HS256 bearer token and stores the caller's
// identity in the request locals.
func Authenticate(secret string) fiber.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return sharedHTTP.UnauthorizedResponse(c, "missing token")
		}

		parts := strings.Fields(raw)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return sharedHTTP.UnauthorizedResponse(c, "invalid token format")
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			log.Printf("[AUTH] token validation failed: %v", err)
			return sharedHTTP.UnauthorizedResponse(c, "invalid token")
		}

		identity, err := identityFromClaims(claims)
		if err != nil {
			log.Printf("[AUTH] %v", err)
			return sharedHTTP.UnauthorizedResponse(c, "invalid token")
		}

		c.Locals(identityKey, identity)
		return c.Next()
	}
}

func identityFromClaims(claims jwt.MapClaims) (domain.Identity, error) {
	var userID int64
	switch sub := claims["sub"].(type) {
	case string:
		id, err := strconv.ParseInt(sub, 10, 64)
		if err != nil {
			return domain.Identity{}, fmt.Errorf("sub claim is not numeric: %q", sub)
		}
		userID = id
	case float64:
		userID = int64(sub)
	default:
		return domain.Identity{}, fmt.Errorf("sub claim missing")
	}
	if userID <= 0 {
		return domain.Identity{}, fmt.Errorf("sub claim must be positive")
	}

	identity := domain.Identity{UserID: userID}
	identity.Email, _ = claims["email"].(string)

	if roles, ok := claims["roles"].([]interface{}); ok {
		for _, role := range roles {
			name, _ := role.(string)
			name = strings.TrimPrefix(strings.ToUpper(name), "ROLE_")
			if name == adminRole {
				identity.Admin = true
			}
		}
	}
	return identity, nil
}

func identityFrom(c *fiber.Ctx) domain.Identity {
	identity, _ := c.Locals(identityKey).(domain.Identity)
	return identity
}
