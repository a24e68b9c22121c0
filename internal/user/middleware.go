package user

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// RequireAdmin rejects callers whose token does not carry user_type=admin.
// It must run after the JWT middleware.
func RequireAdmin(c *fiber.Ctx) error {
	role, err := GetRoleFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "No token, authorization denied"})
	}
	if role != RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Forbidden: Admin access required"})
	}
	return c.Next()
}

func claimsFromCtx(c *fiber.Ctx) (jwt.MapClaims, error) {
	u := c.Locals("user")
	if u == nil {
		return nil, fiber.ErrUnauthorized
	}
	tok, ok := u.(*jwt.Token)
	if !ok {
		return nil, fiber.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

// GetUserIDFromCtx extracts the user_id claim from the JWT token stored
// in `c.Locals("user")`.
func GetUserIDFromCtx(c *fiber.Ctx) (int, error) {
	claims, err := claimsFromCtx(c)
	if err != nil {
		return 0, err
	}
	raw, ok := claims["user_id"]
	if !ok {
		return 0, fiber.ErrUnauthorized
	}
	switch v := raw.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case string:
		id, err := strconv.Atoi(v)
		if err != nil {
			return 0, fiber.ErrUnauthorized
		}
		return id, nil
	default:
		return 0, fiber.ErrUnauthorized
	}
}

func GetRoleFromCtx(c *fiber.Ctx) (Role, error) {
	claims, err := claimsFromCtx(c)
	if err != nil {
		return "", err
	}
	role, _ := claims["user_type"].(string)
	return Role(role), nil
}

// Identity is the caller as described by the token claims.
type Identity struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"user_type"`
}

func IdentityFromCtx(c *fiber.Ctx) (Identity, error) {
	id, err := GetUserIDFromCtx(c)
	if err != nil {
		return Identity{}, err
	}
	claims, _ := claimsFromCtx(c)
	username, _ := claims["username"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["user_type"].(string)
	return Identity{ID: id, Username: username, Email: email, Role: Role(role)}, nil
}
