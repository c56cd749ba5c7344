package middleware

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
)

// userKey is where the jwt middleware stores the parsed token.
const userKey = "user"

// Protected rejects requests without a valid HS256 bearer token.
func Protected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:    []byte(secret),
		SigningMethod: "HS256",
		ContextKey:    userKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized", "code": "UNAUTHORIZED"})
		},
	})
}

// UserID reads the user_id claim of the authenticated caller.
func UserID(c *fiber.Ctx) (int, error) {
	tok, ok := c.Locals(userKey).(*jwt.Token)
	if !ok || tok == nil {
		return 0, fiber.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fiber.ErrUnauthorized
	}

	var id int
	switch v := claims["user_id"].(type) {
	case float64:
		// JSON numbers decode as float64; 1.9 is not user 1
		if v != math.Trunc(v) || v < 1 || v > math.MaxInt32 {
			return 0, fiber.ErrUnauthorized
		}
		id = int(v)
	case int:
		id = v
	case int64:
		id = int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fiber.ErrUnauthorized
		}
		id = n
	default:
		return 0, fiber.ErrUnauthorized
	}
	// user ids are INT columns downstream
	if id <= 0 || id > math.MaxInt32 {
		return 0, fiber.ErrUnauthorized
	}
	return id, nil
}

// SignToken issues a token carrying userID, accepted by Protected.
func SignToken(secret string, userID int) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userID})
	return tok.SignedString([]byte(secret))
}
