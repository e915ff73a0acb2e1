// middleware/auth.go
package middleware

import (
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"logiclooper/database"
	"logiclooper/models"
	"logiclooper/utils"
)

func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "logiclooper-secret-change-in-production"
	}
	return []byte(secret)
}

func parseToken(tokenString string) (jwt.MapClaims, bool) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(401, "Invalid signing method")
		}
		return jwtSecret(), nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}

	exp, ok := claims["exp"].(float64)
	if !ok || time.Unix(int64(exp), 0).Before(time.Now()) {
		return nil, false
	}
	return claims, true
}

func AuthMiddleware(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return utils.SendError(c, 401, utils.CodeUnauthorized, "Missing authorization header")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return utils.SendError(c, 401, utils.CodeUnauthorized, "Invalid authorization header format")
	}

	claims, ok := parseToken(parts[1])
	if !ok {
		return utils.SendError(c, 401, utils.CodeUnauthorized, "Invalid or expired token")
	}

	c.Locals("userId", claims["user_id"])
	c.Locals("username", claims["username"])
	c.Locals("isGuest", claims["is_guest"])

	// Update user's last activity
	updateUserActivity(claims["user_id"])

	return c.Next()
}

func GetUserID(c *fiber.Ctx) (string, error) {
	userID := c.Locals("userId")
	if userID == nil {
		return "", fiber.NewError(401, "User not authenticated")
	}

	if id, ok := userID.(string); ok && id != "" {
		return id, nil
	}

	return "", fiber.NewError(401, "Invalid user ID format")
}

func GetUsername(c *fiber.Ctx) (string, error) {
	username := c.Locals("username")
	if username == nil {
		return "", fiber.NewError(401, "User not authenticated")
	}

	if name, ok := username.(string); ok {
		return name, nil
	}

	return "", fiber.NewError(401, "Invalid username format")
}

func IsGuest(c *fiber.Ctx) bool {
	isGuest := c.Locals("isGuest")
	if isGuest == nil {
		return false
	}

	if guest, ok := isGuest.(bool); ok {
		return guest
	}

	return false
}

// WebSocketAuthMiddleware validates JWT for WebSocket upgrades. Accepts
// the token from the Authorization header, a cookie, or the ?token= query
// parameter, since browser WebSocket clients cannot set headers.
func WebSocketAuthMiddleware(c *fiber.Ctx) error {
	var tokenString string

	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = parts[1]
		}
	}

	if tokenString == "" {
		tokenString = c.Cookies("token")
	}
	if tokenString == "" {
		tokenString = c.Query("token")
	}

	if tokenString == "" {
		return utils.SendError(c, 401, utils.CodeUnauthorized, "Missing token")
	}

	claims, ok := parseToken(tokenString)
	if !ok {
		return utils.SendError(c, 401, utils.CodeUnauthorized, "Invalid or expired token")
	}

	c.Locals("userId", claims["user_id"])
	c.Locals("username", claims["username"])
	c.Locals("isGuest", claims["is_guest"])

	return c.Next()
}

// updateUserActivity updates the user's last login timestamp
func updateUserActivity(userID interface{}) {
	id, ok := userID.(string)
	if !ok || id == "" {
		return
	}

	db := database.GetDB()
	if db == nil {
		return
	}

	now := time.Now()
	db.Model(&models.User{}).Where("id = ?", id).Update("last_login", now)
}
