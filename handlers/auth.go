// handlers/auth.go

package handlers

import (
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"logiclooper/database"
	"logiclooper/models"
	"logiclooper/services"
	"logiclooper/utils"
)

type GuestLoginRequest struct {
	Name string `json:"name,omitempty"`
}

type PhoneLoginRequest struct {
	AccessToken string `json:"accessToken"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Name        string `json:"name,omitempty"`
}

type UserInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	IsGuest     bool      `json:"is_guest"`
	AuthType    string    `json:"auth_type"`
	TotalPoints int       `json:"total_points"`
	StreakCount int       `json:"streak_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// identityVerifier is swapped for a fake in tests.
var identityVerifier services.IdentityVerifier

// SetIdentityVerifier installs the verifier used by PhoneLogin.
func SetIdentityVerifier(v services.IdentityVerifier) {
	identityVerifier = v
}

// GuestLogin creates a new guest account and session
func GuestLogin(c *fiber.Ctx) error {
	var req GuestLoginRequest

	// Empty body is fine, the name is optional
	_ = c.BodyParser(&req)

	db := database.GetDB()
	if db == nil {
		return utils.SendError(c, 500, utils.CodeInternalError, "Database not available")
	}

	name := req.Name
	if name == "" {
		name = fmt.Sprintf("Guest_%s", uuid.New().String()[:8])
	}

	user := models.User{
		ID:        uuid.New().String(),
		Name:      name,
		AuthType:  "guest",
		IsGuest:   true,
		CreatedAt: time.Now(),
		LastLogin: time.Now(),
	}

	if err := db.Create(&user).Error; err != nil {
		return utils.SendError(c, 500, utils.CodeInternalError, "Failed to create guest account")
	}

	token, err := generateToken(user)
	if err != nil {
		return utils.SendError(c, 500, utils.CodeInternalError, "Failed to generate token")
	}

	return utils.SendSuccess(c, fiber.Map{
		"token": token,
		"user":  toUserInfo(user),
	})
}

// PhoneLogin verifies a phone identity with the provider and signs the
// user in, creating the account on first login. A guest upgrading keeps
// their history because the guest user ID is carried in the JWT they
// present on sync, not rewritten here.
func PhoneLogin(c *fiber.Ctx) error {
	var req PhoneLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, 400, utils.CodeBadRequest, "Invalid request body")
	}
	if req.AccessToken == "" {
		return utils.SendError(c, 400, utils.CodeBadRequest, "accessToken is required")
	}

	verifier := identityVerifier
	if verifier == nil {
		return utils.SendError(c, 500, utils.CodeInternalError, "Identity verifier not configured")
	}

	identity, err := verifier.Verify(c.Context(), map[string]string{
		"accessToken": req.AccessToken,
		"phoneNumber": req.PhoneNumber,
		"name":        req.Name,
	})
	if err != nil {
		return utils.SendError(c, 401, utils.CodeUnauthorized, "Identity verification failed")
	}

	db := database.GetDB()
	if db == nil {
		return utils.SendError(c, 500, utils.CodeInternalError, "Database not available")
	}

	// The phone number doubles as the account alias. bcrypt of the
	// number is stored so a later credential flow has something to
	// compare against.
	var user models.User
	err = db.Where("phone = ?", identity.PhoneNumber).First(&user).Error
	if err != nil {
		hashed, herr := bcrypt.GenerateFromPassword([]byte(identity.PhoneNumber), bcrypt.DefaultCost)
		if herr != nil {
			return utils.SendError(c, 500, utils.CodeInternalError, "Failed to create account")
		}
		name := identity.Name
		if name == "" {
			name = req.Name
		}
		user = models.User{
			ID:        uuid.New().String(),
			Phone:     &identity.PhoneNumber,
			Name:      name,
			Password:  string(hashed),
			AuthType:  "phone",
			IsGuest:   false,
			CreatedAt: time.Now(),
			LastLogin: time.Now(),
		}
		if cerr := db.Create(&user).Error; cerr != nil {
			return utils.SendError(c, 500, utils.CodeInternalError, "Failed to create account")
		}
	} else {
		db.Model(&user).Updates(map[string]interface{}{"last_login": time.Now()})
	}

	token, err := generateToken(user)
	if err != nil {
		return utils.SendError(c, 500, utils.CodeInternalError, "Failed to generate token")
	}

	return utils.SendSuccess(c, fiber.Map{
		"token": token,
		"user":  toUserInfo(user),
	})
}

// Helper functions

func toUserInfo(user models.User) UserInfo {
	return UserInfo{
		ID:          user.ID,
		Name:        user.Name,
		IsGuest:     user.IsGuest,
		AuthType:    user.AuthType,
		TotalPoints: user.TotalPoints,
		StreakCount: user.StreakCount,
		CreatedAt:   user.CreatedAt,
	}
}

func generateToken(user models.User) (string, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "logiclooper-secret-change-in-production"
	}

	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Name,
		"is_guest": user.IsGuest,
		"exp":      time.Now().Add(time.Hour * 720).Unix(), // 30 days
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}
