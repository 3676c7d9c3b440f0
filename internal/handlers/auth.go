package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/skyvault/backend/internal/middleware"
	"github.com/skyvault/backend/internal/models"
	"github.com/skyvault/backend/pkg/logger"
	"github.com/skyvault/backend/pkg/utils"
	"gorm.io/gorm"
)

// AuthHandler implements the single-admin handshake: one password hash lives
// in the settings table, set once and checked at login.
type AuthHandler struct {
	DB *gorm.DB
}

func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{DB: db}
}

type passwordRequest struct {
	Password string `json:"password"`
}

func (h *AuthHandler) Setup(c *fiber.Ctx) error {
	var req passwordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "password is required")
	}

	var existing models.Setting
	err := h.DB.First(&existing, "key = ?", models.SettingAdminPasswordHash).Error
	if err == nil {
		return utils.Error(c, fiber.StatusForbidden, "system already setup")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking setup state")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed hashing password")
	}

	setting := models.Setting{Key: models.SettingAdminPasswordHash, Value: hash}
	if err := h.DB.Create(&setting).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed storing password")
	}

	logger.Info("system_setup_completed", map[string]interface{}{
		"ip": c.IP(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"isSetup": true})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req passwordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "password is required")
	}

	var record models.Setting
	err := h.DB.First(&record, "key = ?", models.SettingAdminPasswordHash).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusBadRequest, "system not setup")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading credentials")
	}

	if !utils.CheckPassword(req.Password, record.Value) {
		logger.Warn("login_failed", map[string]interface{}{
			"ip": c.IP(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid password")
	}

	token, err := utils.GenerateToken()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    token,
		Expires:  time.Now().Add(utils.TokenTTL()),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     "/",
	})

	logger.Info("login_success", map[string]interface{}{
		"ip": c.IP(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"token": token})
}

func (h *AuthHandler) Status(c *fiber.Ctx) error {
	var record models.Setting
	err := h.DB.First(&record, "key = ?", models.SettingAdminPasswordHash).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking setup state")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"isSetup": err == nil})
}
