package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/skyvault/backend/internal/storage"
	"github.com/skyvault/backend/pkg/utils"
)

// SetupHandler exposes one-time bucket configuration. Browsers PUT directly
// against presigned upload URLs, so the bucket needs a CORS rule first.
type SetupHandler struct {
	Store storage.ObjectStore
}

func NewSetupHandler(store storage.ObjectStore) *SetupHandler {
	return &SetupHandler{Store: store}
}

func (h *SetupHandler) ConfigureCORS(c *fiber.Ctx) error {
	if err := h.Store.SetupCORS(c.Context()); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed configuring bucket CORS")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "CORS configured"})
}
