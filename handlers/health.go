package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursecheckout-api/database"
	"github.com/sahilchouksey/coursecheckout-api/utils/response"
)

// HandleCheckHealth reports whether the API and its database are reachable
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	if err := store.HealthCheck(); err != nil {
		return response.ServiceUnavailable(c, "Database unavailable")
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
