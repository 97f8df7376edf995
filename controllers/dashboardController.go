package controllers

import "github.com/gofiber/fiber/v2"

// GET /api/dashboard
func (h *Handlers) GetDashboard(c *fiber.Ctx) error {
	stats, err := h.Stats.Dashboard(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// GET /api/admin/stats
func (h *Handlers) GetAdminStats(c *fiber.Ctx) error {
	stats, err := h.Stats.Admin(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(stats)
}
