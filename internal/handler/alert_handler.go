package handler

import (
	"comercial-stock-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AlertHandler struct {
	alertService service.AlertService
}

func NewAlertHandler(alertService service.AlertService) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

// GetAlerts returns stock alerts for the requested scope
// GET /api/v1/alerts?type=low-stock|out-of-stock
func (h *AlertHandler) GetAlerts(c *fiber.Ctx) error {
	scope := c.Query("type", service.AlertScopeLowStock)

	alerts, err := h.alertService.ComputeAlerts(scope)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"data":  alerts,
		"total": len(alerts),
	})
}

// GetBadges returns the alert counters for the dashboard header
// GET /api/v1/alerts/badges
func (h *AlertHandler) GetBadges(c *fiber.Ctx) error {
	badges, err := h.alertService.Badges()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(badges)
}
