package notification

import (
	"github.com/gofiber/fiber/v2"
)

type NotificationController struct {
	Repo NotificationRepository
}

func NewNotificationController(repo NotificationRepository) *NotificationController {
	return &NotificationController{Repo: repo}
}

// ListBySession godoc
// @Summary Outbound notifications for a session
// @Tags notifications
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {array} OutboundNotification
// @Router /api/notifications/{sessionId} [get]
func (c *NotificationController) ListBySession(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("sessionId")
	limit := int64(ctx.QueryInt("limit", 50))

	notifications, err := c.Repo.ListBySession(ctx.UserContext(), sessionID, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(notifications)
}
