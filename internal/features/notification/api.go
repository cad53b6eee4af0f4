package notification

import (
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

type NotificationApi struct {
	controller *NotificationController
}

func NewNotificationApi(controller *NotificationController) api.Route {
	return &NotificationApi{controller: controller}
}

func (h *NotificationApi) Setup(app *fiber.App) {
	app.Get("/api/notifications/:sessionId", h.controller.ListBySession)
}
