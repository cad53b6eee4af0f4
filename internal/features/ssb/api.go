package ssb

import (
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

type SSBApi struct {
	controller *SSBController
}

func NewSSBApi(controller *SSBController) api.Route {
	return &SSBApi{controller: controller}
}

func (h *SSBApi) Setup(app *fiber.App) {
	group := app.Group("/api/ssb")
	group.Post("/:sessionId/initialize", h.controller.Initialize)
	group.Post("/:sessionId/response", h.controller.ProcessResponse)
}
