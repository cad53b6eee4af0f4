package refcode

import (
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

type CodeApi struct {
	controller *CodeController
}

func NewCodeApi(controller *CodeController) api.Route {
	return &CodeApi{controller: controller}
}

func (h *CodeApi) Setup(app *fiber.App) {
	codes := app.Group("/api/codes")
	codes.Post("/resume", h.controller.Resume)
	codes.Post("/:sessionId/generate", h.controller.Generate)
	codes.Post("/:sessionId/assign", h.controller.Assign)
	codes.Get("/:code/validate", h.controller.Validate)
	codes.Post("/:code/extend", h.controller.Extend)
	codes.Get("/:code", h.controller.GetStateByCode)
}
