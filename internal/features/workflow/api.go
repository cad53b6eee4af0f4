package workflow

import (
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/common/api"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type WorkflowApi struct {
	controller *WorkflowController
}

func NewWorkflowApi(controller *WorkflowController) api.Route {
	return &WorkflowApi{controller: controller}
}

func (h *WorkflowApi) Setup(app *fiber.App) {
	app.Get("/api/workflow/:sessionId/history", h.controller.GetHistory)
	app.Get("/api/ws/status", websocket.New(h.controller.HandleStatusStream))
}
