package appstate

import (
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

type StateApi struct {
	controller *StateController
}

func NewStateApi(controller *StateController) api.Route {
	return &StateApi{controller: controller}
}

func (h *StateApi) Setup(app *fiber.App) {
	sessions := app.Group("/api/sessions")
	sessions.Post("/state", h.controller.SaveState)
	sessions.Get("/state", h.controller.RetrieveState)
	sessions.Get("/check", h.controller.CheckExistingSession)
	sessions.Post("/link", h.controller.LinkSessions)
	sessions.Delete("/:sessionId", h.controller.DiscardSession)

	app.Post("/api/applications", h.controller.CreateApplication)
}
