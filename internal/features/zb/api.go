package zb

import (
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

type ZBApi struct {
	controller *ZBController
}

func NewZBApi(controller *ZBController) api.Route {
	return &ZBApi{controller: controller}
}

func (h *ZBApi) Setup(app *fiber.App) {
	group := app.Group("/api/zb")
	group.Post("/:sessionId/initialize", h.controller.Initialize)
	group.Post("/:sessionId/credit-check", h.controller.CreditCheck)
	group.Post("/:sessionId/salary-not-regular", h.controller.SalaryNotRegular)
	group.Post("/:sessionId/insufficient-salary", h.controller.InsufficientSalary)
	group.Post("/:sessionId/approve", h.controller.Approve)
	group.Post("/:sessionId/checker-review", h.controller.CheckerReview)
	group.Post("/:sessionId/approver-decision", h.controller.ApproverDecision)
}
