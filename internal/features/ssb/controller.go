package ssb

import (
	"errors"

	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/features/workflow"

	"github.com/gofiber/fiber/v2"
)

type SSBController struct {
	Service SSBService
}

func NewSSBController(service SSBService) *SSBController {
	return &SSBController{Service: service}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrInvalidStateForDecision), errors.Is(err, workflow.ErrStaleTransition):
		return fiber.StatusConflict
	case errors.Is(err, ErrUnknownDecisionOutcome):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, workflow.ErrSessionNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// Initialize godoc
// @Summary Enter SSB decisioning
// @Tags ssb
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} models.ApplicationState
// @Router /api/ssb/{sessionId}/initialize [post]
func (c *SSBController) Initialize(ctx *fiber.Ctx) error {
	var body struct {
		Actor string `json:"actor"`
	}
	_ = ctx.BodyParser(&body)

	st, err := c.Service.InitializeSSBApplication(ctx.UserContext(), ctx.Params("sessionId"), body.Actor)
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(st)
}

// ProcessResponse godoc
// @Summary Apply an SSB back-office decision
// @Tags ssb
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param response body SSBResponse true "Decision payload"
// @Success 200 {object} models.ApplicationState
// @Failure 422 {object} map[string]string "Unknown response type"
// @Router /api/ssb/{sessionId}/response [post]
func (c *SSBController) ProcessResponse(ctx *fiber.Ctx) error {
	var body struct {
		SSBResponse
		Actor string `json:"actor"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	st, err := c.Service.ProcessSSBResponse(ctx.UserContext(), ctx.Params("sessionId"), body.SSBResponse, body.Actor)
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(st)
}
