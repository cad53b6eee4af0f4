package refcode

import (
	"errors"

	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type CodeController struct {
	Service Service
}

func NewCodeController(service Service) *CodeController {
	return &CodeController{Service: service}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadCodeFormat):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrInvalidCode), errors.Is(err, ErrSessionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrCodeAlreadyAssigned):
		return fiber.StatusConflict
	case errors.Is(err, ErrCodeSpaceExhausted):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// Generate godoc
// @Summary Issue a reference code for a session
// @Tags codes
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string "Code space exhausted"
// @Router /api/codes/{sessionId}/generate [post]
func (c *CodeController) Generate(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("sessionId")

	code, err := c.Service.Generate(ctx.UserContext(), sessionID)
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"reference_code": code})
}

// Validate godoc
// @Summary Check whether a reference code is valid
// @Tags codes
// @Produce json
// @Param code path string true "Reference Code"
// @Success 200 {object} map[string]bool
// @Router /api/codes/{code}/validate [get]
func (c *CodeController) Validate(ctx *fiber.Ctx) error {
	valid, err := c.Service.Validate(ctx.UserContext(), ctx.Params("code"))
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"valid": valid})
}

// GetStateByCode godoc
// @Summary Resolve an application by reference code
// @Description May extend the code's validity (renew-on-touch). Returns a resume token for the channel adapter.
// @Tags codes
// @Produce json
// @Param code path string true "Reference Code"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Invalid or expired code"
// @Router /api/codes/{code} [get]
func (c *CodeController) GetStateByCode(ctx *fiber.Ctx) error {
	st, token, err := c.Service.GetStateByCode(ctx.UserContext(), ctx.Params("code"))
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"state": st, "resume_token": token})
}

// Extend godoc
// @Summary Explicitly renew a reference code
// @Tags codes
// @Produce json
// @Param code path string true "Reference Code"
// @Success 200 {object} map[string]interface{}
// @Router /api/codes/{code}/extend [post]
func (c *CodeController) Extend(ctx *fiber.Ctx) error {
	expiresAt, err := c.Service.Extend(ctx.UserContext(), ctx.Params("code"))
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"reference_code_expires_at": expiresAt})
}

// Assign stores a caller-supplied code for a session.
func (c *CodeController) Assign(ctx *fiber.Ctx) error {
	var body struct {
		Code string `json:"code"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.Service.AssignCode(ctx.UserContext(), ctx.Params("sessionId"), body.Code); err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"message": "Code assigned"})
}

// Resume validates a resume token minted by GetStateByCode.
func (c *CodeController) Resume(ctx *fiber.Ctx) error {
	var body struct {
		Token string `json:"token"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	claims, err := utils.ValidateResumeToken(body.Token)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid resume token"})
	}
	return ctx.JSON(fiber.Map{"session_id": claims.SessionID, "channel": claims.Channel})
}
