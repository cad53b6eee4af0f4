package appstate

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type StateController struct {
	Service StateService
}

func NewStateController(service StateService) *StateController {
	return &StateController{Service: service}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrDuplicateSession):
		return fiber.StatusConflict
	case errors.Is(err, ErrNotImplemented):
		return fiber.StatusNotImplemented
	default:
		return fiber.StatusInternalServerError
	}
}

// SaveState godoc
// @Summary Save one step's state for a session
// @Description Upserts form data and step for a session; form_data and metadata are merged, not replaced
// @Tags sessions
// @Accept json
// @Produce json
// @Param state body SaveStateInput true "Step contribution"
// @Success 200 {object} models.ApplicationState
// @Failure 400 {object} map[string]string "Invalid request body"
// @Router /api/sessions/state [post]
func (c *StateController) SaveState(ctx *fiber.Ctx) error {
	var input SaveStateInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	input.ClientIP = ctx.IP()

	st, err := c.Service.SaveState(ctx.UserContext(), input)
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(st)
}

// RetrieveState godoc
// @Summary Resume a session by user identifier
// @Tags sessions
// @Produce json
// @Param identifier query string true "User identifier"
// @Param channel query string false "Channel"
// @Success 200 {object} models.ApplicationState
// @Failure 404 {object} map[string]string "No resumable session"
// @Router /api/sessions/state [get]
func (c *StateController) RetrieveState(ctx *fiber.Ctx) error {
	identifier := ctx.Query("identifier")
	channel := ctx.Query("channel")

	st, err := c.Service.RetrieveState(ctx.UserContext(), identifier, channel)
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(st)
}

// CreateApplication godoc
// @Summary Final submission of an application
// @Description Issues the reference code and moves the application into its product's verification step
// @Tags applications
// @Accept json
// @Produce json
// @Param body body object true "Session and actor"
// @Success 200 {object} models.ApplicationState
// @Failure 409 {object} map[string]string "Duplicate active session"
// @Router /api/applications [post]
func (c *StateController) CreateApplication(ctx *fiber.Ctx) error {
	var body struct {
		SessionID string `json:"session_id"`
		Actor     string `json:"actor"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	st, err := c.Service.CreateApplication(ctx.UserContext(), body.SessionID, body.Actor)
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(st)
}

// CheckExistingSession godoc
// @Summary Check for an in-flight duplicate application by phone
// @Tags sessions
// @Produce json
// @Param phone query string true "Phone number"
// @Param exclude_session query string false "Session to exclude from the check"
// @Success 200 {object} DuplicateCheckResult
// @Router /api/sessions/check [get]
func (c *StateController) CheckExistingSession(ctx *fiber.Ctx) error {
	phone := ctx.Query("phone")
	exclude := ctx.Query("exclude_session")

	result, err := c.Service.CheckExistingSession(ctx.UserContext(), phone, exclude)
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(result)
}

// DiscardSession godoc
// @Summary Hard-delete an abandoned duplicate session
// @Tags sessions
// @Param sessionId path string true "Session ID"
// @Success 204 {object} nil "No Content"
// @Router /api/sessions/{sessionId} [delete]
func (c *StateController) DiscardSession(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("sessionId")
	if err := c.Service.DiscardSession(ctx.UserContext(), sessionID); err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *StateController) LinkSessions(ctx *fiber.Ctx) error {
	var body struct {
		PrimarySessionID   string `json:"primary_session_id"`
		SecondarySessionID string `json:"secondary_session_id"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.Service.LinkSessions(ctx.UserContext(), body.PrimarySessionID, body.SecondarySessionID); err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}
