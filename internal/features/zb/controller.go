package zb

import (
	"errors"

	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/features/workflow"

	"github.com/gofiber/fiber/v2"
)

type ZBController struct {
	Service ZBService
}

func NewZBController(service ZBService) *ZBController {
	return &ZBController{Service: service}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrInvalidStateForDecision),
		errors.Is(err, ErrCheckerReviewMissing),
		errors.Is(err, workflow.ErrStaleTransition):
		return fiber.StatusConflict
	case errors.Is(err, ErrAutomatedCheckFailed):
		return fiber.StatusBadGateway
	case errors.Is(err, workflow.ErrSessionNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

type decisionBody struct {
	Notes             string `json:"notes"`
	Actor             string `json:"actor"`
	Outcome           string `json:"outcome"`
	RecommendedPeriod int    `json:"recommended_period"`
}

// Initialize godoc
// @Summary Enter ZB decisioning
// @Tags zb
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} models.ApplicationState
// @Router /api/zb/{sessionId}/initialize [post]
func (c *ZBController) Initialize(ctx *fiber.Ctx) error {
	var body decisionBody
	_ = ctx.BodyParser(&body)

	st, err := c.Service.InitializeZBApplication(ctx.UserContext(), ctx.Params("sessionId"), body.Actor)
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(st)
}

// CreditCheck godoc
// @Summary Record a credit bureau outcome
// @Tags zb
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param body body decisionBody true "outcome is good or poor"
// @Success 200 {object} models.ApplicationState
// @Router /api/zb/{sessionId}/credit-check [post]
func (c *ZBController) CreditCheck(ctx *fiber.Ctx) error {
	var body decisionBody
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	var (
		st  any
		err error
	)
	switch body.Outcome {
	case "good":
		st, err = c.Service.ProcessCreditCheckGood(ctx.UserContext(), ctx.Params("sessionId"), body.Notes, body.Actor)
	case "poor":
		st, err = c.Service.ProcessCreditCheckPoor(ctx.UserContext(), ctx.Params("sessionId"), body.Notes, body.Actor)
	default:
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "outcome must be good or poor"})
	}
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(st)
}

// SalaryNotRegular godoc
// @Summary Reject for irregular salary deposits
// @Tags zb
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} models.ApplicationState
// @Router /api/zb/{sessionId}/salary-not-regular [post]
func (c *ZBController) SalaryNotRegular(ctx *fiber.Ctx) error {
	var body decisionBody
	_ = ctx.BodyParser(&body)

	st, err := c.Service.ProcessSalaryNotRegular(ctx.UserContext(), ctx.Params("sessionId"), body.Notes, body.Actor)
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(st)
}

// InsufficientSalary godoc
// @Summary Offer an adjusted repayment period
// @Tags zb
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param body body decisionBody true "recommended_period must be positive"
// @Success 200 {object} models.ApplicationState
// @Router /api/zb/{sessionId}/insufficient-salary [post]
func (c *ZBController) InsufficientSalary(ctx *fiber.Ctx) error {
	var body decisionBody
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	st, err := c.Service.ProcessInsufficientSalary(ctx.UserContext(), ctx.Params("sessionId"), body.RecommendedPeriod, body.Notes, body.Actor)
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(st)
}

// Approve godoc
// @Summary Terminal approval
// @Tags zb
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} models.ApplicationState
// @Router /api/zb/{sessionId}/approve [post]
func (c *ZBController) Approve(ctx *fiber.Ctx) error {
	var body decisionBody
	_ = ctx.BodyParser(&body)

	st, err := c.Service.ProcessApproved(ctx.UserContext(), ctx.Params("sessionId"), body.Notes, body.Actor)
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(st)
}

// CheckerReview godoc
// @Summary Record the first-stage document review
// @Tags zb
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param review body CheckerReview true "Checklist"
// @Success 200 {object} models.ApplicationState
// @Router /api/zb/{sessionId}/checker-review [post]
func (c *ZBController) CheckerReview(ctx *fiber.Ctx) error {
	var body struct {
		CheckerReview
		Actor string `json:"actor"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	st, err := c.Service.ProcessCheckerReview(ctx.UserContext(), ctx.Params("sessionId"), body.CheckerReview, body.Actor)
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(st)
}

// ApproverDecision godoc
// @Summary Record the second-stage review decision
// @Tags zb
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} models.ApplicationState
// @Failure 409 {object} map[string]string "Checker review missing or state moved"
// @Router /api/zb/{sessionId}/approver-decision [post]
func (c *ZBController) ApproverDecision(ctx *fiber.Ctx) error {
	var body struct {
		Approve bool   `json:"approve"`
		Reason  string `json:"reason"`
		Actor   string `json:"actor"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	st, err := c.Service.ProcessApproverDecision(ctx.UserContext(), ctx.Params("sessionId"), body.Approve, body.Reason, body.Actor)
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(st)
}
