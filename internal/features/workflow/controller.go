package workflow

import (
	"errors"
	"log"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type WorkflowController struct {
	Engine Engine
	Hub    *Hub
}

func NewWorkflowController(engine Engine, hub *Hub) *WorkflowController {
	return &WorkflowController{Engine: engine, Hub: hub}
}

// GetHistory godoc
// @Summary Transition history for a session
// @Tags workflow
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {array} models.StateTransition
// @Router /api/workflow/{sessionId}/history [get]
func (c *WorkflowController) GetHistory(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("sessionId")

	history, err := c.Engine.History(ctx.UserContext(), sessionID)
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, ErrSessionNotFound) {
			status = fiber.StatusNotFound
		}
		return ctx.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(history)
}

// HandleStatusStream pushes status-changed events to a connected admin
// client until it disconnects.
func (c *WorkflowController) HandleStatusStream(conn *websocket.Conn) {
	events, cancel := c.Hub.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				log.Println("status stream write:", err)
				return
			}
		case <-done:
			return
		}
	}
}
