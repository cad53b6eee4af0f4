package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

type ChannelContextKey string

const ChannelKey ChannelContextKey = "channel"

// ChannelMiddleware extracts the X-Channel header and adds it to the context
func ChannelMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		channel := c.Get("X-Channel")
		if channel != "" {
			ctx := context.WithValue(c.UserContext(), ChannelKey, channel)
			c.SetUserContext(ctx)
		}
		return c.Next()
	}
}
