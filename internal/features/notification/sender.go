package notification

import (
	"context"

	"go.uber.org/zap"
)

// Sender is the channel transport boundary. SMS/WhatsApp gateway
// integrations implement it outside this service.
type Sender interface {
	Send(ctx context.Context, channel, recipient, message string) error
}

// LoggingSender is the default transport: it logs the message instead
// of delivering it. Used in development and in tests.
type LoggingSender struct {
	Logger *zap.Logger
}

func NewLoggingSender(logger *zap.Logger) Sender {
	return &LoggingSender{Logger: logger}
}

func (s *LoggingSender) Send(ctx context.Context, channel, recipient, message string) error {
	s.Logger.Info("outbound notification",
		zap.String("channel", channel),
		zap.String("recipient", recipient),
		zap.String("message", message))
	return nil
}
