package notification

import (
	"context"
	"fmt"

	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/common/models"

	"go.uber.org/zap"
)

// Dispatcher is fire-and-forget from the workflow's perspective: a
// failed send is logged and must never roll back the state transition
// that triggered it, so no method returns an error.
type Dispatcher interface {
	SendApplicationSubmitted(ctx context.Context, st *models.ApplicationState)
	SendStatusUpdate(ctx context.Context, st *models.ApplicationState, oldStep, newStep string)
	// SendDecision carries branch-specific text composed by the
	// decisioning service that knows the business meaning.
	SendDecision(ctx context.Context, st *models.ApplicationState, title, message string)
}

type DispatcherImpl struct {
	Repo   NotificationRepository
	Sender Sender
	Logger *zap.Logger
}

func NewDispatcher(repo NotificationRepository, sender Sender, logger *zap.Logger) Dispatcher {
	return &DispatcherImpl{
		Repo:   repo,
		Sender: sender,
		Logger: logger,
	}
}

func (d *DispatcherImpl) SendApplicationSubmitted(ctx context.Context, st *models.ApplicationState) {
	message := fmt.Sprintf(
		"Your application has been received. Quote reference code %s to resume or follow up on any channel.",
		st.ReferenceCode)
	d.dispatch(ctx, st, KindSubmission, "Application Received", message)
}

func (d *DispatcherImpl) SendStatusUpdate(ctx context.Context, st *models.ApplicationState, oldStep, newStep string) {
	message := fmt.Sprintf("Your application status changed from %s to %s.", oldStep, newStep)
	d.dispatch(ctx, st, KindStatusUpdate, "Application Update", message)
}

func (d *DispatcherImpl) SendDecision(ctx context.Context, st *models.ApplicationState, title, message string) {
	d.dispatch(ctx, st, KindDecision, title, message)
}

func (d *DispatcherImpl) dispatch(ctx context.Context, st *models.ApplicationState, kind NotificationKind, title, message string) {
	n := &OutboundNotification{
		SessionID: st.SessionID,
		Channel:   st.Channel,
		Recipient: st.UserIdentifier,
		Title:     title,
		Message:   message,
		Kind:      kind,
	}

	sendErr := d.Sender.Send(ctx, st.Channel, st.UserIdentifier, message)
	n.Delivered = sendErr == nil
	if sendErr != nil {
		d.Logger.Warn("notification send failed",
			zap.String("session_id", st.SessionID),
			zap.String("channel", st.Channel),
			zap.Error(sendErr))
	}

	if err := d.Repo.Create(ctx, n); err != nil {
		d.Logger.Warn("notification log write failed",
			zap.String("session_id", st.SessionID),
			zap.Error(err))
	}
}
