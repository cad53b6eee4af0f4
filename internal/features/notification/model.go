package notification

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationKind string

const (
	KindSubmission   NotificationKind = "submission"
	KindStatusUpdate NotificationKind = "status_update"
	KindDecision     NotificationKind = "decision"
)

// OutboundNotification is the persisted record of a message handed to a
// channel transport. Delivery is best-effort; the record is kept either
// way so support can see what the applicant was told.
type OutboundNotification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"`
	Channel   string             `bson:"channel" json:"channel"`
	Recipient string             `bson:"recipient" json:"recipient"`
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	Kind      NotificationKind   `bson:"kind" json:"kind"`
	Delivered bool               `bson:"delivered" json:"delivered"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
