package purchase

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusFulfilled OrderStatus = "fulfilled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PurchaseOrder is created when an application is approved. Line-item
// management beyond this record lives in the inventory system.
type PurchaseOrder struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber    string             `bson:"order_number" json:"order_number"`
	SessionID      string             `bson:"session_id" json:"session_id"`
	UserIdentifier string             `bson:"user_identifier" json:"user_identifier"`
	Product        string             `bson:"product" json:"product"`
	LoanAmount     string             `bson:"loan_amount,omitempty" json:"loan_amount,omitempty"`
	PeriodMonths   int                `bson:"period_months,omitempty" json:"period_months,omitempty"`
	Status         OrderStatus        `bson:"status" json:"status"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}

type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending_dispatch"
	DeliveryStatusInTransit DeliveryStatus = "in_transit"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
)

// DeliveryTracking is initialized once per application; re-initializing
// is a no-op.
type DeliveryTracking struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID   string             `bson:"session_id" json:"session_id"`
	OrderNumber string             `bson:"order_number,omitempty" json:"order_number,omitempty"`
	Status      DeliveryStatus     `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
