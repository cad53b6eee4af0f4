package purchase

import (
	"context"
	"errors"
	"time"

	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrOrderNotFound = errors.New("purchase order not found")

type PurchaseRepository interface {
	CreateOrder(ctx context.Context, po *PurchaseOrder) error
	FindOrderBySession(ctx context.Context, sessionID string) (*PurchaseOrder, error)
	CreateDelivery(ctx context.Context, dt *DeliveryTracking) error
	FindDeliveryBySession(ctx context.Context, sessionID string) (*DeliveryTracking, error)
}

type PurchaseRepositoryImpl struct {
	Orders     *mongo.Collection
	Deliveries *mongo.Collection
}

func NewPurchaseRepository(mongodb *database.MongodbDB) PurchaseRepository {
	return &PurchaseRepositoryImpl{
		Orders:     mongodb.DB.Collection("purchase_orders"),
		Deliveries: mongodb.DB.Collection("delivery_tracking"),
	}
}

func (r *PurchaseRepositoryImpl) CreateOrder(ctx context.Context, po *PurchaseOrder) error {
	po.CreatedAt = time.Now()
	result, err := r.Orders.InsertOne(ctx, po)
	if err != nil {
		return err
	}
	po.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *PurchaseRepositoryImpl) FindOrderBySession(ctx context.Context, sessionID string) (*PurchaseOrder, error) {
	var po PurchaseOrder
	err := r.Orders.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&po)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &po, nil
}

func (r *PurchaseRepositoryImpl) CreateDelivery(ctx context.Context, dt *DeliveryTracking) error {
	now := time.Now()
	dt.CreatedAt = now
	dt.UpdatedAt = now
	result, err := r.Deliveries.InsertOne(ctx, dt)
	if err != nil {
		return err
	}
	dt.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *PurchaseRepositoryImpl) FindDeliveryBySession(ctx context.Context, sessionID string) (*DeliveryTracking, error) {
	var dt DeliveryTracking
	err := r.Deliveries.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&dt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &dt, nil
}
