package purchase

import (
	"context"
	"errors"
	"fmt"

	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/common/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PurchaseService interface {
	// CreateFromApplication is called synchronously inside the approve
	// path; its failure must abort the enclosing transition. Calling it
	// again for the same session returns the existing order.
	CreateFromApplication(ctx context.Context, st *models.ApplicationState) (*PurchaseOrder, error)
	// CreateDeliveryTracking is idempotent and safe to retry.
	CreateDeliveryTracking(ctx context.Context, st *models.ApplicationState) error
}

type PurchaseServiceImpl struct {
	Repo   PurchaseRepository
	Logger *zap.Logger
}

func NewPurchaseService(repo PurchaseRepository, logger *zap.Logger) PurchaseService {
	return &PurchaseServiceImpl{Repo: repo, Logger: logger}
}

func (s *PurchaseServiceImpl) CreateFromApplication(ctx context.Context, st *models.ApplicationState) (*PurchaseOrder, error) {
	existing, err := s.Repo.FindOrderBySession(ctx, st.SessionID)
	if err != nil && !errors.Is(err, ErrOrderNotFound) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	po := &PurchaseOrder{
		OrderNumber:    uuid.NewString(),
		SessionID:      st.SessionID,
		UserIdentifier: st.UserIdentifier,
		Status:         OrderStatusOpen,
	}
	if product, ok := st.FormData["product"].(string); ok {
		po.Product = product
	}
	if amount, ok := st.FormData["loan_amount"].(string); ok {
		po.LoanAmount = amount
	}
	switch period := st.FormData["repayment_period"].(type) {
	case int:
		po.PeriodMonths = period
	case int32:
		po.PeriodMonths = int(period)
	case int64:
		po.PeriodMonths = int(period)
	case float64:
		po.PeriodMonths = int(period)
	}

	if err := s.Repo.CreateOrder(ctx, po); err != nil {
		return nil, fmt.Errorf("create purchase order: %w", err)
	}

	s.Logger.Info("purchase order created",
		zap.String("session_id", st.SessionID),
		zap.String("order_number", po.OrderNumber))
	return po, nil
}

func (s *PurchaseServiceImpl) CreateDeliveryTracking(ctx context.Context, st *models.ApplicationState) error {
	existing, err := s.Repo.FindDeliveryBySession(ctx, st.SessionID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	dt := &DeliveryTracking{
		SessionID: st.SessionID,
		Status:    DeliveryStatusPending,
	}
	if po, err := s.Repo.FindOrderBySession(ctx, st.SessionID); err == nil {
		dt.OrderNumber = po.OrderNumber
	}

	return s.Repo.CreateDelivery(ctx, dt)
}
