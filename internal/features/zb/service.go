package zb

import (
	"context"
	"fmt"
	"time"

	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/common/models"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/features/purchase"

	"go.uber.org/zap"
)

// StateStore reads and annotates the authoritative state; satisfied by
// the appstate repository, wired in main. Decisioning never trusts the
// cache.
type StateStore interface {
	FindBySession(ctx context.Context, sessionID string) (*models.ApplicationState, error)
	MergeMetadata(ctx context.Context, sessionID string, metadata map[string]any) error
}

type Engine interface {
	Transition(ctx context.Context, sessionID, fromExpected, to string, data map[string]any) (*models.ApplicationState, error)
}

type Dispatcher interface {
	SendStatusUpdate(ctx context.Context, st *models.ApplicationState, oldStep, newStep string)
	SendDecision(ctx context.Context, st *models.ApplicationState, title, message string)
}

type OrderCreator interface {
	CreateFromApplication(ctx context.Context, st *models.ApplicationState) (*purchase.PurchaseOrder, error)
	CreateDeliveryTracking(ctx context.Context, st *models.ApplicationState) error
}

// AutomatedCheckRunner is the post-approval verification hook. The
// default runner accepts everything; deployments plug in their own.
type AutomatedCheckRunner interface {
	Run(ctx context.Context, st *models.ApplicationState) error
}

type PassthroughCheckRunner struct{}

func (PassthroughCheckRunner) Run(ctx context.Context, st *models.ApplicationState) error {
	return nil
}

const blacklistReportOffer = "Your application was declined due to a poor credit record. " +
	"You can order a detailed blacklist report for a once-off fee of USD 5 to review and resolve your credit standing."

type ZBService interface {
	// InitializeZBApplication moves the application into the pending
	// decisioning step. Re-entering while already pending is a no-op.
	InitializeZBApplication(ctx context.Context, sessionID, actor string) (*models.ApplicationState, error)
	ProcessCreditCheckGood(ctx context.Context, sessionID, notes, actor string) (*models.ApplicationState, error)
	ProcessCreditCheckPoor(ctx context.Context, sessionID, notes, actor string) (*models.ApplicationState, error)
	ProcessSalaryNotRegular(ctx context.Context, sessionID, notes, actor string) (*models.ApplicationState, error)
	ProcessInsufficientSalary(ctx context.Context, sessionID string, recommendedPeriod int, notes, actor string) (*models.ApplicationState, error)
	// ProcessApproved is the terminal approval. Calling it against an
	// already approved application is a no-op.
	ProcessApproved(ctx context.Context, sessionID, notes, actor string) (*models.ApplicationState, error)
	// ProcessCheckerReview records the first-stage checklist. A failing
	// check rejects the application immediately.
	ProcessCheckerReview(ctx context.Context, sessionID string, review CheckerReview, actor string) (*models.ApplicationState, error)
	// ProcessApproverDecision is the second-stage review. The purchase
	// order is created before the approving transition, so an order
	// failure leaves the application awaiting approval.
	ProcessApproverDecision(ctx context.Context, sessionID string, approve bool, reason, actor string) (*models.ApplicationState, error)
}

type ZBServiceImpl struct {
	Store      StateStore
	Engine     Engine
	Dispatcher Dispatcher
	Orders     OrderCreator
	Checks     AutomatedCheckRunner
	Logger     *zap.Logger
}

func NewZBService(store StateStore, engine Engine, dispatcher Dispatcher, orders OrderCreator, checks AutomatedCheckRunner, logger *zap.Logger) ZBService {
	return &ZBServiceImpl{
		Store:      store,
		Engine:     engine,
		Dispatcher: dispatcher,
		Orders:     orders,
		Checks:     checks,
		Logger:     logger,
	}
}

func (s *ZBServiceImpl) InitializeZBApplication(ctx context.Context, sessionID, actor string) (*models.ApplicationState, error) {
	st, err := s.Store.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if st.CurrentStep == models.StepZBPending {
		return st, nil
	}
	if !canTransition(st.CurrentStep, models.StepZBPending) {
		return nil, fmt.Errorf("%w: current step %q", ErrInvalidStateForDecision, st.CurrentStep)
	}

	updated, err := s.Engine.Transition(ctx, sessionID, st.CurrentStep, models.StepZBPending, map[string]any{
		"actor":  actor,
		"reason": "zb decisioning initialized",
	})
	if err != nil {
		return nil, err
	}

	s.Dispatcher.SendStatusUpdate(ctx, updated, st.CurrentStep, models.StepZBPending)
	return updated, nil
}

// requirePending loads the state and rejects decisioning calls from
// outside the pending-decision steps.
func (s *ZBServiceImpl) requirePending(ctx context.Context, sessionID string) (*models.ApplicationState, error) {
	st, err := s.Store.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !pendingDecisionSteps[st.CurrentStep] {
		return nil, fmt.Errorf("%w: current step %q", ErrInvalidStateForDecision, st.CurrentStep)
	}
	return st, nil
}

func (s *ZBServiceImpl) ProcessCreditCheckGood(ctx context.Context, sessionID, notes, actor string) (*models.ApplicationState, error) {
	st, err := s.requirePending(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// The order is created before the approving transition. If it
	// fails the session stays in its pending step.
	order, err := s.Orders.CreateFromApplication(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("create purchase order: %w", err)
	}

	updated, err := s.Engine.Transition(ctx, sessionID, st.CurrentStep, models.StepApproved, map[string]any{
		"actor":        actor,
		"outcome":      "credit_check_good",
		"order_number": order.OrderNumber,
		"notes":        notes,
	})
	if err != nil {
		return nil, err
	}

	s.Dispatcher.SendDecision(ctx, updated, "Application Approved",
		"Congratulations! Your credit check was successful and your application has been approved.")

	if err := s.Orders.CreateDeliveryTracking(ctx, updated); err != nil {
		s.Logger.Error("delivery tracking initialization failed",
			zap.String("session_id", sessionID), zap.Error(err))
	}

	return updated, nil
}

func (s *ZBServiceImpl) ProcessCreditCheckPoor(ctx context.Context, sessionID, notes, actor string) (*models.ApplicationState, error) {
	st, err := s.requirePending(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	updated, err := s.Engine.Transition(ctx, sessionID, st.CurrentStep, models.StepRejected, map[string]any{
		"actor":   actor,
		"outcome": "credit_check_poor",
		"notes":   notes,
	})
	if err != nil {
		return nil, err
	}

	s.Dispatcher.SendDecision(ctx, updated, "Application Declined", blacklistReportOffer)
	return updated, nil
}

func (s *ZBServiceImpl) ProcessSalaryNotRegular(ctx context.Context, sessionID, notes, actor string) (*models.ApplicationState, error) {
	st, err := s.requirePending(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	updated, err := s.Engine.Transition(ctx, sessionID, st.CurrentStep, models.StepRejected, map[string]any{
		"actor":   actor,
		"outcome": "salary_not_regular",
		"notes":   notes,
	})
	if err != nil {
		return nil, err
	}

	s.Dispatcher.SendDecision(ctx, updated, "Application Declined",
		"Unfortunately your application was not successful because your salary deposits are not regular.")
	return updated, nil
}

func (s *ZBServiceImpl) ProcessInsufficientSalary(ctx context.Context, sessionID string, recommendedPeriod int, notes, actor string) (*models.ApplicationState, error) {
	if recommendedPeriod <= 0 {
		return nil, fmt.Errorf("%w: insufficient_salary requires a positive recommended period", ErrValidation)
	}

	st, err := s.requirePending(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	updated, err := s.Engine.Transition(ctx, sessionID, st.CurrentStep, models.StepInsufficientSalaryOffer, map[string]any{
		"actor":              actor,
		"outcome":            "insufficient_salary",
		"recommended_period": recommendedPeriod,
		"notes":              notes,
	})
	if err != nil {
		return nil, err
	}

	s.Dispatcher.SendDecision(ctx, updated, "Alternative Offer",
		fmt.Sprintf("Your salary does not support the requested repayment period. We can offer you the same product over %d months instead.", recommendedPeriod))
	return updated, nil
}

func (s *ZBServiceImpl) ProcessApproved(ctx context.Context, sessionID, notes, actor string) (*models.ApplicationState, error) {
	st, err := s.Store.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if st.CurrentStep == models.StepApproved {
		return st, nil
	}
	if !pendingDecisionSteps[st.CurrentStep] {
		return nil, fmt.Errorf("%w: current step %q", ErrInvalidStateForDecision, st.CurrentStep)
	}

	updated, err := s.Engine.Transition(ctx, sessionID, st.CurrentStep, models.StepApproved, map[string]any{
		"actor":   actor,
		"outcome": "approved",
		"notes":   notes,
	})
	if err != nil {
		return nil, err
	}

	s.Dispatcher.SendDecision(ctx, updated, "Application Approved",
		"Your application has been approved. You will be contacted about delivery shortly.")

	if err := s.Orders.CreateDeliveryTracking(ctx, updated); err != nil {
		s.Logger.Error("delivery tracking initialization failed",
			zap.String("session_id", sessionID), zap.Error(err))
	}
	return updated, nil
}

func (s *ZBServiceImpl) ProcessCheckerReview(ctx context.Context, sessionID string, review CheckerReview, actor string) (*models.ApplicationState, error) {
	if err := review.validate(); err != nil {
		return nil, fmt.Errorf("%w: installment_sufficiency must be yes, no or borderline", err)
	}

	st, err := s.Store.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if st.CurrentStep != models.StepZBVerificationPending {
		return nil, fmt.Errorf("%w: current step %q", ErrInvalidStateForDecision, st.CurrentStep)
	}

	if err := s.Store.MergeMetadata(ctx, sessionID, map[string]any{
		"zb_checker": map[string]any{
			"checker":                 actor,
			"deposit_consistent":      review.DepositConsistent,
			"installment_sufficiency": review.InstallmentSufficiency,
			"notes":                   review.Notes,
			"reviewed_at":             time.Now(),
		},
	}); err != nil {
		return nil, err
	}

	if !review.passed() {
		updated, err := s.Engine.Transition(ctx, sessionID, st.CurrentStep, models.StepRejected, map[string]any{
			"actor":   actor,
			"outcome": "checker_rejected",
		})
		if err != nil {
			return nil, err
		}
		s.Dispatcher.SendDecision(ctx, updated, "Application Declined",
			"Your application did not pass document verification.")
		return updated, nil
	}

	return s.Engine.Transition(ctx, sessionID, st.CurrentStep, models.StepZBApprovalPending, map[string]any{
		"actor":   actor,
		"outcome": "checker_passed",
	})
}

func (s *ZBServiceImpl) ProcessApproverDecision(ctx context.Context, sessionID string, approve bool, reason, actor string) (*models.ApplicationState, error) {
	st, err := s.Store.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if st.CurrentStep == models.StepApproved || st.CurrentStep == models.StepSentForChecks {
		// A repeated approval call changes nothing.
		if approve {
			return st, nil
		}
		return nil, fmt.Errorf("%w: current step %q", ErrInvalidStateForDecision, st.CurrentStep)
	}
	if st.CurrentStep != models.StepZBApprovalPending {
		return nil, fmt.Errorf("%w: current step %q", ErrInvalidStateForDecision, st.CurrentStep)
	}
	if _, ok := st.Metadata["zb_checker"]; !ok {
		return nil, ErrCheckerReviewMissing
	}

	if !approve {
		if err := s.Store.MergeMetadata(ctx, sessionID, map[string]any{
			"zb_approver": map[string]any{
				"approver":   actor,
				"decision":   "rejected",
				"reason":     reason,
				"decided_at": time.Now(),
			},
		}); err != nil {
			return nil, err
		}
		updated, err := s.Engine.Transition(ctx, sessionID, st.CurrentStep, models.StepRejected, map[string]any{
			"actor":   actor,
			"outcome": "approver_rejected",
			"reason":  "rejected at final approval",
		})
		if err != nil {
			return nil, err
		}
		s.Dispatcher.SendDecision(ctx, updated, "Application Declined",
			"Your application was declined at final approval.")
		return updated, nil
	}

	// The order is created before the approving transition. If it
	// fails there is no approved state without an order.
	order, err := s.Orders.CreateFromApplication(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("create purchase order: %w", err)
	}

	if err := s.Store.MergeMetadata(ctx, sessionID, map[string]any{
		"zb_approver": map[string]any{
			"approver":     actor,
			"decision":     "approved",
			"order_number": order.OrderNumber,
			"decided_at":   time.Now(),
		},
	}); err != nil {
		return nil, err
	}

	updated, err := s.Engine.Transition(ctx, sessionID, st.CurrentStep, models.StepApproved, map[string]any{
		"actor":        actor,
		"outcome":      "approver_approved",
		"order_number": order.OrderNumber,
	})
	if err != nil {
		return nil, err
	}

	s.Dispatcher.SendDecision(ctx, updated, "Application Approved",
		"Your application has passed final approval.")
	if err := s.Orders.CreateDeliveryTracking(ctx, updated); err != nil {
		s.Logger.Error("delivery tracking initialization failed",
			zap.String("session_id", sessionID), zap.Error(err))
	}

	if err := s.Checks.Run(ctx, updated); err != nil {
		return updated, fmt.Errorf("%w: %v", ErrAutomatedCheckFailed, err)
	}
	return s.Engine.Transition(ctx, sessionID, models.StepApproved, models.StepSentForChecks, map[string]any{
		"actor":   actor,
		"outcome": "automated_checks_passed",
	})
}
