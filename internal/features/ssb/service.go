package ssb

import (
	"context"
	"fmt"

	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/common/models"

	"go.uber.org/zap"
)

// StateReader reads the authoritative state; satisfied by the appstate
// repository, wired in main. Decisioning never trusts the cache.
type StateReader interface {
	FindBySession(ctx context.Context, sessionID string) (*models.ApplicationState, error)
}

type Engine interface {
	Transition(ctx context.Context, sessionID, fromExpected, to string, data map[string]any) (*models.ApplicationState, error)
}

type Dispatcher interface {
	SendStatusUpdate(ctx context.Context, st *models.ApplicationState, oldStep, newStep string)
	SendDecision(ctx context.Context, st *models.ApplicationState, title, message string)
}

type SSBService interface {
	// InitializeSSBApplication moves the application into the pending
	// decisioning step. Re-entering while already pending is a no-op.
	InitializeSSBApplication(ctx context.Context, sessionID, actor string) (*models.ApplicationState, error)
	// ProcessSSBResponse interprets one back-office decision into a
	// transition plus its notification.
	ProcessSSBResponse(ctx context.Context, sessionID string, resp SSBResponse, actor string) (*models.ApplicationState, error)
}

type SSBServiceImpl struct {
	Reader     StateReader
	Engine     Engine
	Dispatcher Dispatcher
	Logger     *zap.Logger
}

func NewSSBService(reader StateReader, engine Engine, dispatcher Dispatcher, logger *zap.Logger) SSBService {
	return &SSBServiceImpl{
		Reader:     reader,
		Engine:     engine,
		Dispatcher: dispatcher,
		Logger:     logger,
	}
}

func (s *SSBServiceImpl) InitializeSSBApplication(ctx context.Context, sessionID, actor string) (*models.ApplicationState, error) {
	st, err := s.Reader.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if st.CurrentStep == models.StepSSBPending {
		return st, nil
	}
	if !canTransition(st.CurrentStep, models.StepSSBPending) {
		return nil, fmt.Errorf("%w: current step %q", ErrInvalidStateForDecision, st.CurrentStep)
	}

	updated, err := s.Engine.Transition(ctx, sessionID, st.CurrentStep, models.StepSSBPending, map[string]any{
		"actor":  actor,
		"reason": "ssb decisioning initialized",
	})
	if err != nil {
		return nil, err
	}

	s.Dispatcher.SendStatusUpdate(ctx, updated, st.CurrentStep, models.StepSSBPending)
	return updated, nil
}

func (s *SSBServiceImpl) ProcessSSBResponse(ctx context.Context, sessionID string, resp SSBResponse, actor string) (*models.ApplicationState, error) {
	st, err := s.Reader.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if st.CurrentStep != models.StepSSBPending {
		return nil, fmt.Errorf("%w: current step %q", ErrInvalidStateForDecision, st.CurrentStep)
	}

	var (
		target  string
		title   string
		message string
	)

	switch resp.ResponseType {
	case ResponseApproved:
		target = models.StepApproved
		title = "Application Approved"
		message = fmt.Sprintf("Congratulations! Your application %s has been approved.", st.ReferenceCode)

	case ResponseInsufficientSalary:
		if resp.RecommendedPeriod <= 0 {
			return nil, fmt.Errorf("%w: insufficient_salary requires recommended_period", ErrValidation)
		}
		target = models.StepInsufficientSalaryOffer
		title = "Alternative Offer"
		message = fmt.Sprintf(
			"Your salary does not support the requested repayment period. We can offer you %d months instead. Reply to accept.",
			resp.RecommendedPeriod)

	case ResponseInvalidID:
		target = models.StepRejected
		title = "Application Rejected"
		message = fmt.Sprintf("Your application could not be processed: %s", resp.ErrorMessage)

	case ResponseContractExpiring:
		if resp.RecommendedPeriod <= 0 {
			return nil, fmt.Errorf("%w: contract_expiring requires recommended_period", ErrValidation)
		}
		if resp.ContractExpiryDate == "" {
			return nil, fmt.Errorf("%w: contract_expiring requires contract_expiry_date", ErrValidation)
		}
		target = models.StepContractExpiringOffer
		title = "Alternative Offer"
		message = fmt.Sprintf(
			"Your employment contract expires on %s. We can offer a shorter period of %d months. Reply to accept.",
			resp.ContractExpiryDate, resp.RecommendedPeriod)

	case ResponseRejected:
		target = models.StepRejected
		title = "Application Rejected"
		message = "We regret to advise that your application was not successful on this occasion."

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDecisionOutcome, resp.ResponseType)
	}

	updated, err := s.Engine.Transition(ctx, sessionID, models.StepSSBPending, target, map[string]any{
		"actor":         actor,
		"response_type": resp.ResponseType,
		"notes":         resp.Notes,
	})
	if err != nil {
		return nil, err
	}

	s.Dispatcher.SendDecision(ctx, updated, title, message)
	return updated, nil
}
