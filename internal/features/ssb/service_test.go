package ssb

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/common/models"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/features/workflow"

	"go.uber.org/zap"
)

type MockReader struct {
	State *models.ApplicationState
	Err   error
}

func (m *MockReader) FindBySession(ctx context.Context, sessionID string) (*models.ApplicationState, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.State, nil
}

type MockEngine struct {
	Calls        int
	CapturedFrom string
	CapturedTo   string
	CapturedData map[string]any
	Err          error
}

func (m *MockEngine) Transition(ctx context.Context, sessionID, fromExpected, to string, data map[string]any) (*models.ApplicationState, error) {
	m.Calls++
	m.CapturedFrom = fromExpected
	m.CapturedTo = to
	m.CapturedData = data
	if m.Err != nil {
		return nil, m.Err
	}
	return &models.ApplicationState{SessionID: sessionID, CurrentStep: to}, nil
}

type MockDispatcher struct {
	Titles        []string
	Messages      []string
	StatusUpdates int
}

func (m *MockDispatcher) SendStatusUpdate(ctx context.Context, st *models.ApplicationState, oldStep, newStep string) {
	m.StatusUpdates++
}

func (m *MockDispatcher) SendDecision(ctx context.Context, st *models.ApplicationState, title, message string) {
	m.Titles = append(m.Titles, title)
	m.Messages = append(m.Messages, message)
}

func newTestService(reader *MockReader, engine *MockEngine, dispatcher *MockDispatcher) *SSBServiceImpl {
	return &SSBServiceImpl{
		Reader:     reader,
		Engine:     engine,
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
	}
}

func pendingState() *models.ApplicationState {
	return &models.ApplicationState{SessionID: "s1", CurrentStep: models.StepSSBPending}
}

func TestInitializeIsIdempotent(t *testing.T) {
	engine := &MockEngine{}
	svc := newTestService(&MockReader{State: pendingState()}, engine, &MockDispatcher{})

	st, err := svc.InitializeSSBApplication(context.Background(), "s1", "system")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.CurrentStep != models.StepSSBPending {
		t.Errorf("unexpected step %q", st.CurrentStep)
	}
	if engine.Calls != 0 {
		t.Error("re-initialization must not transition again")
	}
}

func TestInitializeTransitionsAndNotifies(t *testing.T) {
	reader := &MockReader{State: &models.ApplicationState{SessionID: "s1", CurrentStep: models.StepPendingVerification}}
	engine := &MockEngine{}
	dispatcher := &MockDispatcher{}
	svc := newTestService(reader, engine, dispatcher)

	st, err := svc.InitializeSSBApplication(context.Background(), "s1", "system")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.CurrentStep != models.StepSSBPending || engine.CapturedTo != models.StepSSBPending {
		t.Errorf("expected entry into ssb_pending, got %q", st.CurrentStep)
	}
	if dispatcher.StatusUpdates != 1 {
		t.Errorf("expected one status update, got %d", dispatcher.StatusUpdates)
	}
}

func TestInitializeRejectsTerminalState(t *testing.T) {
	reader := &MockReader{State: &models.ApplicationState{SessionID: "s1", CurrentStep: models.StepRejected}}
	svc := newTestService(reader, &MockEngine{}, &MockDispatcher{})

	_, err := svc.InitializeSSBApplication(context.Background(), "s1", "system")
	if !errors.Is(err, ErrInvalidStateForDecision) {
		t.Fatalf("expected invalid state error, got %v", err)
	}
}

func TestProcessResponseApproved(t *testing.T) {
	engine := &MockEngine{}
	dispatcher := &MockDispatcher{}
	svc := newTestService(&MockReader{State: pendingState()}, engine, dispatcher)

	st, err := svc.ProcessSSBResponse(context.Background(), "s1", SSBResponse{ResponseType: ResponseApproved}, "officer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.CurrentStep != models.StepApproved {
		t.Errorf("expected approved, got %q", st.CurrentStep)
	}
	if len(dispatcher.Titles) != 1 || dispatcher.Titles[0] != "Application Approved" {
		t.Errorf("unexpected notifications: %v", dispatcher.Titles)
	}
}

func TestProcessResponseInsufficientSalaryRequiresPeriod(t *testing.T) {
	engine := &MockEngine{}
	dispatcher := &MockDispatcher{}
	svc := newTestService(&MockReader{State: pendingState()}, engine, dispatcher)

	_, err := svc.ProcessSSBResponse(context.Background(), "s1", SSBResponse{ResponseType: ResponseInsufficientSalary}, "officer")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if engine.Calls != 0 {
		t.Error("state transitioned despite invalid response")
	}
	if len(dispatcher.Titles) != 0 {
		t.Error("notification dispatched despite invalid response")
	}
}

func TestProcessResponseInsufficientSalaryOffersPeriod(t *testing.T) {
	engine := &MockEngine{}
	dispatcher := &MockDispatcher{}
	svc := newTestService(&MockReader{State: pendingState()}, engine, dispatcher)

	st, err := svc.ProcessSSBResponse(context.Background(), "s1",
		SSBResponse{ResponseType: ResponseInsufficientSalary, RecommendedPeriod: 18}, "officer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.CurrentStep != models.StepInsufficientSalaryOffer {
		t.Errorf("expected offer step, got %q", st.CurrentStep)
	}
	if !strings.Contains(dispatcher.Messages[0], "18 months") {
		t.Errorf("offer message lacks the adjusted period: %q", dispatcher.Messages[0])
	}
}

func TestProcessResponseContractExpiringRequiresBothFields(t *testing.T) {
	svc := newTestService(&MockReader{State: pendingState()}, &MockEngine{}, &MockDispatcher{})

	cases := []SSBResponse{
		{ResponseType: ResponseContractExpiring, ContractExpiryDate: "2026-12-01"},
		{ResponseType: ResponseContractExpiring, RecommendedPeriod: 6},
	}
	for i, resp := range cases {
		if _, err := svc.ProcessSSBResponse(context.Background(), "s1", resp, "officer"); !errors.Is(err, ErrValidation) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestProcessResponseInvalidIDCarriesErrorMessage(t *testing.T) {
	dispatcher := &MockDispatcher{}
	svc := newTestService(&MockReader{State: pendingState()}, &MockEngine{}, dispatcher)

	_, err := svc.ProcessSSBResponse(context.Background(), "s1",
		SSBResponse{ResponseType: ResponseInvalidID, ErrorMessage: "ID number not on payroll"}, "officer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(dispatcher.Messages[0], "ID number not on payroll") {
		t.Errorf("rejection message lacks the back office detail: %q", dispatcher.Messages[0])
	}
}

func TestProcessResponseUnknownTypeFailsClosed(t *testing.T) {
	engine := &MockEngine{}
	svc := newTestService(&MockReader{State: pendingState()}, engine, &MockDispatcher{})

	_, err := svc.ProcessSSBResponse(context.Background(), "s1", SSBResponse{ResponseType: "telegram"}, "officer")
	if !errors.Is(err, ErrUnknownDecisionOutcome) {
		t.Fatalf("expected unknown outcome error, got %v", err)
	}
	if engine.Calls != 0 {
		t.Error("unknown outcome must not transition")
	}
}

func TestProcessResponseStaleTransitionSkipsNotification(t *testing.T) {
	engine := &MockEngine{Err: workflow.ErrStaleTransition}
	dispatcher := &MockDispatcher{}
	svc := newTestService(&MockReader{State: pendingState()}, engine, dispatcher)

	_, err := svc.ProcessSSBResponse(context.Background(), "s1", SSBResponse{ResponseType: ResponseApproved}, "officer")
	if !errors.Is(err, workflow.ErrStaleTransition) {
		t.Fatalf("expected stale transition to surface, got %v", err)
	}
	if len(dispatcher.Titles) != 0 {
		t.Error("a rejected transition must not notify")
	}
}

func TestProcessResponseOutsidePendingFails(t *testing.T) {
	reader := &MockReader{State: &models.ApplicationState{SessionID: "s1", CurrentStep: models.StepApproved}}
	svc := newTestService(reader, &MockEngine{}, &MockDispatcher{})

	_, err := svc.ProcessSSBResponse(context.Background(), "s1", SSBResponse{ResponseType: ResponseApproved}, "officer")
	if !errors.Is(err, ErrInvalidStateForDecision) {
		t.Fatalf("expected invalid state error, got %v", err)
	}
}
