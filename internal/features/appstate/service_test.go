package appstate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/common/models"

	"go.uber.org/zap"
)

type MockStateRepo struct {
	States map[string]*models.ApplicationState

	CapturedUpsert   SaveStateInput
	Duplicate        *models.ApplicationState
	MergedMetadata   map[string]any
	OpeningCreated   bool
	DeletedSessionID string
}

func (m *MockStateRepo) Upsert(ctx context.Context, in SaveStateInput, expiresAt time.Time) (*models.ApplicationState, error) {
	m.CapturedUpsert = in
	return &models.ApplicationState{
		SessionID:      in.SessionID,
		Channel:        in.Channel,
		UserIdentifier: in.UserIdentifier,
		CurrentStep:    in.CurrentStep,
		FormData:       in.FormData,
		Metadata:       in.Metadata,
		ExpiresAt:      expiresAt,
	}, nil
}

func (m *MockStateRepo) FindBySession(ctx context.Context, sessionID string) (*models.ApplicationState, error) {
	st, ok := m.States[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return st, nil
}

func (m *MockStateRepo) FindByIdentifier(ctx context.Context, identifier, channel string) (*models.ApplicationState, error) {
	for _, st := range m.States {
		if st.UserIdentifier == identifier {
			return st, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MockStateRepo) FindActiveByPhone(ctx context.Context, digits, excludeSessionID string) (*models.ApplicationState, error) {
	if m.Duplicate != nil && m.Duplicate.SessionID != excludeSessionID {
		return m.Duplicate, nil
	}
	return nil, ErrNotFound
}

func (m *MockStateRepo) MergeMetadata(ctx context.Context, sessionID string, metadata map[string]any) error {
	m.MergedMetadata = metadata
	if st, ok := m.States[sessionID]; ok {
		if st.Metadata == nil {
			st.Metadata = map[string]any{}
		}
		for k, v := range metadata {
			st.Metadata[k] = v
		}
	}
	return nil
}

func (m *MockStateRepo) Delete(ctx context.Context, sessionID string) error {
	m.DeletedSessionID = sessionID
	delete(m.States, sessionID)
	return nil
}

func (m *MockStateRepo) CreateAccountOpening(ctx context.Context, st *models.ApplicationState) error {
	m.OpeningCreated = true
	return nil
}

func (m *MockStateRepo) ArchiveExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (m *MockStateRepo) EnsureIndexes(ctx context.Context) error { return nil }

type MockStateCache struct {
	Session     *models.ApplicationState
	SetErr      error
	SetCalls    int
	Invalidated bool
}

func (m *MockStateCache) GetSession(ctx context.Context, sessionID string) (*models.ApplicationState, error) {
	return m.Session, nil
}

func (m *MockStateCache) GetResume(ctx context.Context, identifier, channel string) (*models.ApplicationState, error) {
	return nil, nil
}

func (m *MockStateCache) Set(ctx context.Context, st *models.ApplicationState) error {
	m.SetCalls++
	return m.SetErr
}

func (m *MockStateCache) Invalidate(ctx context.Context, st *models.ApplicationState) error {
	m.Invalidated = true
	return nil
}

type MockIssuer struct {
	Calls int
	Err   error
}

func (m *MockIssuer) Generate(ctx context.Context, sessionID string) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	return "AB12CD", nil
}

type MockNotifier struct {
	Submitted int
}

func (m *MockNotifier) SendApplicationSubmitted(ctx context.Context, st *models.ApplicationState) {
	m.Submitted++
}

type MockEngine struct {
	CapturedFrom string
	CapturedTo   string
	CapturedData map[string]any
	Calls        int
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

func newTestService(repo *MockStateRepo, cache *MockStateCache, issuer *MockIssuer, notifier *MockNotifier, engine *MockEngine) *StateServiceImpl {
	return &StateServiceImpl{
		Repo:       repo,
		Cache:      cache,
		Issuer:     issuer,
		Notifier:   notifier,
		Engine:     engine,
		Logger:     zap.NewNop(),
		SessionTTL: 30 * 24 * time.Hour,
	}
}

func TestSaveStateRejectsInvalidInput(t *testing.T) {
	svc := newTestService(&MockStateRepo{}, &MockStateCache{}, &MockIssuer{}, &MockNotifier{}, &MockEngine{})

	cases := []SaveStateInput{
		{Channel: "web", CurrentStep: "language"},
		{SessionID: "s1", Channel: "carrier_pigeon", CurrentStep: "language"},
		{SessionID: "s1", Channel: "web"},
	}
	for i, in := range cases {
		if _, err := svc.SaveState(context.Background(), in); !errors.Is(err, ErrValidation) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestSaveStateFallsBackToClientIPIdentifier(t *testing.T) {
	repo := &MockStateRepo{}
	svc := newTestService(repo, &MockStateCache{}, &MockIssuer{}, &MockNotifier{}, &MockEngine{})

	_, err := svc.SaveState(context.Background(), SaveStateInput{
		SessionID:   "s1",
		Channel:     "web",
		CurrentStep: "language",
		ClientIP:    "10.1.2.3",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(repo.CapturedUpsert.UserIdentifier, "10.1.2.3-") {
		t.Errorf("expected ip-derived identifier, got %q", repo.CapturedUpsert.UserIdentifier)
	}
}

func TestSaveStateSurvivesCacheFailure(t *testing.T) {
	cache := &MockStateCache{SetErr: errors.New("redis down")}
	svc := newTestService(&MockStateRepo{}, cache, &MockIssuer{}, &MockNotifier{}, &MockEngine{})

	st, err := svc.SaveState(context.Background(), SaveStateInput{
		SessionID:   "s1",
		Channel:     "whatsapp",
		CurrentStep: "intent",
	})
	if err != nil {
		t.Fatalf("durable write succeeded but SaveState failed: %v", err)
	}
	if st.SessionID != "s1" {
		t.Errorf("unexpected state returned: %+v", st)
	}
}

func TestCreateApplicationIssuesCodeAndTransitions(t *testing.T) {
	repo := &MockStateRepo{States: map[string]*models.ApplicationState{
		"s1": {
			SessionID:   "s1",
			Channel:     "web",
			CurrentStep: models.StepIntent,
			FormData:    map[string]any{"phone": "+263771234567"},
			Metadata:    map[string]any{},
		},
	}}
	issuer := &MockIssuer{}
	notifier := &MockNotifier{}
	engine := &MockEngine{}
	svc := newTestService(repo, &MockStateCache{}, issuer, notifier, engine)

	if _, err := svc.CreateApplication(context.Background(), "s1", "applicant"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if issuer.Calls != 1 {
		t.Errorf("expected one code issuance, got %d", issuer.Calls)
	}
	if engine.CapturedTo != models.StepPendingVerification {
		t.Errorf("expected transition to %q, got %q", models.StepPendingVerification, engine.CapturedTo)
	}
	if _, ok := repo.MergedMetadata["submitted_at"]; !ok {
		t.Error("submitted_at was not recorded")
	}
	if notifier.Submitted != 1 {
		t.Errorf("expected one submitted notification, got %d", notifier.Submitted)
	}
}

func TestCreateApplicationTargetsZBVerification(t *testing.T) {
	repo := &MockStateRepo{States: map[string]*models.ApplicationState{
		"s1": {
			SessionID:   "s1",
			CurrentStep: models.StepIntent,
			FormData:    map[string]any{},
			Metadata:    map[string]any{"workflow_type": models.WorkflowTypeZB},
		},
	}}
	engine := &MockEngine{}
	svc := newTestService(repo, &MockStateCache{}, &MockIssuer{}, &MockNotifier{}, engine)

	if _, err := svc.CreateApplication(context.Background(), "s1", "applicant"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine.CapturedTo != models.StepZBVerificationPending {
		t.Errorf("expected transition to %q, got %q", models.StepZBVerificationPending, engine.CapturedTo)
	}
}

func TestCreateApplicationDoubleSubmitIsNoOp(t *testing.T) {
	repo := &MockStateRepo{States: map[string]*models.ApplicationState{
		"s1": {
			SessionID:   "s1",
			CurrentStep: models.StepPendingVerification,
			Metadata:    map[string]any{"submitted_at": time.Now()},
		},
	}}
	issuer := &MockIssuer{}
	engine := &MockEngine{}
	svc := newTestService(repo, &MockStateCache{}, issuer, &MockNotifier{}, engine)

	st, err := svc.CreateApplication(context.Background(), "s1", "applicant")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.CurrentStep != models.StepPendingVerification {
		t.Errorf("state changed on double submit: %q", st.CurrentStep)
	}
	if issuer.Calls != 0 || engine.Calls != 0 {
		t.Errorf("double submit repeated side effects: issuer=%d engine=%d", issuer.Calls, engine.Calls)
	}
}

func TestCreateApplicationRejectsActiveDuplicate(t *testing.T) {
	repo := &MockStateRepo{
		States: map[string]*models.ApplicationState{
			"s1": {
				SessionID:   "s1",
				CurrentStep: models.StepIntent,
				FormData:    map[string]any{"phone": "+263771234567"},
				Metadata:    map[string]any{},
			},
		},
		Duplicate: &models.ApplicationState{SessionID: "older", CurrentStep: models.StepIntent},
	}
	issuer := &MockIssuer{}
	svc := newTestService(repo, &MockStateCache{}, issuer, &MockNotifier{}, &MockEngine{})

	_, err := svc.CreateApplication(context.Background(), "s1", "applicant")
	if !errors.Is(err, ErrDuplicateSession) {
		t.Fatalf("expected duplicate session error, got %v", err)
	}
	if issuer.Calls != 0 {
		t.Error("code was issued despite duplicate rejection")
	}
}

func TestCreateApplicationCreatesAccountOpeningRecord(t *testing.T) {
	repo := &MockStateRepo{States: map[string]*models.ApplicationState{
		"s1": {
			SessionID:   "s1",
			CurrentStep: models.StepIntent,
			FormData:    map[string]any{"application_type": "account_opening"},
			Metadata:    map[string]any{},
		},
	}}
	svc := newTestService(repo, &MockStateCache{}, &MockIssuer{}, &MockNotifier{}, &MockEngine{})

	if _, err := svc.CreateApplication(context.Background(), "s1", "applicant"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !repo.OpeningCreated {
		t.Error("account opening record was not created")
	}
}

func TestCheckExistingSessionIgnoresShortPhone(t *testing.T) {
	repo := &MockStateRepo{Duplicate: &models.ApplicationState{SessionID: "other"}}
	svc := newTestService(repo, &MockStateCache{}, &MockIssuer{}, &MockNotifier{}, &MockEngine{})

	result, err := svc.CheckExistingSession(context.Background(), "12345", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Found {
		t.Error("a too-short phone should never match")
	}
}

func TestCheckExistingSessionFindsDuplicate(t *testing.T) {
	repo := &MockStateRepo{Duplicate: &models.ApplicationState{SessionID: "other", CurrentStep: models.StepIntent}}
	svc := newTestService(repo, &MockStateCache{}, &MockIssuer{}, &MockNotifier{}, &MockEngine{})

	result, err := svc.CheckExistingSession(context.Background(), "+263 77 123 4567", "mine")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Found || result.Duplicate.SessionID != "other" {
		t.Errorf("expected duplicate 'other', got %+v", result)
	}
}

func TestCheckExistingSessionIgnoresTerminalSession(t *testing.T) {
	repo := &MockStateRepo{Duplicate: &models.ApplicationState{SessionID: "done", CurrentStep: models.StepCompleted}}
	svc := newTestService(repo, &MockStateCache{}, &MockIssuer{}, &MockNotifier{}, &MockEngine{})

	result, err := svc.CheckExistingSession(context.Background(), "+263 77 123 4567", "mine")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Found {
		t.Errorf("a completed session is not a duplicate, got %+v", result.Duplicate)
	}
}

func TestCreateApplicationIgnoresRejectedDuplicate(t *testing.T) {
	repo := &MockStateRepo{
		States: map[string]*models.ApplicationState{
			"s1": {
				SessionID:   "s1",
				CurrentStep: models.StepIntent,
				FormData:    map[string]any{"phone": "+263771234567"},
				Metadata:    map[string]any{},
			},
		},
		Duplicate: &models.ApplicationState{SessionID: "older", CurrentStep: models.StepRejected},
	}
	issuer := &MockIssuer{}
	svc := newTestService(repo, &MockStateCache{}, issuer, &MockNotifier{}, &MockEngine{})

	if _, err := svc.CreateApplication(context.Background(), "s1", "applicant"); err != nil {
		t.Fatalf("a rejected prior session must not block submission: %v", err)
	}
	if issuer.Calls != 1 {
		t.Error("expected a reference code for the fresh submission")
	}
}

func TestGetBySessionServesFromCache(t *testing.T) {
	cache := &MockStateCache{Session: &models.ApplicationState{SessionID: "s1", CurrentStep: models.StepIntent}}
	svc := newTestService(&MockStateRepo{}, cache, &MockIssuer{}, &MockNotifier{}, &MockEngine{})

	st, err := svc.GetBySession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.SessionID != "s1" {
		t.Errorf("expected cached state, got %+v", st)
	}
}

func TestGetBySessionFallsBackToStore(t *testing.T) {
	repo := &MockStateRepo{States: map[string]*models.ApplicationState{
		"s1": {SessionID: "s1", CurrentStep: models.StepIntent},
	}}
	cache := &MockStateCache{}
	svc := newTestService(repo, cache, &MockIssuer{}, &MockNotifier{}, &MockEngine{})

	st, err := svc.GetBySession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.SessionID != "s1" {
		t.Errorf("expected stored state, got %+v", st)
	}
	if cache.SetCalls != 1 {
		t.Errorf("expected a cache refill after the miss, got %d writes", cache.SetCalls)
	}
}

func TestDiscardSessionDeletesAndInvalidates(t *testing.T) {
	repo := &MockStateRepo{States: map[string]*models.ApplicationState{
		"s1": {SessionID: "s1"},
	}}
	cache := &MockStateCache{}
	svc := newTestService(repo, cache, &MockIssuer{}, &MockNotifier{}, &MockEngine{})

	if err := svc.DiscardSession(context.Background(), "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.DeletedSessionID != "s1" {
		t.Errorf("expected deletion of s1, got %q", repo.DeletedSessionID)
	}
	if !cache.Invalidated {
		t.Error("cache entry was not invalidated")
	}
}

func TestLinkSessionsIsReserved(t *testing.T) {
	svc := newTestService(&MockStateRepo{}, &MockStateCache{}, &MockIssuer{}, &MockNotifier{}, &MockEngine{})
	if err := svc.LinkSessions(context.Background(), "a", "b"); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("expected not implemented, got %v", err)
	}
}
