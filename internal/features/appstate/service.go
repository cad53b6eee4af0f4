package appstate

import (
	"context"
	"fmt"
	"time"

	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/common/models"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/config"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/pkg/utils"

	"go.uber.org/zap"
)

// CodeIssuer assigns the reference code at final submission. Satisfied
// by refcode.Service, wired in main.
type CodeIssuer interface {
	Generate(ctx context.Context, sessionID string) (string, error)
}

// Notifier dispatches the submitted notification; best-effort only.
type Notifier interface {
	SendApplicationSubmitted(ctx context.Context, st *models.ApplicationState)
}

// TransitionEngine is the workflow engine's generic transition contract.
type TransitionEngine interface {
	Transition(ctx context.Context, sessionID, fromExpected, to string, data map[string]any) (*models.ApplicationState, error)
}

type StateService interface {
	// SaveState upserts one step's contribution by session_id. Durable
	// write first, cache write-through after; merge semantics make a
	// retried save converge.
	SaveState(ctx context.Context, in SaveStateInput) (*models.ApplicationState, error)
	// RetrieveState is cache-first on identifier+channel. ErrNotFound
	// covers both never-started and expired.
	RetrieveState(ctx context.Context, identifier, channel string) (*models.ApplicationState, error)
	// GetBySession always reads through to the durable store.
	GetBySession(ctx context.Context, sessionID string) (*models.ApplicationState, error)
	// CreateApplication is final submission: duplicate guard, reference
	// code issuance, conditional account-opening record, transition into
	// the product's verification step, submitted notification.
	CreateApplication(ctx context.Context, sessionID, actor string) (*models.ApplicationState, error)
	// CheckExistingSession surfaces a possible duplicate for the given
	// phone so the applicant can confirm or discard it.
	CheckExistingSession(ctx context.Context, phone, excludeSessionID string) (*DuplicateCheckResult, error)
	// DiscardSession hard-deletes a confirmed duplicate.
	DiscardSession(ctx context.Context, sessionID string) error
	// LinkSessions is reserved.
	LinkSessions(ctx context.Context, primarySessionID, secondarySessionID string) error
}

type StateServiceImpl struct {
	Repo       StateRepository
	Cache      StateCache
	Issuer     CodeIssuer
	Notifier   Notifier
	Engine     TransitionEngine
	Logger     *zap.Logger
	SessionTTL time.Duration
}

func NewStateService(repo StateRepository, cache StateCache, issuer CodeIssuer, notifier Notifier, engine TransitionEngine, cfg *config.Config, logger *zap.Logger) StateService {
	return &StateServiceImpl{
		Repo:       repo,
		Cache:      cache,
		Issuer:     issuer,
		Notifier:   notifier,
		Engine:     engine,
		Logger:     logger,
		SessionTTL: time.Duration(cfg.SessionTTLDays) * 24 * time.Hour,
	}
}

func (s *StateServiceImpl) SaveState(ctx context.Context, in SaveStateInput) (*models.ApplicationState, error) {
	if in.SessionID == "" {
		return nil, fmt.Errorf("%w: session_id is required", ErrValidation)
	}
	if !validChannel(in.Channel) {
		return nil, fmt.Errorf("%w: unknown channel %q", ErrValidation, in.Channel)
	}
	if in.CurrentStep == "" {
		return nil, fmt.Errorf("%w: current_step is required", ErrValidation)
	}
	if in.UserIdentifier == "" {
		// IP+timestamp fallback keeps resume lookups possible for
		// anonymous web sessions.
		in.UserIdentifier = fmt.Sprintf("%s-%d", in.ClientIP, time.Now().Unix())
	}

	st, err := s.Repo.Upsert(ctx, in, time.Now().Add(s.SessionTTL))
	if err != nil {
		return nil, err
	}

	// Cache only after the durable write succeeded.
	if cacheErr := s.Cache.Set(ctx, st); cacheErr != nil {
		s.Logger.Warn("state cache write failed", zap.String("session_id", st.SessionID), zap.Error(cacheErr))
	}

	return st, nil
}

func (s *StateServiceImpl) RetrieveState(ctx context.Context, identifier, channel string) (*models.ApplicationState, error) {
	if identifier == "" {
		return nil, fmt.Errorf("%w: user_identifier is required", ErrValidation)
	}

	if cached, err := s.Cache.GetResume(ctx, identifier, channel); err == nil && cached != nil {
		if cached.ExpiresAt.After(time.Now()) && !cached.IsArchived {
			return cached, nil
		}
	} else if err != nil {
		s.Logger.Warn("state cache read failed", zap.String("identifier", identifier), zap.Error(err))
	}

	st, err := s.Repo.FindByIdentifier(ctx, identifier, channel)
	if err != nil {
		return nil, err
	}

	if cacheErr := s.Cache.Set(ctx, st); cacheErr != nil {
		s.Logger.Warn("state cache write failed", zap.String("session_id", st.SessionID), zap.Error(cacheErr))
	}
	return st, nil
}

func (s *StateServiceImpl) GetBySession(ctx context.Context, sessionID string) (*models.ApplicationState, error) {
	if cached, err := s.Cache.GetSession(ctx, sessionID); err == nil && cached != nil {
		return cached, nil
	}
	st, err := s.Repo.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if cacheErr := s.Cache.Set(ctx, st); cacheErr != nil {
		s.Logger.Warn("state cache write failed", zap.String("session_id", sessionID), zap.Error(cacheErr))
	}
	return st, nil
}

// activeDuplicate drops candidates the duplicate detector must ignore.
// A session in a terminal step is a finished application, not an open
// duplicate.
func activeDuplicate(dup *models.ApplicationState) *models.ApplicationState {
	if dup == nil || models.IsTerminalStep(dup.CurrentStep) {
		return nil
	}
	return dup
}

func (s *StateServiceImpl) CreateApplication(ctx context.Context, sessionID, actor string) (*models.ApplicationState, error) {
	st, err := s.Repo.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// Double-submit of the final step: the first submission already
	// moved the workflow on, so just hand the current state back.
	if _, done := st.Metadata["submitted_at"]; done {
		return st, nil
	}

	if phone := bestPhone(st); phone != "" {
		dup, err := s.Repo.FindActiveByPhone(ctx, phone, sessionID)
		if err != nil && err != ErrNotFound {
			return nil, err
		}
		if dup = activeDuplicate(dup); dup != nil {
			return nil, fmt.Errorf("%w: session %s", ErrDuplicateSession, dup.SessionID)
		}
	}

	if _, err := s.Issuer.Generate(ctx, sessionID); err != nil {
		return nil, err
	}

	if appType, _ := st.FormData["application_type"].(string); appType == "account_opening" {
		if err := s.Repo.CreateAccountOpening(ctx, st); err != nil {
			return nil, fmt.Errorf("create account opening record: %w", err)
		}
	}

	target := models.StepPendingVerification
	if wt, _ := st.Metadata["workflow_type"].(string); wt == models.WorkflowTypeZB {
		target = models.StepZBVerificationPending
	}

	if _, err := s.Engine.Transition(ctx, sessionID, st.CurrentStep, target, map[string]any{
		"actor":      actor,
		"submission": true,
	}); err != nil {
		return nil, err
	}

	if err := s.Repo.MergeMetadata(ctx, sessionID, map[string]any{"submitted_at": time.Now()}); err != nil {
		return nil, err
	}

	updated, err := s.Repo.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.Notifier.SendApplicationSubmitted(ctx, updated)

	if cacheErr := s.Cache.Set(ctx, updated); cacheErr != nil {
		s.Logger.Warn("state cache write failed", zap.String("session_id", sessionID), zap.Error(cacheErr))
	}
	return updated, nil
}

func (s *StateServiceImpl) CheckExistingSession(ctx context.Context, phone, excludeSessionID string) (*DuplicateCheckResult, error) {
	digits := utils.NormalizePhone(phone)
	if digits == "" {
		// Too short to be a phone number: no match, not an error.
		return &DuplicateCheckResult{Found: false}, nil
	}

	dup, err := s.Repo.FindActiveByPhone(ctx, digits, excludeSessionID)
	if err != nil {
		if err == ErrNotFound {
			return &DuplicateCheckResult{Found: false}, nil
		}
		return nil, err
	}
	if dup = activeDuplicate(dup); dup == nil {
		return &DuplicateCheckResult{Found: false}, nil
	}
	return &DuplicateCheckResult{Duplicate: dup, Found: true}, nil
}

func (s *StateServiceImpl) DiscardSession(ctx context.Context, sessionID string) error {
	st, err := s.Repo.FindBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, sessionID); err != nil {
		return err
	}
	if cacheErr := s.Cache.Invalidate(ctx, st); cacheErr != nil {
		s.Logger.Warn("state cache invalidate failed", zap.String("session_id", sessionID), zap.Error(cacheErr))
	}
	return nil
}

func (s *StateServiceImpl) LinkSessions(ctx context.Context, primarySessionID, secondarySessionID string) error {
	return ErrNotImplemented
}
