package refcode

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/common/models"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/config"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/pkg/utils"

	"go.uber.org/zap"
)

var (
	// ErrInvalidCode covers not-found and expired codes alike.
	ErrInvalidCode = errors.New("invalid or expired reference code")
	// ErrCodeAlreadyAssigned is the conflict for a caller-supplied code
	// that collides with another active one. Never silently reassigned.
	ErrCodeAlreadyAssigned = errors.New("reference code already assigned to another application")
	// ErrCodeSpaceExhausted signals the regenerate-on-collision loop hit
	// its cap. Operational problem, fail fast, no automatic retry.
	ErrCodeSpaceExhausted = errors.New("reference code space exhausted")
	// ErrSessionNotFound is returned when issuing against an unknown or
	// archived session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrBadCodeFormat rejects malformed caller-supplied codes before
	// any state mutation.
	ErrBadCodeFormat = errors.New("reference code must be 6 uppercase alphanumeric characters")
)

const (
	codeLength     = 6
	codeCharset    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxAttempts    = 10
	resumeTokenTTL = time.Hour
)

type Service interface {
	// Generate issues the 6-character code for a session. Calling it
	// again while the session already carries an active code returns
	// that code unchanged.
	Generate(ctx context.Context, sessionID string) (string, error)
	// AssignCode stores a caller-supplied code; a collision with an
	// active code is a conflict, not a reassignment.
	AssignCode(ctx context.Context, sessionID, code string) error
	// Validate reports whether the code maps to a non-expired,
	// non-archived application.
	Validate(ctx context.Context, code string) (bool, error)
	// GetStateByCode resolves the owning state and mints a resume token.
	// Reading may extend reference_code_expires_at: when the remaining
	// window is below the renewal threshold the expiry is reset to a
	// full horizon from now, through the same atomic set an explicit
	// Extend uses.
	GetStateByCode(ctx context.Context, code string) (*models.ApplicationState, string, error)
	// Extend renews the code's validity to a full horizon from now.
	Extend(ctx context.Context, code string) (time.Time, error)
}

type ServiceImpl struct {
	Repo           CodeRepository
	Logger         *zap.Logger
	CodeTTL        time.Duration
	RenewThreshold time.Duration
}

func NewService(repo CodeRepository, cfg *config.Config, logger *zap.Logger) Service {
	return &ServiceImpl{
		Repo:           repo,
		Logger:         logger,
		CodeTTL:        time.Duration(cfg.CodeTTLDays) * 24 * time.Hour,
		RenewThreshold: time.Duration(cfg.CodeRenewThresholdDays) * 24 * time.Hour,
	}
}

func (s *ServiceImpl) Generate(ctx context.Context, sessionID string) (string, error) {
	st, err := s.Repo.FindBySession(ctx, sessionID)
	if err != nil {
		return "", err
	}

	now := time.Now()
	if st.HasActiveCode(now) {
		return st.ReferenceCode, nil
	}

	expiresAt := now.Add(s.CodeTTL)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate := s.candidate(st, attempt)

		err := s.Repo.SetCode(ctx, sessionID, candidate, expiresAt)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, errCodeCollision) {
			return "", err
		}
		s.Logger.Debug("reference code collision, retrying",
			zap.String("session_id", sessionID),
			zap.Int("attempt", attempt+1))
	}

	return "", fmt.Errorf("%w: gave up after %d attempts", ErrCodeSpaceExhausted, maxAttempts)
}

// candidate prefers a code derived from the applicant's national id on
// the first attempt, then falls back to random generation.
func (s *ServiceImpl) candidate(st *models.ApplicationState, attempt int) string {
	if attempt == 0 {
		for _, field := range []string{"national_id", "id_number"} {
			if raw, ok := st.FormData[field].(string); ok {
				if derived := utils.NormalizeNationalID(raw); len(derived) >= codeLength {
					return derived[:codeLength]
				}
			}
		}
	}
	return randomCode()
}

func randomCode() string {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failure is unrecoverable
	}
	for i, b := range buf {
		buf[i] = codeCharset[int(b)%len(codeCharset)]
	}
	return string(buf)
}

func (s *ServiceImpl) AssignCode(ctx context.Context, sessionID, code string) error {
	if !validCodeFormat(code) {
		return ErrBadCodeFormat
	}

	err := s.Repo.SetCode(ctx, sessionID, code, time.Now().Add(s.CodeTTL))
	if errors.Is(err, errCodeCollision) {
		return ErrCodeAlreadyAssigned
	}
	return err
}

func validCodeFormat(code string) bool {
	if len(code) != codeLength {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func (s *ServiceImpl) Validate(ctx context.Context, code string) (bool, error) {
	_, err := s.Repo.FindByCode(ctx, code, time.Now())
	if err != nil {
		if errors.Is(err, ErrInvalidCode) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *ServiceImpl) GetStateByCode(ctx context.Context, code string) (*models.ApplicationState, string, error) {
	now := time.Now()

	st, err := s.Repo.FindByCode(ctx, code, now)
	if err != nil {
		return nil, "", err
	}

	// Renew-on-touch. The onlyIfBelow condition means two concurrent
	// readers cannot both apply it: whoever lands second matches
	// nothing, and both observe the same final expiry.
	if st.ReferenceCodeExpiresAt != nil && st.ReferenceCodeExpiresAt.Sub(now) < s.RenewThreshold {
		threshold := now.Add(s.RenewThreshold)
		renewed := now.Add(s.CodeTTL)
		if err := s.Repo.SetCodeExpiry(ctx, code, renewed, &threshold); err != nil {
			return nil, "", err
		}
		st.ReferenceCodeExpiresAt = &renewed
	}

	token, err := utils.GenerateResumeToken(st.SessionID, st.Channel, resumeTokenTTL)
	if err != nil {
		return nil, "", err
	}
	return st, token, nil
}

func (s *ServiceImpl) Extend(ctx context.Context, code string) (time.Time, error) {
	now := time.Now()

	if _, err := s.Repo.FindByCode(ctx, code, now); err != nil {
		return time.Time{}, err
	}

	renewed := now.Add(s.CodeTTL)
	if err := s.Repo.SetCodeExpiry(ctx, code, renewed, nil); err != nil {
		return time.Time{}, err
	}
	return renewed, nil
}
