package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SessionArchiver and CodeReaper are satisfied by the appstate and
// refcode repositories, wired in main.
type SessionArchiver interface {
	ArchiveExpired(ctx context.Context, now time.Time) (int64, error)
}

type CodeReaper interface {
	ClearExpiredCodes(ctx context.Context, now time.Time) (int64, error)
}

type SweepService interface {
	// Start registers the schedule and launches the scheduler.
	Start(ctx context.Context) error
	Stop() error
	// RunOnce performs a single sweep synchronously.
	RunOnce(ctx context.Context) error
}

type SweepServiceImpl struct {
	archiver  SessionArchiver
	reaper    CodeReaper
	schedule  string
	scheduler *cron.Cron
	logger    *zap.Logger
}

func NewSweepService(archiver SessionArchiver, reaper CodeReaper, cfg *config.Config, logger *zap.Logger) SweepService {
	return &SweepServiceImpl{
		archiver: archiver,
		reaper:   reaper,
		schedule: cfg.SweepSchedule,
		logger:   logger,
	}
}

func (s *SweepServiceImpl) Start(ctx context.Context) error {
	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	s.scheduler = cron.New()
	_, err := s.scheduler.AddFunc(s.schedule, func() {
		runCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := s.RunOnce(runCtx); err != nil {
			s.logger.Error("expiry sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.Start()
	s.logger.Info("expiry sweep scheduled", zap.String("schedule", s.schedule))
	return nil
}

func (s *SweepServiceImpl) Stop() error {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	return nil
}

func (s *SweepServiceImpl) RunOnce(ctx context.Context) error {
	now := time.Now()

	archived, err := s.archiver.ArchiveExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("archive expired sessions: %w", err)
	}

	cleared, err := s.reaper.ClearExpiredCodes(ctx, now)
	if err != nil {
		return fmt.Errorf("clear expired codes: %w", err)
	}

	s.logger.Info("expiry sweep completed",
		zap.Int64("sessions_archived", archived),
		zap.Int64("codes_cleared", cleared))
	return nil
}
