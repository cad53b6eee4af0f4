package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type MockArchiver struct {
	Calls int
	Err   error
}

func (m *MockArchiver) ArchiveExpired(ctx context.Context, now time.Time) (int64, error) {
	m.Calls++
	return 3, m.Err
}

type MockReaper struct {
	Calls int
	Err   error
}

func (m *MockReaper) ClearExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	m.Calls++
	return 2, m.Err
}

func TestRunOnceSweepsSessionsAndCodes(t *testing.T) {
	archiver := &MockArchiver{}
	reaper := &MockReaper{}
	svc := &SweepServiceImpl{archiver: archiver, reaper: reaper, logger: zap.NewNop()}

	if err := svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if archiver.Calls != 1 || reaper.Calls != 1 {
		t.Errorf("expected one call each, got archiver=%d reaper=%d", archiver.Calls, reaper.Calls)
	}
}

func TestRunOnceStopsOnArchiveFailure(t *testing.T) {
	archiver := &MockArchiver{Err: errors.New("mongo down")}
	reaper := &MockReaper{}
	svc := &SweepServiceImpl{archiver: archiver, reaper: reaper, logger: zap.NewNop()}

	if err := svc.RunOnce(context.Background()); err == nil {
		t.Fatal("expected archive failure to surface")
	}
	if reaper.Calls != 0 {
		t.Error("code sweep ran despite archive failure")
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	svc := &SweepServiceImpl{schedule: "not a schedule", logger: zap.NewNop()}
	if err := svc.Start(context.Background()); err == nil {
		t.Fatal("expected schedule parse error")
	}
}
