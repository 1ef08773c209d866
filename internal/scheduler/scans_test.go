package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScanner struct {
	overdueCalls []time.Time
	expiredCalls []time.Time
	overdueCount int64
	expiredCount int64
	err          error
}

func (f *fakeScanner) MarkOverdue(today time.Time) (int64, error) {
	f.overdueCalls = append(f.overdueCalls, today)
	return f.overdueCount, f.err
}

func (f *fakeScanner) MarkExpired(today time.Time) (int64, error) {
	f.expiredCalls = append(f.expiredCalls, today)
	return f.expiredCount, f.err
}

func TestRunOverdueScanTruncatesToMidnight(t *testing.T) {
	scanner := &fakeScanner{overdueCount: 3}
	clock := func() time.Time {
		return time.Date(2026, 5, 12, 14, 30, 45, 0, time.UTC)
	}
	s := NewScanScheduler(scanner, Config{}, clock)

	s.RunOverdueScan()

	require.Len(t, scanner.overdueCalls, 1)
	assert.Equal(t, time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC), scanner.overdueCalls[0])
}

func TestRunExpiredScan(t *testing.T) {
	scanner := &fakeScanner{expiredCount: 1}
	clock := func() time.Time {
		return time.Date(2026, 5, 12, 1, 30, 0, 0, time.UTC)
	}
	s := NewScanScheduler(scanner, Config{}, clock)

	s.RunExpiredScan()

	require.Len(t, scanner.expiredCalls, 1)
	assert.Equal(t, time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC), scanner.expiredCalls[0])
}

func TestRunScanSwallowsErrors(t *testing.T) {
	scanner := &fakeScanner{err: errors.New("database locked")}
	s := NewScanScheduler(scanner, Config{}, nil)

	// Scans log errors instead of panicking; the next tick tries again
	s.RunOverdueScan()
	s.RunExpiredScan()

	assert.Len(t, scanner.overdueCalls, 1)
	assert.Len(t, scanner.expiredCalls, 1)
}

func TestSchedulerStartStop(t *testing.T) {
	scanner := &fakeScanner{}
	s := NewScanScheduler(scanner, Config{
		OverdueEnabled:  true,
		OverdueSchedule: "0 1 * * *",
		ExpiredEnabled:  true,
		ExpiredSchedule: "30 1 * * *",
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())

	// Second start is a no-op
	require.NoError(t, s.Start(ctx))

	s.Stop()
	assert.False(t, s.IsRunning())
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := NewScanScheduler(&fakeScanner{}, Config{
		OverdueEnabled:  true,
		OverdueSchedule: "not a schedule",
	}, nil)

	err := s.Start(context.Background())
	assert.Error(t, err)
}

func TestSchedulerDisabledScansDoNotRun(t *testing.T) {
	scanner := &fakeScanner{}
	s := NewScanScheduler(scanner, Config{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	s.Stop()

	assert.Empty(t, scanner.overdueCalls)
	assert.Empty(t, scanner.expiredCalls)
}
