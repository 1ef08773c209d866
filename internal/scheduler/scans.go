// Package scheduler runs the periodic auto-transition scans: borrowed
// requests past their end date become overdue, pending requests past their
// start date become expired. Both scans are pure status relabelings with no
// stock side effects, and both re-filter by status inside the UPDATE so
// they are safe to run concurrently with user-driven transitions.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RequestScanner is the repository surface the scans need.
type RequestScanner interface {
	MarkOverdue(today time.Time) (int64, error)
	MarkExpired(today time.Time) (int64, error)
}

// Config holds the cron schedules for both scans.
type Config struct {
	OverdueEnabled  bool
	OverdueSchedule string
	ExpiredEnabled  bool
	ExpiredSchedule string
}

// ScanScheduler manages the cron entries for the auto-transition scans.
type ScanScheduler struct {
	scanner RequestScanner
	config  Config
	clock   func() time.Time

	cron      *cron.Cron
	mu        sync.RWMutex
	isRunning bool
}

// NewScanScheduler creates a scheduler. The clock is injected so tests can
// pin "today"; pass nil for wall-clock time.
func NewScanScheduler(scanner RequestScanner, config Config, clock func() time.Time) *ScanScheduler {
	if clock == nil {
		clock = time.Now
	}
	return &ScanScheduler{
		scanner: scanner,
		config:  config,
		clock:   clock,
		cron:    cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start registers the enabled scans and begins the cron loop.
func (s *ScanScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.config.OverdueEnabled {
		if _, err := s.cron.AddFunc(s.config.OverdueSchedule, s.RunOverdueScan); err != nil {
			return fmt.Errorf("invalid overdue scan schedule %q: %w", s.config.OverdueSchedule, err)
		}
		log.Printf("Overdue scan scheduled: %s", s.config.OverdueSchedule)
	}
	if s.config.ExpiredEnabled {
		if _, err := s.cron.AddFunc(s.config.ExpiredSchedule, s.RunExpiredScan); err != nil {
			return fmt.Errorf("invalid expired scan schedule %q: %w", s.config.ExpiredSchedule, err)
		}
		log.Printf("Expired scan scheduled: %s", s.config.ExpiredSchedule)
	}

	s.cron.Start()
	s.isRunning = true

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the cron loop and waits for in-flight scans to finish.
func (s *ScanScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false

	log.Printf("Auto-transition scans stopped")
}

// IsRunning returns whether the scheduler is active.
func (s *ScanScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// RunOverdueScan moves borrowed requests whose end date has passed to
// overdue. Errors are logged and the scan stops; nothing is partially
// corrupted because the whole scan is one conditional UPDATE.
func (s *ScanScheduler) RunOverdueScan() {
	log.Printf("Start auto updating overdue requests")
	count, err := s.scanner.MarkOverdue(s.today())
	if err != nil {
		log.Printf("Error during auto update: %v", err)
		return
	}
	log.Printf("Updated %d requests in this batch", count)
	log.Printf("Finished auto updating overdue requests")
}

// RunExpiredScan moves pending requests whose start date has passed to
// expired.
func (s *ScanScheduler) RunExpiredScan() {
	log.Printf("Start auto updating expired requests")
	count, err := s.scanner.MarkExpired(s.today())
	if err != nil {
		log.Printf("Error during auto update: %v", err)
		return
	}
	log.Printf("Updated %d requests in this batch", count)
	log.Printf("Finished auto updating expired requests")
}

func (s *ScanScheduler) today() time.Time {
	now := s.clock()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
