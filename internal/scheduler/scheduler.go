package scheduler

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/example/lexidrill/internal/database"
	"github.com/example/lexidrill/internal/engine"
)

// DefaultStaleAfterHours is how long a practice session may stay open
// before the maintenance job closes it.
const DefaultStaleAfterHours = 24

// Scheduler runs background maintenance for the practice audit log.
// Due-detection for reviews is pull-based and needs no sweep; the only
// scheduled work is closing sessions learners abandoned mid-practice.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	sessions   *database.SessionRepository
	clock      engine.Clock
	staleAfter time.Duration
	log        *zap.Logger
}

// New creates a new scheduler instance
func New(sessions *database.SessionRepository, clock engine.Clock, log *zap.Logger) *Scheduler {
	staleHours := DefaultStaleAfterHours
	if v := os.Getenv("SESSION_STALE_HOURS"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h > 0 {
			staleHours = h
		}
	}

	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		sessions:   sessions,
		clock:      clock,
		staleAfter: time.Duration(staleHours) * time.Hour,
		log:        log,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	s.scheduler.Every(1).Hour().Do(s.closeStaleSessions)
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// closeStaleSessions finalizes sessions left open past the cutoff,
// writing their aggregate counters. Failures are logged and retried on
// the next tick.
func (s *Scheduler) closeStaleSessions() {
	ctx := context.Background()
	now := s.clock.Now()

	ids, err := s.sessions.GetStaleOpenSessions(ctx, now.Add(-s.staleAfter))
	if err != nil {
		s.log.Warn("failed to list stale practice sessions", zap.Error(err))
		return
	}

	closed := 0
	for _, id := range ids {
		if err := s.sessions.CompleteSession(ctx, id, now); err != nil {
			s.log.Warn("failed to close stale practice session",
				zap.String("session_id", id), zap.Error(err))
			continue
		}
		closed++
	}
	if closed > 0 {
		s.log.Info("closed stale practice sessions", zap.Int("count", closed))
	}
}
