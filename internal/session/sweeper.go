package session

import (
	"time"

	"github.com/go-co-op/gocron"

	"github.com/citypulse-labs/bengaluru-climate/internal/logger"
)

// DefaultSweepInterval is how often expired sessions are collected.
const DefaultSweepInterval = 5 * time.Minute

// Sweeper periodically removes expired sessions from a store.
type Sweeper struct {
	scheduler *gocron.Scheduler
	store     *Store
	interval  time.Duration
	log       logger.Logger
}

// NewSweeper creates a Sweeper. An interval <= 0 selects the default.
func NewSweeper(store *Store, interval time.Duration, log logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		scheduler: gocron.NewScheduler(time.UTC),
		store:     store,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the periodic sweep and starts the underlying scheduler.
func (s *Sweeper) Start() error {
	_, err := s.scheduler.Every(s.interval).Do(func() {
		if n := s.store.Sweep(); n > 0 {
			s.log.WithField("sessions", n).Info("swept expired chat sessions")
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future sweeps.
func (s *Sweeper) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
