package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler manages scheduled tasks using the gocron library.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	interval  time.Duration
	taskMap   map[string]ScheduledTaskFunc
	mu        sync.Mutex
	running   bool
}

// NewScheduler creates a new scheduler that runs every registered task at the
// given interval.
func NewScheduler(logger *slog.Logger, interval time.Duration, taskMap map[string]ScheduledTaskFunc) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    logger.With("component", "scheduler"),
		interval:  interval,
		taskMap:   taskMap,
	}, nil
}

// Start registers all tasks as interval jobs and starts the scheduler's
// internal ticking.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	for taskName, taskFunc := range s.taskMap {
		name := taskName
		run := taskFunc

		_, err := s.scheduler.NewJob(
			gocron.DurationJob(s.interval),
			gocron.NewTask(func() {
				startTime := time.Now()
				s.logger.Info("Running scheduled task", "task_name", name)
				if err := run(ctx); err != nil {
					s.logger.Error("Scheduled task failed", "task_name", name, "error", err)
					return
				}
				s.logger.Info("Scheduled task finished", "task_name", name, "duration", time.Since(startTime))
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule task %q: %w", name, err)
		}

		s.logger.Info("Scheduled task registered", "task_name", name, "interval", s.interval)
	}

	s.scheduler.Start()
	s.running = true
	return nil
}

// Stop shuts the scheduler down, waiting for running jobs to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shut down scheduler: %w", err)
	}
	return nil
}
