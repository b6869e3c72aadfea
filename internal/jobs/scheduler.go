package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const taskTimeout = 5 * time.Minute

// Task is a unit of periodic work
type Task interface {
	Name() string
	Execute(ctx context.Context) error
}

// Scheduler runs tasks on cron schedules in UTC
type Scheduler struct {
	cron   *cron.Cron
	logger *logrus.Logger
}

// NewScheduler creates a stopped scheduler
func NewScheduler(logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger,
	}
}

// AddTask schedules task. spec is a standard five-field cron expression
// or a descriptor such as "@every 1h".
func (s *Scheduler) AddTask(spec string, task Task) error {
	if _, err := s.cron.AddFunc(spec, func() { s.run(task) }); err != nil {
		return fmt.Errorf("failed to schedule task %s: %w", task.Name(), err)
	}
	s.logger.Infof("Task %s scheduled: %s", task.Name(), spec)
	return nil
}

func (s *Scheduler) run(task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	start := time.Now()
	if err := task.Execute(ctx); err != nil {
		s.logger.Errorf("Task %s failed: %v", task.Name(), err)
		return
	}
	s.logger.Debugf("Task %s finished in %s", task.Name(), time.Since(start))
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Infof("Scheduler started with %d tasks", len(s.cron.Entries()))
}

// Stop stops the scheduler and waits for running tasks to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}
