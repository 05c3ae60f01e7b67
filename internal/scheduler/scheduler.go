package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"budget/internal/log"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// Scheduler runs jobs on cron schedules. Schedules take a leading seconds
// field.
type Scheduler struct {
	cron   *cron.Cron
	logger *log.Logger
}

func New(logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		logger: logger.WithComponent(log.ComponentScheduler),
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// AddJob registers a new job with cron schedule
// Schedule examples:
//   - "0 0 * * * *"   - Every hour
//   - "0 30 6 * * *"  - 06:30 every day
//   - "@every 15m"    - Every 15 minutes
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		start := time.Now()
		s.logger.Debug("Running job", "job", job.Name())

		if err := job.Run(); err != nil {
			s.logger.Error("Job failed",
				"job", job.Name(),
				log.FieldError, err,
				log.FieldDuration, time.Since(start).Milliseconds())
			return
		}
		s.logger.Debug("Job completed", "job", job.Name(), log.FieldDuration, time.Since(start).Milliseconds())
	})
	if err != nil {
		return err
	}

	s.logger.Info("Job registered", "schedule", schedule, "job", job.Name())
	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.logger.Info("Running job immediately", "job", job.Name())
	return job.Run()
}

// ValidateSchedule reports whether spec parses with the scheduler's parser.
func ValidateSchedule(spec string) error {
	_, err := cron.NewParser(
		cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	).Parse(spec)
	return err
}
