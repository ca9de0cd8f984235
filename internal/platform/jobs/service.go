package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"timetracker/internal/domain/reminder"
	"timetracker/internal/platform/config"
	"timetracker/internal/platform/metrics"
)

const (
	JobSubmissionReminders = "submission_reminders"
	JobExpirationReminders = "expiration_reminders"
)

// Service owns the background reminder tickers. Each run is recorded
// in job_runs so operators can see when the schedulers last fired and
// what they did.
type Service struct {
	DB         *pgxpool.Pool
	Cfg        config.Config
	Submission *reminder.SubmissionScheduler
	Expiration *reminder.ExpirationScheduler
	Metrics    *metrics.Collector
	queue      chan job
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(db *pgxpool.Pool, cfg config.Config, submission *reminder.SubmissionScheduler, expiration *reminder.ExpirationScheduler, collector *metrics.Collector) *Service {
	return &Service{
		DB:         db,
		Cfg:        cfg,
		Submission: submission,
		Expiration: expiration,
		Metrics:    collector,
		queue:      make(chan job, 16),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Cfg.SubmissionReminderInterval > 0 {
		go s.schedule(ctx, JobSubmissionReminders, s.Cfg.SubmissionReminderInterval)
	}
	if s.Cfg.ExpirationReminderInterval > 0 {
		go s.schedule(ctx, JobExpirationReminders, s.Cfg.ExpirationReminderInterval)
	}
}

// RunNow executes one job synchronously, for the admin trigger
// endpoints.
func (s *Service) RunNow(ctx context.Context, jobType string) (any, error) {
	run, err := s.runner(jobType)
	if err != nil {
		return nil, err
	}
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) schedule(ctx context.Context, jobType string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run, err := s.runner(jobType)
			if err != nil {
				slog.Warn("unknown scheduled job", "jobType", jobType)
				return
			}
			select {
			case s.queue <- job{Type: jobType, Run: run}:
			default:
				slog.Warn("job queue full, skipping tick", "jobType", jobType)
			}
		}
	}
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runner(jobType string) (func(context.Context) (any, error), error) {
	switch jobType {
	case JobSubmissionReminders:
		return func(ctx context.Context) (any, error) {
			result, err := s.Submission.RunOnce(ctx, time.Now())
			if err == nil && s.Metrics != nil {
				s.Metrics.RecordReminderRun(result.Reminded)
			}
			return result, err
		}, nil
	case JobExpirationReminders:
		return func(ctx context.Context) (any, error) {
			result, err := s.Expiration.RunOnce(ctx, time.Now())
			if err == nil && s.Metrics != nil {
				s.Metrics.RecordReminderRun(result.Sent)
			}
			return result, err
		}, nil
	}
	return nil, fmt.Errorf("unknown job type %q", jobType)
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	var runID int64
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1, 'running')
    RETURNING id
  `, j.Type).Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "err", err)
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != 0 {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}
