package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"appraisal/internal/platform/metrics"
	"appraisal/internal/platform/querier"
)

const JobEvaluationReminders = "evaluation_reminders"

// Reminders is the cycle operation the reminder job drives.
type Reminders interface {
	SendReminders(ctx context.Context, now time.Time, window time.Duration) (int, error)
}

type Service struct {
	DB      querier.Querier
	metrics *metrics.Collector
	cron    *cron.Cron
	queue   chan job
	now     func() time.Time
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(db querier.Querier, m *metrics.Collector) *Service {
	return &Service{
		DB:      db,
		metrics: m,
		cron:    cron.New(),
		queue:   make(chan job, 128),
		now:     time.Now,
	}
}

// ScheduleReminders registers the reminder job on a standard five-field
// cron schedule.
func (s *Service) ScheduleReminders(schedule string, reminders Reminders, window time.Duration) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.Enqueue(JobEvaluationReminders, reminderJob(reminders, s.now, window))
	})
	return err
}

// Start runs the worker and the cron scheduler until ctx is done.
func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	s.cron.Start()
	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
	}()
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// RunReminders runs the reminder job synchronously and records it like a
// scheduled run.
func (s *Service) RunReminders(ctx context.Context, reminders Reminders, window time.Duration) (any, error) {
	return s.RunNow(ctx, JobEvaluationReminders, reminderJob(reminders, s.now, window))
}

// Run is one recorded job execution.
type Run struct {
	ID          string          `json:"id"`
	JobType     string          `json:"jobType"`
	Status      string          `json:"status"`
	Details     json.RawMessage `json:"details,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

func (s *Service) ListRuns(ctx context.Context, jobType string, limit int) ([]Run, error) {
	if s.DB == nil {
		return []Run{}, nil
	}
	rows, err := s.DB.Query(ctx, `
    SELECT id::text, job_type, status, details, started_at, completed_at
    FROM job_runs
    WHERE ($1 = '' OR job_type = $1)
    ORDER BY started_at DESC
    LIMIT $2
  `, jobType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Run{}
	for rows.Next() {
		var run Run
		var details []byte
		if err := rows.Scan(&run.ID, &run.JobType, &run.Status, &details, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			run.Details = details
		}
		out = append(out, run)
	}
	return out, rows.Err()
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

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if s.DB != nil {
		if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id
  `, j.Type, "running").Scan(&runID); err != nil {
			slog.Warn("job run insert failed", "err", err)
		}
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	s.metrics.JobRun(j.Type, status)

	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

func reminderJob(reminders Reminders, now func() time.Time, window time.Duration) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		sent, err := reminders.SendReminders(ctx, now(), window)
		return map[string]any{"sent": sent, "window": window.String()}, err
	}
}
