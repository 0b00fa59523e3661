/**
 * @description
 * Cron scheduler setup for the daily dispatch job. The scheduled path and the
 * manual admin trigger invoke the same pipeline entry point; after each
 * scheduled run the summary is published as an event for observers.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/GOALETE/dispatch-service/internal/config"
	"github.com/GOALETE/dispatch-service/internal/domain"
)

// EventPublisher publishes dispatch lifecycle events. A nil publisher
// disables publishing.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

const (
	eventsExchange         = "meetings.events"
	dispatchCompletedTopic = "dispatch.completed"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron      *cron.Cron
	service   *Service
	publisher EventPublisher
	logger    *slog.Logger
	config    config.Config
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(service *Service, publisher EventPublisher, logger *slog.Logger, cfg config.Config) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:      c,
		service:   service,
		publisher: publisher,
		logger:    logger,
		config:    cfg,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.config.DispatchJobSchedule, s.RunDailyDispatchJob); err != nil {
		s.logger.Error("failed to schedule daily dispatch job", "error", err)
	} else {
		s.logger.Info("scheduled daily dispatch job", "schedule", s.config.DispatchJobSchedule)
	}

	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunDailyDispatchJob runs one dispatch for today and publishes the outcome.
// Errors are logged, not returned: retries are the scheduler's own policy.
func (s *Scheduler) RunDailyDispatchJob() {
	s.logger.Info("starting daily dispatch job")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	report, err := s.service.RunDailyDispatch(ctx, time.Time{})
	if err != nil {
		s.logger.Error("daily dispatch job failed", "error", err)
		return
	}

	s.publishReport(ctx, report, false)
	s.logger.Info("daily dispatch job finished",
		"sent", report.SentCount,
		"failed", report.FailedCount,
		"success_rate", report.SuccessRate,
	)
}

func (s *Scheduler) publishReport(ctx context.Context, report *domain.DispatchReport, manual bool) {
	if s.publisher == nil {
		return
	}
	event := domain.DispatchCompletedEvent{
		Date:        report.Date.Format("2006-01-02"),
		MeetingID:   report.MeetingID,
		SentCount:   report.SentCount,
		FailedCount: report.FailedCount,
		DurationMs:  report.DurationMs,
		SuccessRate: report.SuccessRate,
		Manual:      manual,
	}
	if err := s.publisher.Publish(ctx, eventsExchange, dispatchCompletedTopic, event); err != nil {
		s.logger.Error("failed to publish dispatch completed event", "error", err)
	}
}

// PublishManualReport publishes the outcome of a manually triggered run.
func (s *Scheduler) PublishManualReport(ctx context.Context, report *domain.DispatchReport) {
	s.publishReport(ctx, report, true)
}
