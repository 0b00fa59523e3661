/**
 * @description
 * This file implements the invite dispatcher: send one calendar invite per
 * selected account, concurrently with a bounded fan-out, isolating each
 * account's failure and aggregating a per-account report plus summary
 * metrics. A total transport outage still produces a report rather than an
 * error, so the caller can observe and alert on a 0% success rate.
 */
package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/GOALETE/dispatch-service/internal/domain"
)

// InviteSender is the outbound transport the dispatcher fans out over.
type InviteSender interface {
	SendInvite(ctx context.Context, recipient domain.Account, meeting domain.Meeting) error
}

// Dispatcher sends meeting invites to a batch of accounts.
type Dispatcher struct {
	sender      InviteSender
	concurrency int
	sendTimeout time.Duration
	logger      *slog.Logger
}

// NewDispatcher creates a dispatcher. Concurrency bounds the number of
// in-flight sends so the mail transport is not saturated.
func NewDispatcher(sender InviteSender, concurrency int, sendTimeout time.Duration, logger *slog.Logger) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Dispatcher{
		sender:      sender,
		concurrency: concurrency,
		sendTimeout: sendTimeout,
		logger:      logger,
	}
}

// Dispatch sends the meeting invite to every account and returns the
// aggregate report. Individual failures are captured per account and never
// abort the batch.
func (d *Dispatcher) Dispatch(ctx context.Context, meeting domain.Meeting, accounts []domain.ActiveSubscriber) *domain.DispatchReport {
	started := time.Now()
	attempts := make([]domain.InviteAttempt, len(accounts))

	var wg sync.WaitGroup
	sem := make(chan struct{}, d.concurrency)
	for i, sub := range accounts {
		wg.Add(1)
		go func(i int, account domain.Account) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			attempts[i] = d.send(ctx, account, meeting)
		}(i, sub.Account)
	}
	wg.Wait()

	report := &domain.DispatchReport{
		Date:       meeting.MeetingDate,
		MeetingID:  meeting.ID,
		Attempts:   attempts,
		DurationMs: time.Since(started).Milliseconds(),
	}
	for _, a := range attempts {
		if a.Status == domain.AttemptSent {
			report.SentCount++
		} else {
			report.FailedCount++
		}
	}
	if len(attempts) > 0 {
		report.SuccessRate = float64(report.SentCount) / float64(len(attempts))
	}

	d.logger.Info("dispatch finished",
		"meeting_id", meeting.ID,
		"sent", report.SentCount,
		"failed", report.FailedCount,
		"duration_ms", report.DurationMs,
	)
	return report
}

func (d *Dispatcher) send(ctx context.Context, account domain.Account, meeting domain.Meeting) domain.InviteAttempt {
	sendCtx := ctx
	if d.sendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.sendTimeout)
		defer cancel()
	}

	if err := d.sender.SendInvite(sendCtx, account, meeting); err != nil {
		d.logger.Error("invite send failed", "email", account.Email, "error", err)
		return domain.InviteAttempt{
			Email:  account.Email,
			Status: domain.AttemptFailed,
			Error:  err.Error(),
		}
	}
	return domain.InviteAttempt{Email: account.Email, Status: domain.AttemptSent}
}
