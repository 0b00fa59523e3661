/**
 * @description
 * This file defines the dispatch report models. The report is the return value
 * of a daily dispatch run: one attempt entry per selected account plus summary
 * metrics, so an operator can see exactly which accounts failed and why
 * without reading logs. Attempts are ephemeral; no durable ledger is kept.
 */
package domain

import "time"

// Invite attempt outcomes.
const (
	AttemptSent   = "sent"
	AttemptFailed = "failed"
)

// InviteAttempt records the outcome of one invite send for one account.
type InviteAttempt struct {
	Email  string `json:"email"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// DispatchReport aggregates the outcome of one daily dispatch run.
type DispatchReport struct {
	Date        time.Time       `json:"date"`
	MeetingID   string          `json:"meeting_id"`
	Attempts    []InviteAttempt `json:"attempts"`
	SentCount   int             `json:"sent_count"`
	FailedCount int             `json:"failed_count"`
	DurationMs  int64           `json:"duration_ms"`
	SuccessRate float64         `json:"success_rate"`
}

// Sent returns the attempts that succeeded.
func (r *DispatchReport) Sent() []InviteAttempt {
	return r.filter(AttemptSent)
}

// Failed returns the attempts that failed.
func (r *DispatchReport) Failed() []InviteAttempt {
	return r.filter(AttemptFailed)
}

func (r *DispatchReport) filter(status string) []InviteAttempt {
	var out []InviteAttempt
	for _, a := range r.Attempts {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out
}

// DispatchCompletedEvent is published after each run so observers (admin UI,
// analytics) can alert on failures without polling.
type DispatchCompletedEvent struct {
	Date        string  `json:"date"`
	MeetingID   string  `json:"meeting_id"`
	SentCount   int     `json:"sent_count"`
	FailedCount int     `json:"failed_count"`
	DurationMs  int64   `json:"duration_ms"`
	SuccessRate float64 `json:"success_rate"`
	Manual      bool    `json:"manual"`
}
