/**
 * @description
 * This file defines the core domain models for subscriptions and accounts.
 * It includes the Subscription struct that maps to the database table, the
 * enumerated plan types and statuses, and the interval-overlap logic that
 * backs the eligibility check.
 */
package domain

import (
	"strings"
	"time"
)

// PlanType enumerates the subscription plans a member can purchase.
type PlanType string

const (
	PlanSingleDay PlanType = "single-day"
	PlanMonthly   PlanType = "monthly"
	PlanFamily    PlanType = "family"
	PlanUnlimited PlanType = "unlimited"
)

// SubscriptionStatus enumerates subscription lifecycle states.
type SubscriptionStatus string

const (
	StatusActive    SubscriptionStatus = "active"
	StatusExpired   SubscriptionStatus = "expired"
	StatusPending   SubscriptionStatus = "pending"
	StatusCancelled SubscriptionStatus = "cancelled"
)

// Subscription represents a member's subscription window in the database.
// StartDate and EndDate are civil dates stored at midnight in the service's
// fixed offset; the window is treated as half-open [StartDate, EndDate).
type Subscription struct {
	ID           string             `json:"id"`
	AccountEmail string             `json:"account_email"`
	PlanType     PlanType           `json:"plan_type"`
	Status       SubscriptionStatus `json:"status"`
	PaymentState string             `json:"payment_state"`
	StartDate    time.Time          `json:"start_date"`
	EndDate      time.Time          `json:"end_date"`
	CreatedAt    time.Time          `json:"created_at"`
}

// Window returns the subscription's half-open date range.
func (s Subscription) Window() DateRange {
	return DateRange{Start: s.StartDate, End: s.EndDate}
}

// Account identifies a member by their case-normalized email address.
type Account struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// NormalizeEmail canonicalizes an account key for lookups and comparisons.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ActiveSubscriber pairs an account with the subscription that qualifies it
// for a given day.
type ActiveSubscriber struct {
	Account      Account      `json:"account"`
	Subscription Subscription `json:"subscription"`
}

// DateRange is a half-open interval [Start, End) over civil dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// IsValid reports whether the range is non-empty.
func (r DateRange) IsValid() bool {
	return r.Start.Before(r.End)
}

// Overlaps reports whether two half-open ranges intersect.
func (r DateRange) Overlaps(o DateRange) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// Covers reports whether the given day falls inside the range.
func (r DateRange) Covers(day time.Time) bool {
	return !day.Before(r.Start) && day.Before(r.End)
}
