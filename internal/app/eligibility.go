/**
 * @description
 * This file implements the subscription eligibility check: given one or more
 * account emails and an optional proposed [start, end) window, decide whether
 * a new subscription may be created and report the conflicting subscription
 * per blocked account.
 *
 * The check is advisory (read-only). The true no-overlap invariant is
 * enforced at insert time by the store; see Repository.CreateSubscription.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GOALETE/dispatch-service/internal/civil"
	"github.com/GOALETE/dispatch-service/internal/domain"
)

// ErrInvalidRange indicates a malformed or inverted proposed date window.
var ErrInvalidRange = errors.New("proposed start must be before proposed end")

// SubscriptionStore is the read surface the eligibility checker needs.
type SubscriptionStore interface {
	FindSubscriptionsForAccount(ctx context.Context, email string) ([]domain.Subscription, error)
}

// EligibilityResult is the outcome of a CanSubscribe call. Conflicts has one
// entry per requested account; the value is nil when that account is clear.
type EligibilityResult struct {
	Allowed   bool                            `json:"allowed"`
	Conflicts map[string]*domain.Subscription `json:"conflicts"`
}

// EligibilityChecker answers whether accounts may start a new subscription.
type EligibilityChecker struct {
	store SubscriptionStore
	now   func() time.Time
	loc   *time.Location
}

// NewEligibilityChecker creates a checker. The clock is injected so "can
// start immediately" checks are deterministic in tests.
func NewEligibilityChecker(store SubscriptionStore, now func() time.Time, loc *time.Location) *EligibilityChecker {
	return &EligibilityChecker{store: store, now: now, loc: loc}
}

// CanSubscribe decides whether every requested account may take the proposed
// window. For family/group plans the whole request is allowed only if every
// member is individually eligible; the conflict map identifies exactly which
// members are blocked. With no proposed window, an account is eligible only
// if no subscription covers the current day. Unknown accounts have no history
// and are eligible.
func (c *EligibilityChecker) CanSubscribe(ctx context.Context, emails []string, planType domain.PlanType, proposedStart, proposedEnd *time.Time) (*EligibilityResult, error) {
	if len(emails) == 0 {
		return nil, fmt.Errorf("at least one account email is required")
	}

	var proposed *domain.DateRange
	if proposedStart != nil && proposedEnd != nil {
		r := domain.DateRange{Start: *proposedStart, End: *proposedEnd}
		if !r.IsValid() {
			return nil, ErrInvalidRange
		}
		proposed = &r
	} else if proposedStart != nil || proposedEnd != nil {
		return nil, ErrInvalidRange
	}

	result := &EligibilityResult{
		Allowed:   true,
		Conflicts: make(map[string]*domain.Subscription, len(emails)),
	}

	for _, raw := range emails {
		email := domain.NormalizeEmail(raw)
		subs, err := c.store.FindSubscriptionsForAccount(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("fetch subscriptions for %s: %w", email, err)
		}

		conflict := c.findConflict(subs, proposed)
		result.Conflicts[email] = conflict
		if conflict != nil {
			result.Allowed = false
		}
	}
	return result, nil
}

func (c *EligibilityChecker) findConflict(subs []domain.Subscription, proposed *domain.DateRange) *domain.Subscription {
	for i := range subs {
		sub := subs[i]
		if proposed == nil {
			today := civil.DayOf(c.now(), c.loc)
			if sub.Window().Covers(today) {
				return &sub
			}
			continue
		}
		if sub.Window().Overlaps(*proposed) {
			return &sub
		}
	}
	return nil
}
