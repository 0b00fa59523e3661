/**
 * @description
 * This file implements the active-subscription selector: the accounts whose
 * subscription window covers a calendar day and whose payment state is in the
 * configured accepted set, de-duplicated to one entry per account.
 */
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/GOALETE/dispatch-service/internal/domain"
)

// ActiveSubscriptionStore is the read surface the selector needs.
type ActiveSubscriptionStore interface {
	FindActiveOnDate(ctx context.Context, date time.Time) ([]domain.ActiveSubscriber, error)
}

// Selector picks the accounts eligible for a day's dispatch.
type Selector struct {
	store    ActiveSubscriptionStore
	accepted domain.PaymentStateSet
}

// NewSelector creates a selector with the configured payment-state set.
func NewSelector(store ActiveSubscriptionStore, accepted domain.PaymentStateSet) *Selector {
	return &Selector{store: store, accepted: accepted}
}

// SelectActiveAccounts returns one entry per account holding a qualifying
// subscription on the given date. An account with several qualifying
// subscriptions appears once; ordering is not significant.
func (s *Selector) SelectActiveAccounts(ctx context.Context, date time.Time) ([]domain.ActiveSubscriber, error) {
	rows, err := s.store.FindActiveOnDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("find active subscriptions: %w", err)
	}

	seen := make(map[string]struct{}, len(rows))
	selected := make([]domain.ActiveSubscriber, 0, len(rows))
	for _, row := range rows {
		if !s.accepted.Accepts(row.Subscription.PaymentState) {
			continue
		}
		email := domain.NormalizeEmail(row.Account.Email)
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		row.Account.Email = email
		selected = append(selected, row)
	}
	return selected, nil
}
