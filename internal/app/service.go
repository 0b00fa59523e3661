/**
 * @description
 * This file contains the core pipeline for the dispatch service: resolve the
 * canonical meeting for the day, select the accounts with a qualifying
 * subscription, and dispatch one invite per account. It also exposes
 * subscription creation, where the advisory eligibility check is followed by
 * the store's authoritative insert-time validation.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GOALETE/dispatch-service/internal/civil"
	"github.com/GOALETE/dispatch-service/internal/domain"
	"github.com/GOALETE/dispatch-service/internal/store"
)

// ErrNoLongerEligible is returned when a subscription insert loses the
// check-then-act race and the window is already taken.
var ErrNoLongerEligible = errors.New("account is no longer eligible for this window")

// SubscriptionWriter is the write surface for subscription creation.
type SubscriptionWriter interface {
	CreateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error)
}

// Service orchestrates the daily dispatch pipeline and subscription intake.
type Service struct {
	eligibility *EligibilityChecker
	resolver    *MeetingResolver
	selector    *Selector
	dispatcher  *Dispatcher
	subs        SubscriptionWriter
	now         func() time.Time
	loc         *time.Location
	logger      *slog.Logger
}

// NewService wires the pipeline stages together.
func NewService(
	eligibility *EligibilityChecker,
	resolver *MeetingResolver,
	selector *Selector,
	dispatcher *Dispatcher,
	subs SubscriptionWriter,
	now func() time.Time,
	loc *time.Location,
	logger *slog.Logger,
) *Service {
	return &Service{
		eligibility: eligibility,
		resolver:    resolver,
		selector:    selector,
		dispatcher:  dispatcher,
		subs:        subs,
		now:         now,
		loc:         loc,
		logger:      logger,
	}
}

// RunDailyDispatch executes one dispatch run for the given civil date. A zero
// date means "today" in the service's fixed offset. The stages are strictly
// sequential: a resolution failure aborts the run before any account is
// selected or dispatched; selection is a snapshot read.
func (s *Service) RunDailyDispatch(ctx context.Context, date time.Time) (*domain.DispatchReport, error) {
	if date.IsZero() {
		date = civil.DayOf(s.now(), s.loc)
	} else {
		date = civil.DayOf(date, s.loc)
	}

	meeting, err := s.resolver.Resolve(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("resolve meeting: %w", err)
	}

	selected, err := s.selector.SelectActiveAccounts(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("select active accounts: %w", err)
	}

	s.logger.Info("starting dispatch",
		"date", date.Format("2006-01-02"),
		"meeting_id", meeting.ID,
		"accounts", len(selected),
	)
	return s.dispatcher.Dispatch(ctx, *meeting, selected), nil
}

// CanSubscribe runs the advisory eligibility check for signup flows.
func (s *Service) CanSubscribe(ctx context.Context, emails []string, planType domain.PlanType, proposedStart, proposedEnd *time.Time) (*EligibilityResult, error) {
	return s.eligibility.CanSubscribe(ctx, emails, planType, proposedStart, proposedEnd)
}

// CreateSubscription creates a subscription after a fast-path eligibility
// check. The insert itself re-validates the no-overlap invariant; a conflict
// there means another purchase won the race since the check.
func (s *Service) CreateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	if !sub.Window().IsValid() {
		return nil, ErrInvalidRange
	}

	check, err := s.eligibility.CanSubscribe(ctx, []string{sub.AccountEmail}, sub.PlanType, &sub.StartDate, &sub.EndDate)
	if err != nil {
		return nil, err
	}
	if !check.Allowed {
		return nil, ErrNoLongerEligible
	}

	created, err := s.subs.CreateSubscription(ctx, sub)
	if err != nil {
		if errors.Is(err, store.ErrSubscriptionConflict) {
			return nil, ErrNoLongerEligible
		}
		return nil, err
	}
	return created, nil
}

// Today exposes the service's current civil date for the API layer.
func (s *Service) Today() time.Time {
	return civil.DayOf(s.now(), s.loc)
}

// ResolveMeeting exposes meeting resolution for the admin surface.
func (s *Service) ResolveMeeting(ctx context.Context, date time.Time) (*domain.Meeting, error) {
	return s.resolver.Resolve(ctx, civil.DayOf(date, s.loc))
}
