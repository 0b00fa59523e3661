package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GOALETE/dispatch-service/internal/domain"
	"github.com/GOALETE/dispatch-service/internal/store"
)

type subWriterStub struct {
	created *domain.Subscription
	err     error
	calls   int
}

func (s *subWriterStub) CreateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	created := *sub
	created.ID = "created-1"
	s.created = &created
	return &created, nil
}

func newTestService(meetings MeetingStore, active ActiveSubscriptionStore, sender InviteSender, subs *subStoreStub, writer SubscriptionWriter) *Service {
	eligibility := NewEligibilityChecker(subs, fixedNow, testLoc)
	resolver := NewMeetingResolver(meetings, linkProviderStub{link: "https://meet.google.com/new"}, testDefaults(), testLogger())
	selector := NewSelector(active, defaultSet())
	dispatcher := NewDispatcher(sender, 4, time.Second, testLogger())
	return NewService(eligibility, resolver, selector, dispatcher, writer, fixedNow, testLoc, testLogger())
}

func TestRunDailyDispatchHappyPath(t *testing.T) {
	meetings := newMeetingStoreFake()
	active := &activeStoreStub{rows: []domain.ActiveSubscriber{
		activeRow("a@example.com", domain.PaymentCompleted),
		activeRow("b@example.com", ""),
		activeRow("c@example.com", domain.PaymentFailed),
	}}
	sender := &senderStub{}
	svc := newTestService(meetings, active, sender, &subStoreStub{}, &subWriterStub{})

	report, err := svc.RunDailyDispatch(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("RunDailyDispatch returned error: %v", err)
	}

	if report.SentCount != 2 || report.FailedCount != 0 {
		t.Fatalf("expected 2 sent / 0 failed, got %d / %d", report.SentCount, report.FailedCount)
	}
	if report.MeetingID == "" {
		t.Fatal("expected the report to reference the resolved meeting")
	}

	// The zero date resolves to today in the service's offset.
	today := civilDate(2025, 1, 20)
	if !report.Date.Equal(today) {
		t.Fatalf("expected run date %s, got %s", today, report.Date)
	}
}

func TestRunDailyDispatchAbortsWhenResolutionFails(t *testing.T) {
	meetings := newMeetingStoreFake()
	resolver := NewMeetingResolver(meetings, linkProviderStub{err: errors.New("provider down")}, testDefaults(), testLogger())
	active := &activeStoreStub{err: errors.New("must not be called")}
	selector := NewSelector(active, defaultSet())
	dispatcher := NewDispatcher(&senderStub{}, 4, time.Second, testLogger())
	svc := NewService(NewEligibilityChecker(&subStoreStub{}, fixedNow, testLoc),
		resolver, selector, dispatcher, &subWriterStub{}, fixedNow, testLoc, testLogger())

	_, err := svc.RunDailyDispatch(context.Background(), time.Time{})
	if !errors.Is(err, ErrCalendarService) {
		t.Fatalf("expected resolution failure to abort the run, got %v", err)
	}
}

func TestRunDailyDispatchPropagatesSelectionFailure(t *testing.T) {
	storeErr := errors.New("store unavailable")
	svc := newTestService(newMeetingStoreFake(), &activeStoreStub{err: storeErr}, &senderStub{}, &subStoreStub{}, &subWriterStub{})

	_, err := svc.RunDailyDispatch(context.Background(), time.Time{})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
}

func TestCreateSubscriptionRejectsConflictFromAdvisoryCheck(t *testing.T) {
	subs := &subStoreStub{subsByEmail: map[string][]domain.Subscription{
		"amit@example.com": {januarySub("amit@example.com")},
	}}
	writer := &subWriterStub{}
	svc := newTestService(newMeetingStoreFake(), &activeStoreStub{}, &senderStub{}, subs, writer)

	_, err := svc.CreateSubscription(context.Background(), &domain.Subscription{
		AccountEmail: "amit@example.com",
		PlanType:     domain.PlanMonthly,
		Status:       domain.StatusActive,
		StartDate:    civilDate(2025, 1, 15),
		EndDate:      civilDate(2025, 2, 15),
	})
	if !errors.Is(err, ErrNoLongerEligible) {
		t.Fatalf("expected ErrNoLongerEligible, got %v", err)
	}
	if writer.calls != 0 {
		t.Fatal("the insert must not be attempted when the advisory check fails")
	}
}

func TestCreateSubscriptionMapsInsertConflict(t *testing.T) {
	// Advisory check passes but the insert loses the race.
	writer := &subWriterStub{err: store.ErrSubscriptionConflict}
	svc := newTestService(newMeetingStoreFake(), &activeStoreStub{}, &senderStub{}, &subStoreStub{}, writer)

	_, err := svc.CreateSubscription(context.Background(), &domain.Subscription{
		AccountEmail: "amit@example.com",
		PlanType:     domain.PlanMonthly,
		Status:       domain.StatusActive,
		StartDate:    civilDate(2025, 2, 1),
		EndDate:      civilDate(2025, 2, 28),
	})
	if !errors.Is(err, ErrNoLongerEligible) {
		t.Fatalf("expected insert conflict to surface as ErrNoLongerEligible, got %v", err)
	}
}

func TestCreateSubscriptionRejectsInvertedWindow(t *testing.T) {
	svc := newTestService(newMeetingStoreFake(), &activeStoreStub{}, &senderStub{}, &subStoreStub{}, &subWriterStub{})

	_, err := svc.CreateSubscription(context.Background(), &domain.Subscription{
		AccountEmail: "amit@example.com",
		StartDate:    civilDate(2025, 2, 28),
		EndDate:      civilDate(2025, 2, 1),
	})
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}
