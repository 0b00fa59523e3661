package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/GOALETE/dispatch-service/internal/domain"
	"github.com/GOALETE/dispatch-service/internal/store"
)

// meetingStoreFake mimics the database's uniqueness guarantee on default
// meetings: the first creator for a date wins, later creators get a conflict.
type meetingStoreFake struct {
	mu      sync.Mutex
	byDate  map[string][]domain.Meeting
	creates int
	nextID  int
}

func newMeetingStoreFake() *meetingStoreFake {
	return &meetingStoreFake{byDate: map[string][]domain.Meeting{}}
}

func dateKey(date time.Time) string { return date.Format("2006-01-02") }

func (f *meetingStoreFake) FindMeetingForDate(ctx context.Context, date time.Time) (*domain.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	meetings := f.byDate[dateKey(date)]
	if len(meetings) == 0 {
		return nil, store.ErrMeetingNotFound
	}
	// Admin-authored first, then earliest created.
	best := meetings[0]
	for _, m := range meetings[1:] {
		if !m.IsDefault && best.IsDefault {
			best = m
		}
	}
	return &best, nil
}

func (f *meetingStoreFake) CreateDefaultMeeting(ctx context.Context, m *domain.Meeting) (*domain.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	for _, existing := range f.byDate[dateKey(m.MeetingDate)] {
		if existing.IsDefault {
			return nil, store.ErrMeetingConflict
		}
	}
	f.nextID++
	created := *m
	created.ID = fmt.Sprintf("meeting-%d", f.nextID)
	f.byDate[dateKey(m.MeetingDate)] = append(f.byDate[dateKey(m.MeetingDate)], created)
	return &created, nil
}

func (f *meetingStoreFake) seedAdminMeeting(date time.Time, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byDate[dateKey(date)] = append(f.byDate[dateKey(date)], domain.Meeting{
		ID:          id,
		MeetingDate: date,
		IsDefault:   false,
		JoinLink:    "https://meet.google.com/admin-room",
	})
}

type linkProviderStub struct {
	link string
	err  error
}

func (s linkProviderStub) CreateJoinLink(ctx context.Context, platform, title string, start, end time.Time) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.link, nil
}

func testDefaults() MeetingDefaults {
	return MeetingDefaults{
		Platform:        domain.PlatformGoogleMeet,
		StartTime:       "21:00",
		DurationMinutes: 60,
		Title:           "Daily Session",
		Description:     "desc",
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolveCreatesDefaultMeetingOnce(t *testing.T) {
	fake := newMeetingStoreFake()
	resolver := NewMeetingResolver(fake, linkProviderStub{link: "https://meet.google.com/new"}, testDefaults(), testLogger())
	date := civilDate(2025, 3, 11)

	first, err := resolver.Resolve(context.Background(), date)
	if err != nil {
		t.Fatalf("first Resolve returned error: %v", err)
	}
	second, err := resolver.Resolve(context.Background(), date)
	if err != nil {
		t.Fatalf("second Resolve returned error: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("expected the same meeting identity, got %s and %s", first.ID, second.ID)
	}
	if !first.IsDefault {
		t.Fatal("expected an auto-created meeting to be flagged as default")
	}
	if first.StartTime.Hour() != 21 {
		t.Fatalf("expected default start at 21:00, got %s", first.StartTime.Format("15:04"))
	}
}

func TestResolveIsIdempotentUnderConcurrency(t *testing.T) {
	fake := newMeetingStoreFake()
	resolver := NewMeetingResolver(fake, linkProviderStub{link: "https://meet.google.com/new"}, testDefaults(), testLogger())
	date := civilDate(2025, 3, 12)

	const callers = 16
	ids := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := resolver.Resolve(context.Background(), date)
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = m.ID
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d got error: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("caller %d got meeting %s, caller 0 got %s", i, ids[i], ids[0])
		}
	}

	if defaults := len(fake.byDate[dateKey(date)]); defaults != 1 {
		t.Fatalf("expected exactly one persisted meeting, got %d", defaults)
	}
}

func TestResolvePrefersAdminMeeting(t *testing.T) {
	fake := newMeetingStoreFake()
	date := civilDate(2025, 3, 13)
	fake.seedAdminMeeting(date, "admin-meeting")

	resolver := NewMeetingResolver(fake, linkProviderStub{link: "https://meet.google.com/new"}, testDefaults(), testLogger())
	m, err := resolver.Resolve(context.Background(), date)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if m.ID != "admin-meeting" {
		t.Fatalf("expected admin-authored meeting, got %s", m.ID)
	}
	if fake.creates != 0 {
		t.Fatal("expected no creation attempt when an admin meeting exists")
	}
}

func TestResolveFailsWhenLinkProvisioningFails(t *testing.T) {
	fake := newMeetingStoreFake()
	resolver := NewMeetingResolver(fake, linkProviderStub{err: errors.New("provider down")}, testDefaults(), testLogger())
	date := civilDate(2025, 3, 14)

	_, err := resolver.Resolve(context.Background(), date)
	if !errors.Is(err, ErrCalendarService) {
		t.Fatalf("expected ErrCalendarService, got %v", err)
	}
	if len(fake.byDate[dateKey(date)]) != 0 {
		t.Fatal("no meeting must be persisted when link provisioning fails")
	}
}
