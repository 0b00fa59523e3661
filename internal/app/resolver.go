/**
 * @description
 * This file implements the meeting resolver: fetch the canonical meeting for
 * a calendar day, or lazily create one with configured defaults. Creation is
 * made idempotent under concurrent triggers by the store's uniqueness
 * guarantee; losing the race is recovered by re-fetching the winner's row.
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

// ErrCalendarService indicates join-link provisioning failed. It is fatal to
// the whole resolution: no meeting is persisted without a working link.
var ErrCalendarService = errors.New("external calendar service error")

// MeetingStore is the persistence surface the resolver needs.
type MeetingStore interface {
	FindMeetingForDate(ctx context.Context, date time.Time) (*domain.Meeting, error)
	CreateDefaultMeeting(ctx context.Context, m *domain.Meeting) (*domain.Meeting, error)
}

// JoinLinkProvider provisions the conferencing link for a new meeting.
type JoinLinkProvider interface {
	CreateJoinLink(ctx context.Context, platform, title string, start, end time.Time) (string, error)
}

// MeetingDefaults carries the configured attributes for auto-created meetings.
type MeetingDefaults struct {
	Platform        domain.MeetingPlatform
	StartTime       string // "HH:MM" local
	DurationMinutes int
	Title           string
	Description     string
}

// MeetingResolver returns the canonical meeting for a date, creating it with
// defaults when no admin-authored meeting exists.
type MeetingResolver struct {
	store    MeetingStore
	links    JoinLinkProvider
	defaults MeetingDefaults
	logger   *slog.Logger
}

// NewMeetingResolver creates a resolver.
func NewMeetingResolver(meetings MeetingStore, links JoinLinkProvider, defaults MeetingDefaults, logger *slog.Logger) *MeetingResolver {
	return &MeetingResolver{store: meetings, links: links, defaults: defaults, logger: logger}
}

// Resolve returns the meeting for the given civil date. Admin-authored
// meetings win over auto-created ones (the store orders them first). Two
// concurrent resolutions for the same date return the same meeting identity.
func (r *MeetingResolver) Resolve(ctx context.Context, date time.Time) (*domain.Meeting, error) {
	existing, err := r.store.FindMeetingForDate(ctx, date)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrMeetingNotFound) {
		return nil, fmt.Errorf("find meeting for %s: %w", date.Format("2006-01-02"), err)
	}

	start, end, err := civil.MeetingWindow(date, r.defaults.StartTime, r.defaults.DurationMinutes)
	if err != nil {
		return nil, err
	}

	link, err := r.links.CreateJoinLink(ctx, string(r.defaults.Platform), r.defaults.Title, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCalendarService, err)
	}

	draft := &domain.Meeting{
		MeetingDate: date,
		Platform:    r.defaults.Platform,
		StartTime:   start,
		EndTime:     end,
		JoinLink:    link,
		Title:       r.defaults.Title,
		Description: r.defaults.Description,
		IsDefault:   true,
		CreatedBy:   "system",
	}

	created, err := r.store.CreateDefaultMeeting(ctx, draft)
	if err == nil {
		r.logger.Info("created default meeting", "date", date.Format("2006-01-02"), "meeting_id", created.ID)
		return created, nil
	}
	if errors.Is(err, store.ErrMeetingConflict) {
		// Another trigger won the race; use its meeting.
		winner, fetchErr := r.store.FindMeetingForDate(ctx, date)
		if fetchErr != nil {
			return nil, fmt.Errorf("refetch meeting after conflict: %w", fetchErr)
		}
		return winner, nil
	}
	return nil, fmt.Errorf("create default meeting: %w", err)
}
