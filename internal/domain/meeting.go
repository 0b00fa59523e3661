/**
 * @description
 * This file defines the Meeting domain model: the single canonical session for
 * a calendar date. A meeting is either admin-authored ahead of time or created
 * lazily by the resolver on the first trigger of the day (IsDefault = true).
 */
package domain

import "time"

// MeetingPlatform enumerates supported conferencing platforms.
type MeetingPlatform string

const (
	PlatformGoogleMeet MeetingPlatform = "google-meet"
	PlatformZoom       MeetingPlatform = "zoom"
)

// Meeting represents the scheduled session for a calendar date.
// MeetingDate is the civil date at midnight in the service's fixed offset and
// is the unique key for default meetings; StartTime and EndTime are the
// concrete instants of the session.
type Meeting struct {
	ID          string          `json:"id"`
	MeetingDate time.Time       `json:"meeting_date"`
	Platform    MeetingPlatform `json:"platform"`
	StartTime   time.Time       `json:"start_time"`
	EndTime     time.Time       `json:"end_time"`
	JoinLink    string          `json:"join_link"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	IsDefault   bool            `json:"is_default"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
}
