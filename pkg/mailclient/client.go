/**
 * @description
 * Client for the outbound mail API. It sends one calendar-invite email per
 * recipient, with the meeting encoded both in the HTML body and as an inline
 * iCalendar attachment so mail clients render an RSVP card.
 */
package mailclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/GOALETE/dispatch-service/internal/domain"
)

// Client is a client for the mail delivery API.
type Client struct {
	baseURL    string
	apiKey     string
	from       string
	httpClient *http.Client
}

// NewClient creates a new mail client.
func NewClient(baseURL, apiKey, from string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		from:       from,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

type sendRequest struct {
	From        string       `json:"from"`
	To          string       `json:"to"`
	Subject     string       `json:"subject"`
	HTML        string       `json:"html"`
	Attachments []attachment `json:"attachments,omitempty"`
}

type attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
}

// SendInvite sends a calendar invite for the meeting to the recipient.
// The caller controls the deadline through ctx.
func (c *Client) SendInvite(ctx context.Context, recipient domain.Account, meeting domain.Meeting) error {
	if c.baseURL == "" {
		return fmt.Errorf("mail API base URL is not configured")
	}

	payload := sendRequest{
		From:    c.from,
		To:      recipient.Email,
		Subject: fmt.Sprintf("%s — %s", meeting.Title, meeting.MeetingDate.Format("Mon, 2 Jan 2006")),
		HTML:    inviteHTML(recipient, meeting),
		Attachments: []attachment{{
			Filename:    "invite.ics",
			ContentType: "text/calendar; method=REQUEST",
			Content:     BuildICS(recipient, meeting),
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal invite payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/emails", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request to mail API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

func inviteHTML(recipient domain.Account, meeting domain.Meeting) string {
	name := recipient.Name
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(
		`<p>Hi %s,</p>
<p>Your session <strong>%s</strong> is scheduled for %s, %s – %s.</p>
<p><a href="%s">Join the meeting</a></p>
<p>%s</p>`,
		name,
		meeting.Title,
		meeting.MeetingDate.Format("Monday, 2 January 2006"),
		meeting.StartTime.Format("15:04"),
		meeting.EndTime.Format("15:04 MST"),
		meeting.JoinLink,
		meeting.Description,
	)
}

// BuildICS renders a minimal VCALENDAR invite for the meeting. UID is keyed on
// the meeting ID so re-sends update the same event instead of duplicating it
// in the recipient's calendar.
func BuildICS(recipient domain.Account, meeting domain.Meeting) string {
	const stamp = "20060102T150405Z"
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\n")
	b.WriteString("VERSION:2.0\r\n")
	b.WriteString("PRODID:-//GOALETE//dispatch-service//EN\r\n")
	b.WriteString("METHOD:REQUEST\r\n")
	b.WriteString("BEGIN:VEVENT\r\n")
	fmt.Fprintf(&b, "UID:%s@goalete.com\r\n", meeting.ID)
	fmt.Fprintf(&b, "DTSTAMP:%s\r\n", time.Now().UTC().Format(stamp))
	fmt.Fprintf(&b, "DTSTART:%s\r\n", meeting.StartTime.UTC().Format(stamp))
	fmt.Fprintf(&b, "DTEND:%s\r\n", meeting.EndTime.UTC().Format(stamp))
	fmt.Fprintf(&b, "SUMMARY:%s\r\n", escapeICS(meeting.Title))
	fmt.Fprintf(&b, "DESCRIPTION:%s\r\n", escapeICS(meeting.Description))
	fmt.Fprintf(&b, "LOCATION:%s\r\n", escapeICS(meeting.JoinLink))
	fmt.Fprintf(&b, "ATTENDEE;RSVP=TRUE:mailto:%s\r\n", recipient.Email)
	b.WriteString("END:VEVENT\r\n")
	b.WriteString("END:VCALENDAR\r\n")
	return b.String()
}

func escapeICS(s string) string {
	r := strings.NewReplacer("\\", "\\\\", ";", "\\;", ",", "\\,", "\n", "\\n")
	return r.Replace(s)
}
