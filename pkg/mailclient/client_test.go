package mailclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GOALETE/dispatch-service/internal/domain"
)

func testMeeting() domain.Meeting {
	loc := time.FixedZone("UTC+05:30", 330*60)
	return domain.Meeting{
		ID:          "meeting-1",
		MeetingDate: time.Date(2025, 3, 11, 0, 0, 0, 0, loc),
		StartTime:   time.Date(2025, 3, 11, 21, 0, 0, 0, loc),
		EndTime:     time.Date(2025, 3, 11, 22, 0, 0, 0, loc),
		JoinLink:    "https://meet.google.com/abc-defg-hij",
		Title:       "Daily Session",
		Description: "Evening session; bring questions",
	}
}

func TestSendInvitePostsPayload(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/emails" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer key-123" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key-123", "invites@goalete.com")
	err := client.SendInvite(context.Background(),
		domain.Account{Email: "amit@example.com", Name: "Amit"}, testMeeting())
	if err != nil {
		t.Fatalf("SendInvite returned error: %v", err)
	}

	if got.To != "amit@example.com" {
		t.Fatalf("expected recipient amit@example.com, got %q", got.To)
	}
	if got.From != "invites@goalete.com" {
		t.Fatalf("expected configured sender, got %q", got.From)
	}
	if len(got.Attachments) != 1 || got.Attachments[0].Filename != "invite.ics" {
		t.Fatalf("expected one ics attachment, got %+v", got.Attachments)
	}
	if !strings.Contains(got.HTML, "https://meet.google.com/abc-defg-hij") {
		t.Fatal("expected the join link in the email body")
	}
}

func TestSendInviteSurfacesTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key-123", "invites@goalete.com")
	err := client.SendInvite(context.Background(), domain.Account{Email: "amit@example.com"}, testMeeting())
	if err == nil {
		t.Fatal("expected an error for a 429 response")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status code in error, got %v", err)
	}
}

func TestBuildICS(t *testing.T) {
	ics := BuildICS(domain.Account{Email: "amit@example.com"}, testMeeting())

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"METHOD:REQUEST",
		"UID:meeting-1@goalete.com",
		"DTSTART:20250311T153000Z", // 21:00 +05:30 in UTC
		"DTEND:20250311T163000Z",
		"SUMMARY:Daily Session",
		"DESCRIPTION:Evening session\\; bring questions",
		"ATTENDEE;RSVP=TRUE:mailto:amit@example.com",
		"END:VCALENDAR",
	} {
		if !strings.Contains(ics, want) {
			t.Fatalf("expected ICS to contain %q, got:\n%s", want, ics)
		}
	}
}
