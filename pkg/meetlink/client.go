/**
 * @description
 * Client for provisioning meeting join links. When a link provider API is
 * configured it is asked for a fresh link per meeting; otherwise a static
 * room link from configuration is reused. A failure here is fatal to meeting
 * resolution: the service must never persist a meeting with a broken link.
 */
package meetlink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client provisions join links for meetings.
type Client struct {
	baseURL    string
	apiKey     string
	staticLink string
	httpClient *http.Client
}

// NewClient creates a new join-link client. Either baseURL or staticLink must
// be non-empty; when both are set the provider API wins.
func NewClient(baseURL, apiKey, staticLink string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		staticLink: staticLink,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type createLinkRequest struct {
	Platform  string    `json:"platform"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Title     string    `json:"title"`
}

type createLinkResponse struct {
	JoinLink string `json:"join_link"`
}

// CreateJoinLink returns a join link for a meeting on the given window.
func (c *Client) CreateJoinLink(ctx context.Context, platform, title string, start, end time.Time) (string, error) {
	if c.baseURL == "" {
		if c.staticLink == "" {
			return "", fmt.Errorf("no meeting link provider configured")
		}
		return c.staticLink, nil
	}

	payload := createLinkRequest{
		Platform:  platform,
		StartTime: start,
		EndTime:   end,
		Title:     title,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal link request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/links", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request to link provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("link provider returned error status %d", resp.StatusCode)
	}

	var decoded createLinkResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode link provider response: %w", err)
	}
	if decoded.JoinLink == "" {
		return "", fmt.Errorf("link provider returned an empty join link")
	}
	return decoded.JoinLink, nil
}
