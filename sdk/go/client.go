package rexlinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Rexline HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Report is the API report model.
type Report struct {
	ID              string   `json:"id"`
	AuthorID        string   `json:"author_id"`
	OrgID           string   `json:"org_id"`
	Status          string   `json:"status"`
	Tier            string   `json:"tier"`
	IncidentType    string   `json:"incident_type,omitempty"`
	Severity        string   `json:"severity"`
	Visibility      string   `json:"visibility"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Context         string   `json:"context,omitempty"`
	MeansDeployed   string   `json:"means_deployed,omitempty"`
	Difficulties    string   `json:"difficulties,omitempty"`
	LessonsLearned  string   `json:"lessons_learned,omitempty"`
	ThematicTags    []string `json:"thematic_tags"`
	ValidatedBy     *string  `json:"validated_by,omitempty"`
	ValidatedAt     *string  `json:"validated_at,omitempty"`
	RejectionReason *string  `json:"rejection_reason,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

// Notification is an in-app notification entry.
type Notification struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	Link      string `json:"link,omitempty"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

// Event represents a log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	OrgID      string         `json:"org_id"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// PaginatedReports wraps report listings with cursors.
type PaginatedReports struct {
	Items      []Report `json:"items"`
	NextCursor string   `json:"next_cursor"`
}

// PaginatedEvents wraps list responses with cursors.
type PaginatedEvents struct {
	Items      []Event `json:"items"`
	NextCursor string  `json:"next_cursor"`
}

// CreateReport drafts a report.
func (c *Client) CreateReport(ctx context.Context, title, description string, fields map[string]any) (Report, error) {
	body := map[string]any{
		"title":       title,
		"description": description,
	}
	for k, v := range fields {
		body[k] = v
	}
	var resp Report
	err := c.do(ctx, http.MethodPost, "v0/reports", body, &resp)
	return resp, err
}

// GetReport fetches a report by id.
func (c *Client) GetReport(ctx context.Context, id string) (Report, error) {
	var resp Report
	err := c.do(ctx, http.MethodGet, c.reportPath(id, ""), nil, &resp)
	return resp, err
}

// ListReports returns a page of reports.
func (c *Client) ListReports(ctx context.Context, limit int, cursor string) (PaginatedReports, error) {
	endpoint := "v0/reports"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	if cursor != "" {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		endpoint = fmt.Sprintf("%s%scursor=%s", endpoint, sep, url.QueryEscape(cursor))
	}
	var resp PaginatedReports
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// UpdateReport edits report content fields.
func (c *Client) UpdateReport(ctx context.Context, id string, fields map[string]any) (Report, error) {
	var resp Report
	err := c.do(ctx, http.MethodPatch, c.reportPath(id, ""), fields, &resp)
	return resp, err
}

// SubmitReport submits a draft for validation.
func (c *Client) SubmitReport(ctx context.Context, id string) (Report, error) {
	var resp Report
	err := c.do(ctx, http.MethodPost, c.reportPath(id, "submit"), nil, &resp)
	return resp, err
}

// ValidateReport validates a pending report.
func (c *Client) ValidateReport(ctx context.Context, id string) (Report, error) {
	var resp Report
	err := c.do(ctx, http.MethodPost, c.reportPath(id, "validate"), nil, &resp)
	return resp, err
}

// RejectReport rejects a pending report back to draft.
func (c *Client) RejectReport(ctx context.Context, id, reason string) (Report, error) {
	var resp Report
	err := c.do(ctx, http.MethodPost, c.reportPath(id, "reject"), map[string]any{"reason": reason}, &resp)
	return resp, err
}

// PromoteReport promotes a report to the given tier.
func (c *Client) PromoteReport(ctx context.Context, id, tier string) (Report, error) {
	var resp Report
	err := c.do(ctx, http.MethodPost, c.reportPath(id, "promote"), map[string]any{"tier": tier}, &resp)
	return resp, err
}

// ArchiveReport archives a validated report.
func (c *Client) ArchiveReport(ctx context.Context, id string) (Report, error) {
	var resp Report
	err := c.do(ctx, http.MethodPost, c.reportPath(id, "archive"), nil, &resp)
	return resp, err
}

// Notifications returns the caller's notifications.
func (c *Client) Notifications(ctx context.Context, unreadOnly bool) ([]Notification, error) {
	endpoint := "v0/notifications"
	if unreadOnly {
		endpoint += "?unread=true"
	}
	var resp struct {
		Items []Notification `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

// MarkNotificationRead marks one notification read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("v0/notifications/%s/read", url.PathEscape(id))
	return c.do(ctx, http.MethodPost, endpoint, nil, nil)
}

// EventsPage returns a paginated event listing.
func (c *Client) EventsPage(ctx context.Context, limit int, cursor string) (PaginatedEvents, error) {
	endpoint := "v0/events"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	if cursor != "" {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		endpoint = fmt.Sprintf("%s%scursor=%s", endpoint, sep, url.QueryEscape(cursor))
	}
	var resp PaginatedEvents
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) reportPath(id, action string) string {
	p := fmt.Sprintf("v0/reports/%s", url.PathEscape(id))
	if action != "" {
		p += "/" + action
	}
	return p
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
