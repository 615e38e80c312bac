package condopaperssdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal condopapers HTTP API client.
type Client struct {
	BaseURL    string
	BasePath   string
	ActorID    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL, actorID string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "/v0",
		ActorID:  actorID,
		Timeout:  10 * time.Second,
	}
}

// Status is the derived classification of a dated item.
type Status struct {
	Tier  int    `json:"tier"`
	Level string `json:"level"`
	State string `json:"state"`
	Label string `json:"label"`
	Days  int    `json:"days_until_expiry"`
}

// ComplianceItem represents a certificate or inspection report.
type ComplianceItem struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Type          string `json:"type"`
	IssueDate     string `json:"issue_date"`
	ExpiryDate    string `json:"expiry_date"`
	DocumentURL   string `json:"document_url"`
	Status        Status `json:"status"`
	ExpiryDisplay string `json:"expiry_display"`
}

// ComplianceSummary counts items per level.
type ComplianceSummary struct {
	Valid    int `json:"valid"`
	Warning  int `json:"warning"`
	Critical int `json:"critical"`
	Total    int `json:"total"`
}

// Document is one attachment of a work request.
type Document struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Uploaded bool   `json:"uploaded"`
}

// WorkRequest represents a renovation request (partial).
type WorkRequest struct {
	ID        string     `json:"id"`
	Unit      string     `json:"unit"`
	Resident  string     `json:"resident"`
	WorkType  string     `json:"work_type"`
	Status    string     `json:"status"`
	Documents []Document `json:"documents"`
}

// Task is one checklist entry.
type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Required  bool   `json:"required"`
	Completed bool   `json:"completed"`
}

// Checklist represents a porter checklist with progress.
type Checklist struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Shift    string `json:"shift"`
	Status   string `json:"status"`
	Tasks    []Task `json:"tasks"`
	Progress struct {
		Completed  int     `json:"completed"`
		Total      int     `json:"total"`
		Percentage float64 `json:"percentage"`
	} `json:"progress"`
}

// Event represents a log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

// PaginatedEvents wraps list responses with cursors.
type PaginatedEvents struct {
	Items      []Event `json:"items"`
	NextCursor string  `json:"next_cursor"`
}

// APIError wraps non-2xx responses. Code and Missing are filled from the
// error envelope when the body carries one.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Missing    []string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// IsGateDeclined reports whether err is a refused approval or completion.
func IsGateDeclined(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == "gate_declined"
}

// Compliance lists compliance items, most urgent first.
func (c *Client) Compliance(ctx context.Context) ([]ComplianceItem, error) {
	var resp []ComplianceItem
	err := c.do(ctx, http.MethodGet, "compliance", nil, &resp)
	return resp, err
}

// ComplianceSummary returns per-level counts.
func (c *Client) ComplianceSummary(ctx context.Context) (ComplianceSummary, error) {
	var resp ComplianceSummary
	err := c.do(ctx, http.MethodGet, "compliance/summary", nil, &resp)
	return resp, err
}

// WorkRequest fetches a renovation request.
func (c *Client) WorkRequest(ctx context.Context, id string) (WorkRequest, error) {
	var resp WorkRequest
	err := c.do(ctx, http.MethodGet, "work-requests/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// UploadDocument marks a document of a work request as uploaded.
func (c *Client) UploadDocument(ctx context.Context, id, name string) (WorkRequest, error) {
	var resp WorkRequest
	err := c.do(ctx, http.MethodPost, "work-requests/"+url.PathEscape(id)+"/documents", map[string]any{"name": name}, &resp)
	return resp, err
}

// ApproveWorkRequest approves a request. A declined gate returns an
// *APIError for which IsGateDeclined is true.
func (c *Client) ApproveWorkRequest(ctx context.Context, id string) (WorkRequest, error) {
	var resp struct {
		WorkRequest WorkRequest `json:"work_request"`
	}
	err := c.do(ctx, http.MethodPost, "work-requests/"+url.PathEscape(id)+"/approve", nil, &resp)
	return resp.WorkRequest, err
}

// ToggleTask flips one checklist task.
func (c *Client) ToggleTask(ctx context.Context, checklistID, taskID string) (Checklist, error) {
	var resp Checklist
	endpoint := fmt.Sprintf("checklists/%s/tasks/%s/toggle", url.PathEscape(checklistID), url.PathEscape(taskID))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// CompleteChecklist finalizes a checklist.
func (c *Client) CompleteChecklist(ctx context.Context, id string) (Checklist, error) {
	var resp struct {
		Checklist Checklist `json:"checklist"`
	}
	err := c.do(ctx, http.MethodPost, "checklists/"+url.PathEscape(id)+"/complete", nil, &resp)
	return resp.Checklist, err
}

// Scan records a QR scan by point id or code.
func (c *Client) Scan(ctx context.Context, ref string) error {
	return c.do(ctx, http.MethodPost, "control-points/scan", map[string]any{"ref": ref}, nil)
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	page, err := c.EventsPage(ctx, limit, "")
	return page.Items, err
}

// EventsPage returns a paginated event listing.
func (c *Client) EventsPage(ctx context.Context, limit int, cursor string) (PaginatedEvents, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	endpoint := "events"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp PaginatedEvents
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	target := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.ActorID != "" {
		req.Header.Set("X-Actor-Id", c.ActorID)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var env struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
				Details struct {
					Missing []string `json:"missing"`
				} `json:"details"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &env) == nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Missing = env.Error.Details.Missing
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	base := strings.TrimRight(c.BaseURL, "/")
	if p := strings.Trim(c.BasePath, "/"); p != "" {
		base += "/" + p
	}
	return base
}
