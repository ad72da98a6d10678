package ataasdk

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

// Client is a minimal Ataa HTTP API client.
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

// Task represents the API task model (partial).
type Task struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Priority       string   `json:"priority"`
	Difficulty     string   `json:"difficulty"`
	EstimatedHours float64  `json:"estimated_hours"`
	RequiredSkills []string `json:"required_skills,omitempty"`
	AssigneeID     *string  `json:"assignee_id,omitempty"`
}

// RAGScore is one row of the task leaderboard.
type RAGScore struct {
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	Readiness    float64 `json:"readiness"`
	Availability float64 `json:"availability"`
	Growth       float64 `json:"growth"`
	Overall      float64 `json:"overall"`
	Color        string  `json:"color"`
}

// DistributionResult is the outcome of assigning one task.
type DistributionResult struct {
	TaskID             string   `json:"task_id"`
	TaskTitle          string   `json:"task_title"`
	Score              float64  `json:"score"`
	SuccessProbability float64  `json:"success_probability"`
	Reasoning          []string `json:"reasoning"`
	RiskFactors        []string `json:"risk_factors"`
	SelectedEmployee   struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"selected_employee"`
}

// BurnoutRecord is a stored burnout snapshot (partial).
type BurnoutRecord struct {
	EmployeeID      string   `json:"employee_id"`
	BurnoutScore    float64  `json:"burnout_score"`
	RiskLevel       string   `json:"risk_level"`
	Recommendations []string `json:"recommendations"`
}

// Decision is a drafted decision awaiting review (partial).
type Decision struct {
	ID                string  `json:"id"`
	Type              string  `json:"type"`
	Title             string  `json:"title"`
	RecommendedOption string  `json:"recommended_option"`
	Confidence        float64 `json:"confidence"`
	Urgency           string  `json:"urgency"`
	Status            string  `json:"status"`
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

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateTask creates a backlog task.
func (c *Client) CreateTask(ctx context.Context, title, priority string, estimatedHours float64, requiredSkills []string) (Task, error) {
	body := map[string]any{
		"title":           title,
		"priority":        priority,
		"estimated_hours": estimatedHours,
		"required_skills": requiredSkills,
	}
	var resp Task
	err := c.do(ctx, http.MethodPost, "v0/tasks", body, &resp)
	return resp, err
}

// ScoreTask returns the leaderboard for a task, best candidate first.
func (c *Client) ScoreTask(ctx context.Context, taskID string) ([]RAGScore, error) {
	var resp []RAGScore
	endpoint := fmt.Sprintf("v0/tasks/%s/scores", url.PathEscape(taskID))
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// DistributeTask assigns a task to the best-scoring employee.
func (c *Client) DistributeTask(ctx context.Context, taskID string) (DistributionResult, error) {
	var resp DistributionResult
	endpoint := fmt.Sprintf("v0/tasks/%s/distribute", url.PathEscape(taskID))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// DistributeBacklog distributes every unassigned task.
func (c *Client) DistributeBacklog(ctx context.Context) ([]DistributionResult, error) {
	var resp []DistributionResult
	err := c.do(ctx, http.MethodPost, "v0/tasks/distribute", nil, &resp)
	return resp, err
}

// AnalyzeBurnout submits a week of work data for an employee.
func (c *Client) AnalyzeBurnout(ctx context.Context, employeeID string, workData map[string]any) (BurnoutRecord, error) {
	var resp BurnoutRecord
	endpoint := fmt.Sprintf("v0/employees/%s/burnout", url.PathEscape(employeeID))
	err := c.do(ctx, http.MethodPost, endpoint, workData, &resp)
	return resp, err
}

// RunDecision feeds a trigger context to the decision engine.
func (c *Client) RunDecision(ctx context.Context, triggeredBy string, objectives []string) (Decision, error) {
	body := map[string]any{
		"triggered_by": triggeredBy,
		"objectives":   objectives,
	}
	var resp Decision
	err := c.do(ctx, http.MethodPost, "v0/decisions", body, &resp)
	return resp, err
}

// AcceptDecision accepts a pending decision.
func (c *Client) AcceptDecision(ctx context.Context, id string) (Decision, error) {
	var resp Decision
	endpoint := fmt.Sprintf("v0/decisions/%s/accept", url.PathEscape(id))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// Events returns recent events, newest first.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := "v0/events"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []Event
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

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
