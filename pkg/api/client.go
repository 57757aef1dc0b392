package api

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

	"supervisor-console/pkg/errors"
	"supervisor-console/pkg/models"
	"supervisor-console/pkg/version"

	"github.com/sirupsen/logrus"
)

// Client talks to the contact-center backend's read and write collaborators.
// All endpoints are credentials-bearing JSON over HTTP; the session token is
// presented both as the session cookie and as a bearer token so either
// backend auth path accepts it.
type Client struct {
	baseURL      string
	sessionToken string
	httpClient   *http.Client
	logger       *logrus.Logger
}

// NewClient creates a collaborator client for the given backend
func NewClient(baseURL, sessionToken string, timeout time.Duration, logger *logrus.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		sessionToken: sessionToken,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

// get issues a credentialed GET and decodes the JSON response into out
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "building request", map[string]interface{}{"path": path})
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewCollaboratorUnavailable(path, map[string]interface{}{"cause": err.Error()})
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, path); err != nil {
		return err
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decoding response", map[string]interface{}{"path": path})
	}
	return nil
}

// post issues a credentialed POST with an optional JSON body. The response
// body is drained but not interpreted beyond the status code.
func (c *Client) post(ctx context.Context, path string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body", map[string]interface{}{"path": path})
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "building request", map[string]interface{}{"path": path})
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewCollaboratorUnavailable(path, map[string]interface{}{"cause": err.Error()})
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return checkStatus(resp, path)
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("User-Agent", version.UserAgent())
	if c.sessionToken == "" {
		return
	}
	req.AddCookie(&http.Cookie{Name: "session_token", Value: c.sessionToken})
	req.Header.Set("Authorization", "Bearer "+c.sessionToken)
}

func checkStatus(resp *http.Response, path string) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return errors.Wrap(errors.ErrSessionExpired, "collaborator rejected credentials",
			map[string]interface{}{"path": path, "status": resp.StatusCode})
	case resp.StatusCode == http.StatusNotFound:
		return errors.NewNotFound(fmt.Sprintf("collaborator returned 404 for %s", path))
	default:
		return errors.New(fmt.Sprintf("collaborator returned status %d for %s", resp.StatusCode, path),
			map[string]interface{}{"status": resp.StatusCode, "path": path})
	}
}

// ActiveCalls fetches the active-calls snapshot
func (c *Client) ActiveCalls(ctx context.Context) ([]models.Call, error) {
	var calls []models.Call
	if err := c.get(ctx, "/api/calls/active", &calls); err != nil {
		return nil, err
	}
	return calls, nil
}

// CallHistory fetches ended calls, newest first
func (c *Client) CallHistory(ctx context.Context, limit, skip int) ([]models.Call, error) {
	var calls []models.Call
	path := fmt.Sprintf("/api/calls/history?limit=%d&skip=%d", limit, skip)
	if err := c.get(ctx, path, &calls); err != nil {
		return nil, err
	}
	return calls, nil
}

// CallDetail fetches one call in full, including its transcript
func (c *Client) CallDetail(ctx context.Context, callID string) (*models.Call, error) {
	var call models.Call
	if err := c.get(ctx, "/api/calls/"+url.PathEscape(callID), &call); err != nil {
		return nil, err
	}
	return &call, nil
}

// CallTranscript fetches a page of one call's transcript
func (c *Client) CallTranscript(ctx context.Context, callID string, skip, limit int) ([]models.TranscriptEntry, error) {
	var entries []models.TranscriptEntry
	path := fmt.Sprintf("/api/calls/%s/transcript?skip=%d&limit=%d", url.PathEscape(callID), skip, limit)
	if err := c.get(ctx, path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ActiveAlerts fetches the active-alerts snapshot
func (c *Client) ActiveAlerts(ctx context.Context) ([]models.Alert, error) {
	var alerts []models.Alert
	if err := c.get(ctx, "/api/alerts", &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// AlertHistory fetches past alerts, newest first
func (c *Client) AlertHistory(ctx context.Context, limit, skip int) ([]models.Alert, error) {
	var alerts []models.Alert
	path := fmt.Sprintf("/api/alerts/history?limit=%d&skip=%d", limit, skip)
	if err := c.get(ctx, path, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// RealtimeMetrics fetches the current metrics snapshot
func (c *Client) RealtimeMetrics(ctx context.Context) (models.Metrics, error) {
	var m models.Metrics
	if err := c.get(ctx, "/api/analytics/realtime", &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Agents fetches the agents roster
func (c *Client) Agents(ctx context.Context) ([]models.Agent, error) {
	var agents []models.Agent
	if err := c.get(ctx, "/api/agents", &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

// AgentDetail fetches one agent
func (c *Client) AgentDetail(ctx context.Context, agentID string) (*models.Agent, error) {
	var agent models.Agent
	if err := c.get(ctx, "/api/agents/"+url.PathEscape(agentID), &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

// AgentCalls fetches recent calls handled by one agent
func (c *Client) AgentCalls(ctx context.Context, agentID string, limit int) ([]models.Call, error) {
	var calls []models.Call
	path := fmt.Sprintf("/api/agents/%s/calls?limit=%d", url.PathEscape(agentID), limit)
	if err := c.get(ctx, path, &calls); err != nil {
		return nil, err
	}
	return calls, nil
}

// HourlyAnalytics fetches the hourly call-volume aggregate
func (c *Client) HourlyAnalytics(ctx context.Context) ([]models.HourlyVolume, error) {
	var hours []models.HourlyVolume
	if err := c.get(ctx, "/api/analytics/hourly", &hours); err != nil {
		return nil, err
	}
	return hours, nil
}

// IssueAnalytics fetches the issue-distribution aggregate
func (c *Client) IssueAnalytics(ctx context.Context) ([]models.IssueCount, error) {
	var issues []models.IssueCount
	if err := c.get(ctx, "/api/analytics/issues", &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// AgentAnalytics fetches per-agent performance aggregates
func (c *Client) AgentAnalytics(ctx context.Context) ([]models.Agent, error) {
	var agents []models.Agent
	if err := c.get(ctx, "/api/analytics/agents", &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

// ExportAnalytics asks the backend to assemble an export of recently ended
// calls. The backend models this as a POST even though it only reads.
func (c *Client) ExportAnalytics(ctx context.Context) (*models.AnalyticsExport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/analytics/export", nil)
	if err != nil {
		return nil, errors.Wrap(err, "building request", map[string]interface{}{"path": "/api/analytics/export"})
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewCollaboratorUnavailable("/api/analytics/export", map[string]interface{}{"cause": err.Error()})
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "/api/analytics/export"); err != nil {
		return nil, err
	}

	var export models.AnalyticsExport
	if err := json.NewDecoder(resp.Body).Decode(&export); err != nil {
		return nil, errors.Wrap(err, "decoding response", map[string]interface{}{"path": "/api/analytics/export"})
	}
	return &export, nil
}

// SimulationStatus fetches the backend simulator state
func (c *Client) SimulationStatus(ctx context.Context) (*models.SimulationStatus, error) {
	var status models.SimulationStatus
	if err := c.get(ctx, "/api/simulation/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// AcknowledgeAlert marks an alert acknowledged on the backend
func (c *Client) AcknowledgeAlert(ctx context.Context, alertID string) error {
	return c.post(ctx, "/api/alerts/"+url.PathEscape(alertID)+"/acknowledge", nil)
}

// ResolveAlert marks an alert resolved on the backend, with optional notes
func (c *Client) ResolveAlert(ctx context.Context, alertID, notes string) error {
	path := "/api/alerts/" + url.PathEscape(alertID) + "/resolve"
	if notes != "" {
		path += "?notes=" + url.QueryEscape(notes)
	}
	return c.post(ctx, path, nil)
}

// actionRequest is the body of a call-action POST
type actionRequest struct {
	Action  string `json:"action"`
	Details string `json:"details"`
}

// PerformCallAction records a supervisor action against a call
func (c *Client) PerformCallAction(ctx context.Context, callID, action, details string) error {
	return c.post(ctx, "/api/calls/"+url.PathEscape(callID)+"/action", actionRequest{
		Action:  action,
		Details: details,
	})
}

// StartSimulation starts the backend call simulator
func (c *Client) StartSimulation(ctx context.Context) error {
	return c.post(ctx, "/api/simulation/start", nil)
}

// StopSimulation stops the backend call simulator
func (c *Client) StopSimulation(ctx context.Context) error {
	return c.post(ctx, "/api/simulation/stop", nil)
}

// ConfigureSimulation updates the backend simulator configuration
func (c *Client) ConfigureSimulation(ctx context.Context, cfg models.SimulationConfig) error {
	return c.post(ctx, "/api/simulation/config", cfg)
}

// triggerEventRequest is the body of a trigger-event POST
type triggerEventRequest struct {
	EventType string `json:"event_type"`
}

// TriggerScenario fires a named demo scenario in the backend simulator
func (c *Client) TriggerScenario(ctx context.Context, eventType string) error {
	return c.post(ctx, "/api/simulation/trigger-event", triggerEventRequest{EventType: eventType})
}
