package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"supervisor-console/pkg/errors"
	"supervisor-console/pkg/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func TestRequestsCarryCredentials(t *testing.T) {
	var gotAuth, gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if c, err := r.Cookie("session_token"); err == nil {
			gotCookie = c.Value
		}
		json.NewEncoder(w).Encode([]models.Call{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok-123", time.Second, testLogger())
	_, err := c.ActiveCalls(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "tok-123", gotCookie)
}

func TestActiveCallsDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/calls/active", r.URL.Path)
		json.NewEncoder(w).Encode([]models.Call{
			{CallID: "C1", HealthScore: 75, Agent: models.AgentRef{Name: "Ana"}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second, testLogger())
	calls, err := c.ActiveCalls(context.Background())

	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "C1", calls[0].CallID)
	assert.Equal(t, 75, calls[0].HealthScore)
	assert.Equal(t, "Ana", calls[0].Agent.Name)
}

func TestRealtimeMetricsKeepsExtensionFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"active_calls":5,"avg_sentiment":-0.2,"alerts_count":1,"longest_call":340,"avg_health_score":81.5}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second, testLogger())
	m, err := c.RealtimeMetrics(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 5, m.ActiveCalls())
	assert.Equal(t, -0.2, m.AvgSentiment())
	assert.Equal(t, 340, m.LongestCall())
	assert.Equal(t, 81.5, m["avg_health_score"])
}

func TestUnauthorizedMapsToSessionExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "stale", time.Second, testLogger())
	_, err := c.ActiveAlerts(context.Background())

	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrSessionExpired))
}

func TestConnectionRefusedIsCollaboratorUnavailable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "", 200*time.Millisecond, testLogger())
	_, err := c.ActiveCalls(context.Background())

	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrCollaboratorUnavailable))
}

func TestResolveAlertEncodesNotes(t *testing.T) {
	var gotPath, gotNotes string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotNotes = r.URL.Query().Get("notes")
		json.NewEncoder(w).Encode(map[string]string{"message": "Alert resolved"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second, testLogger())
	err := c.ResolveAlert(context.Background(), "ALT-7", "spoke to customer & fixed")

	require.NoError(t, err)
	assert.Equal(t, "/api/alerts/ALT-7/resolve", gotPath)
	assert.Equal(t, "spoke to customer & fixed", gotNotes)
}

func TestPerformCallActionBody(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/calls/C1/action", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second, testLogger())
	err := c.PerformCallAction(context.Background(), "C1", "flag", "review later")

	require.NoError(t, err)
	assert.Equal(t, "flag", body["action"])
	assert.Equal(t, "review later", body["details"])
}

func TestWriteFailureSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Alert not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second, testLogger())
	err := c.AcknowledgeAlert(context.Background(), "gone")

	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrNotFound))
}

func TestSimulationControl(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/api/simulation/status" {
			json.NewEncoder(w).Encode(models.SimulationStatus{Running: true, ActiveCalls: 6})
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second, testLogger())
	ctx := context.Background()

	require.NoError(t, c.StartSimulation(ctx))
	require.NoError(t, c.TriggerScenario(ctx, "angry_customer"))
	status, err := c.SimulationStatus(ctx)
	require.NoError(t, err)
	require.NoError(t, c.StopSimulation(ctx))

	assert.True(t, status.Running)
	assert.Equal(t, 6, status.ActiveCalls)
	assert.Equal(t, []string{
		"/api/simulation/start",
		"/api/simulation/trigger-event",
		"/api/simulation/status",
		"/api/simulation/stop",
	}, paths)
}

func TestAlertHistoryPaging(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/alerts/history", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		assert.Equal(t, "50", r.URL.Query().Get("skip"))
		json.NewEncoder(w).Encode([]models.Alert{{AlertID: "A1", Status: models.StatusResolved}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second, testLogger())
	alerts, err := c.AlertHistory(context.Background(), 25, 50)

	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.StatusResolved, alerts[0].Status)
}

func TestExportAnalytics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/analytics/export", r.URL.Path)
		json.NewEncoder(w).Encode(models.AnalyticsExport{
			ExportData: []models.Call{{CallID: "C1", Status: "ended"}},
			ExportedAt: "2026-08-29T10:00:00Z",
			Count:      1,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second, testLogger())
	export, err := c.ExportAnalytics(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, export.Count)
	require.Len(t, export.ExportData, 1)
	assert.Equal(t, "C1", export.ExportData[0].CallID)
}
