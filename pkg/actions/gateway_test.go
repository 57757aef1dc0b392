package actions

import (
	"context"
	"testing"

	"supervisor-console/pkg/models"
	"supervisor-console/pkg/store"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWriter records write requests and can be told to fail
type fakeWriter struct {
	fail     bool
	ackIDs   []string
	resolved map[string]string
	actions  []string
}

func (f *fakeWriter) AcknowledgeAlert(ctx context.Context, alertID string) error {
	if f.fail {
		return assert.AnError
	}
	f.ackIDs = append(f.ackIDs, alertID)
	return nil
}

func (f *fakeWriter) ResolveAlert(ctx context.Context, alertID, notes string) error {
	if f.fail {
		return assert.AnError
	}
	if f.resolved == nil {
		f.resolved = make(map[string]string)
	}
	f.resolved[alertID] = notes
	return nil
}

func (f *fakeWriter) PerformCallAction(ctx context.Context, callID, action, details string) error {
	if f.fail {
		return assert.AnError
	}
	f.actions = append(f.actions, callID+":"+action)
	return nil
}

func newTestGateway(writer *fakeWriter) (*Gateway, *store.Store) {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	st := store.NewStore(logger)
	return NewGateway(writer, st, logger), st
}

func TestAcknowledgeAlertRemovesOnSuccess(t *testing.T) {
	writer := &fakeWriter{}
	g, st := newTestGateway(writer)
	st.InsertAlertFront(models.Alert{AlertID: "A1", Status: models.StatusActive})

	err := g.AcknowledgeAlert(context.Background(), "A1")

	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, writer.ackIDs)
	assert.Empty(t, st.ActiveAlerts(), "confirmed acknowledge drops the alert locally")
}

func TestAcknowledgeAlertFailureKeepsState(t *testing.T) {
	writer := &fakeWriter{fail: true}
	g, st := newTestGateway(writer)
	st.InsertAlertFront(models.Alert{AlertID: "A1", Status: models.StatusActive})

	err := g.AcknowledgeAlert(context.Background(), "A1")

	require.Error(t, err, "write faults surface to the caller")
	assert.Len(t, st.ActiveAlerts(), 1, "no local mutation on failure")
}

func TestResolveAlertPassesNotes(t *testing.T) {
	writer := &fakeWriter{}
	g, st := newTestGateway(writer)
	st.InsertAlertFront(models.Alert{AlertID: "A2", Status: models.StatusActive})

	err := g.ResolveAlert(context.Background(), "A2", "customer called back")

	require.NoError(t, err)
	assert.Equal(t, "customer called back", writer.resolved["A2"])
	assert.Empty(t, st.ActiveAlerts())
}

func TestResolveAlertFailureKeepsState(t *testing.T) {
	writer := &fakeWriter{fail: true}
	g, st := newTestGateway(writer)
	st.InsertAlertFront(models.Alert{AlertID: "A2", Status: models.StatusActive})

	err := g.ResolveAlert(context.Background(), "A2", "")

	require.Error(t, err)
	assert.Len(t, st.ActiveAlerts(), 1)
}

func TestPerformActionNeverMutatesLocally(t *testing.T) {
	writer := &fakeWriter{}
	g, st := newTestGateway(writer)
	st.UpsertCall(models.Call{CallID: "C1"})

	err := g.PerformAction(context.Background(), "C1", "flag", "possible churn")

	require.NoError(t, err)
	assert.Equal(t, []string{"C1:flag"}, writer.actions)

	// The action's effect arrives via push or poll, never synthesized here
	call, ok := st.Call("C1")
	require.True(t, ok)
	assert.Empty(t, call.SupervisorActions)
}

func TestPerformActionFailureSurfaced(t *testing.T) {
	writer := &fakeWriter{fail: true}
	g, _ := newTestGateway(writer)

	err := g.PerformAction(context.Background(), "C1", "transfer", "")
	require.Error(t, err)
}
