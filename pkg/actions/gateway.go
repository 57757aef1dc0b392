package actions

import (
	"context"

	"supervisor-console/pkg/metrics"
	"supervisor-console/pkg/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Writer is the write-collaborator surface the gateway needs
type Writer interface {
	AcknowledgeAlert(ctx context.Context, alertID string) error
	ResolveAlert(ctx context.Context, alertID, notes string) error
	PerformCallAction(ctx context.Context, callID, action, details string) error
}

// Gateway issues supervisor mutations to the backend and applies the local
// state change only after the backend confirms. A failed request changes
// nothing locally and is returned to the caller; the gateway never retries
// on its own.
type Gateway struct {
	writer Writer
	store  *store.Store
	logger *logrus.Logger
}

// NewGateway creates an action gateway
func NewGateway(writer Writer, st *store.Store, logger *logrus.Logger) *Gateway {
	return &Gateway{
		writer: writer,
		store:  st,
		logger: logger,
	}
}

// AcknowledgeAlert acknowledges an alert on the backend and, on success,
// drops it from the active-alerts collection.
func (g *Gateway) AcknowledgeAlert(ctx context.Context, alertID string) error {
	if err := g.writer.AcknowledgeAlert(ctx, alertID); err != nil {
		metrics.ActionRequests.WithLabelValues("acknowledge_alert", "failure").Inc()
		g.logger.WithError(err).WithField("alert_id", alertID).Warn("Alert acknowledge failed")
		return err
	}

	metrics.ActionRequests.WithLabelValues("acknowledge_alert", "success").Inc()
	g.store.RemoveAlert(alertID)
	g.logger.WithField("alert_id", alertID).Info("Alert acknowledged")
	return nil
}

// ResolveAlert resolves an alert on the backend with optional free-text
// notes and, on success, drops it from the active-alerts collection.
func (g *Gateway) ResolveAlert(ctx context.Context, alertID, notes string) error {
	if err := g.writer.ResolveAlert(ctx, alertID, notes); err != nil {
		metrics.ActionRequests.WithLabelValues("resolve_alert", "failure").Inc()
		g.logger.WithError(err).WithField("alert_id", alertID).Warn("Alert resolve failed")
		return err
	}

	metrics.ActionRequests.WithLabelValues("resolve_alert", "success").Inc()
	g.store.RemoveAlert(alertID)
	g.logger.WithField("alert_id", alertID).Info("Alert resolved")
	return nil
}

// PerformAction records a supervisor action against a call. No local
// mutation follows a success: the action's effect arrives later through the
// push channel or the next poll.
func (g *Gateway) PerformAction(ctx context.Context, callID, action, details string) error {
	actionID := uuid.NewString()
	entry := g.logger.WithFields(logrus.Fields{
		"action_id": actionID,
		"call_id":   callID,
		"action":    action,
	})

	if err := g.writer.PerformCallAction(ctx, callID, action, details); err != nil {
		metrics.ActionRequests.WithLabelValues("call_action", "failure").Inc()
		entry.WithError(err).Warn("Supervisor action failed")
		return err
	}

	metrics.ActionRequests.WithLabelValues("call_action", "success").Inc()
	entry.Info("Supervisor action recorded")
	return nil
}
