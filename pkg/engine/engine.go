package engine

import (
	"context"
	"sync"

	"supervisor-console/pkg/actions"
	"supervisor-console/pkg/api"
	"supervisor-console/pkg/config"
	"supervisor-console/pkg/dispatch"
	"supervisor-console/pkg/messaging"
	"supervisor-console/pkg/models"
	"supervisor-console/pkg/poll"
	"supervisor-console/pkg/store"
	"supervisor-console/pkg/wsclient"

	"github.com/sirupsen/logrus"
)

// envelopeBuffer absorbs push bursts while a poll cycle holds the store lock
const envelopeBuffer = 64

// Engine is the live state synchronization service. It owns the store, the
// push-channel connection, the poll reconciler, and the action gateway, and
// runs them under one explicit lifecycle: Start hydrates and begins syncing,
// Stop tears everything down together so a session end cannot leave a timer
// or socket driving state for a console that is no longer looking.
type Engine struct {
	logger     *logrus.Logger
	store      *store.Store
	dispatcher *dispatch.Dispatcher
	manager    *wsclient.Manager
	reconciler *poll.Reconciler
	gateway    *actions.Gateway
	relay      *messaging.Relay
	envelopes  chan models.Envelope

	mutex     sync.Mutex
	running   bool
	cancel    context.CancelFunc
	drainDone chan struct{}
}

// New wires an engine from configuration. The collaborator client is
// injected so tests can point the engine at fixture servers.
func New(cfg *config.Config, client *api.Client, logger *logrus.Logger) *Engine {
	st := store.NewStore(logger)
	envelopes := make(chan models.Envelope, envelopeBuffer)

	e := &Engine{
		logger:     logger,
		store:      st,
		dispatcher: dispatch.NewDispatcher(st, logger),
		manager: wsclient.NewManager(
			cfg.Backend.WSURL,
			cfg.Backend.SessionToken,
			cfg.Engine.ReconnectDelay,
			envelopes,
			logger,
		),
		reconciler: poll.NewReconciler(client, st, cfg.Engine.PollInterval, logger),
		gateway:    actions.NewGateway(client, st, logger),
		envelopes:  envelopes,
	}

	if cfg.Messaging.URL != "" {
		e.relay = messaging.NewRelay(logger, messaging.RelayConfig{
			URL:       cfg.Messaging.URL,
			QueueName: cfg.Messaging.QueueName,
			Durable:   true,
		})
	}

	return e
}

// Store exposes the materialized state to presentation consumers
func (e *Engine) Store() *store.Store {
	return e.store
}

// Gateway exposes the supervisor mutation operations
func (e *Engine) Gateway() *actions.Gateway {
	return e.gateway
}

// ConnectionState reports the push-channel state
func (e *Engine) ConnectionState() wsclient.ConnState {
	return e.manager.State()
}

// Start hydrates the store from the read collaborators, opens the push
// channel, and starts the poll reconciler. Hydration runs synchronously so
// state exists before the first tick or push event; a hydration failure is a
// transient read fault and does not stop the engine.
func (e *Engine) Start(ctx context.Context) {
	e.mutex.Lock()
	if e.running {
		e.mutex.Unlock()
		return
	}
	e.running = true

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.drainDone = make(chan struct{})
	drainDone := e.drainDone
	e.mutex.Unlock()

	e.logger.Info("Sync engine starting")

	e.reconciler.Hydrate(runCtx)

	go func() {
		defer close(drainDone)
		for {
			select {
			case <-runCtx.Done():
				return
			case env := <-e.envelopes:
				if e.relay != nil {
					e.relay.Publish(env)
				}
				e.dispatcher.Apply(env)
			}
		}
	}()

	e.manager.Connect()
	e.reconciler.Start(runCtx)
}

// Stop tears the session down: push channel and its reconnect timer, the
// polling timer, the dispatch loop, and the relay, all on one path.
func (e *Engine) Stop() {
	e.mutex.Lock()
	if !e.running {
		e.mutex.Unlock()
		return
	}
	e.running = false
	cancel := e.cancel
	drainDone := e.drainDone
	e.mutex.Unlock()

	e.manager.Close()
	e.reconciler.Stop()
	cancel()
	<-drainDone

	if e.relay != nil {
		e.relay.Close()
	}

	e.logger.Info("Sync engine stopped")
}
