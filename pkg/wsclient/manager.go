package wsclient

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"supervisor-console/pkg/metrics"
	"supervisor-console/pkg/models"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// ConnState is the push-channel connection state
type ConnState int32

// Connection states. The normal lifecycle is Disconnected -> Connecting ->
// Connected, then Reconnecting -> Connecting -> Connected after any drop.
const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

// String returns the state name
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	}
	return "unknown"
}

// Manager owns the lifecycle of the one persistent push-channel connection:
// dialing, frame reading, closure detection, and the fixed-delay reconnect
// timer. Decoded envelopes are published to the envelope channel; what they
// mean is the dispatcher's business.
//
// Reconnection uses a fixed delay with no backoff and retries forever. A
// single console is the only consumer, so thundering-herd protection buys
// nothing here and the simpler timer is easier to reason about.
type Manager struct {
	url            string
	sessionToken   string
	reconnectDelay time.Duration
	envelopes      chan<- models.Envelope
	logger         *logrus.Logger
	dialer         *websocket.Dialer

	mutex          sync.Mutex
	state          ConnState
	conn           *websocket.Conn
	reconnectTimer *time.Timer
	closed         bool
	stopChan       chan struct{}
}

// NewManager creates a connection manager that publishes decoded envelopes
// to the given channel.
func NewManager(url, sessionToken string, reconnectDelay time.Duration, envelopes chan<- models.Envelope, logger *logrus.Logger) *Manager {
	return &Manager{
		url:            url,
		sessionToken:   sessionToken,
		reconnectDelay: reconnectDelay,
		envelopes:      envelopes,
		logger:         logger,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		state:    StateDisconnected,
		stopChan: make(chan struct{}),
	}
}

// State returns the current connection state
func (m *Manager) State() ConnState {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.state
}

// Connect opens the push channel. It is idempotent: when a connection is
// already open or a dial is in flight, the call is a no-op. The dial runs
// asynchronously; failures feed the same reconnect path as a dropped
// connection.
func (m *Manager) Connect() {
	m.mutex.Lock()
	if m.closed || m.state == StateConnected || m.state == StateConnecting {
		m.mutex.Unlock()
		return
	}
	m.state = StateConnecting
	m.mutex.Unlock()

	go m.dial()
}

func (m *Manager) dial() {
	header := http.Header{}
	if m.sessionToken != "" {
		header.Set("Authorization", "Bearer "+m.sessionToken)
		header.Set("Cookie", "session_token="+m.sessionToken)
	}

	conn, _, err := m.dialer.Dial(m.url, header)

	m.mutex.Lock()
	if m.closed {
		m.mutex.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		m.logger.WithError(err).WithField("url", m.url).Warn("Push channel dial failed")
		m.scheduleReconnectLocked()
		m.mutex.Unlock()
		return
	}

	m.conn = conn
	m.state = StateConnected
	// A successful open cancels any reconnect attempt still pending from an
	// earlier failure.
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	m.mutex.Unlock()

	metrics.WSConnectionStatus.Set(1)
	m.logger.WithField("url", m.url).Info("Push channel connected")

	go m.readLoop(conn)
}

// readLoop reads frames until the connection drops, forwarding each decoded
// envelope. Frames that do not parse as an envelope are transient noise, not
// a connection fault: they are dropped and the loop keeps reading.
func (m *Manager) readLoop(conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			m.handleDisconnect(conn, err)
			return
		}

		var env models.Envelope
		if err := json.Unmarshal(payload, &env); err != nil || env.Type == "" {
			metrics.WSFramesDropped.Inc()
			m.logger.Debug("Dropping malformed push frame")
			continue
		}

		select {
		case m.envelopes <- env:
		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleDisconnect(conn *websocket.Conn, err error) {
	conn.Close()
	metrics.WSConnectionStatus.Set(0)

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.conn == conn {
		m.conn = nil
	}
	if m.closed {
		return
	}

	m.logger.WithError(err).Warn("Push channel closed, scheduling reconnect")
	m.scheduleReconnectLocked()
}

// scheduleReconnectLocked arms the reconnect timer. At most one attempt is
// ever pending; callers hold m.mutex.
func (m *Manager) scheduleReconnectLocked() {
	m.state = StateReconnecting
	if m.reconnectTimer != nil {
		return
	}
	m.reconnectTimer = time.AfterFunc(m.reconnectDelay, func() {
		m.mutex.Lock()
		m.reconnectTimer = nil
		if m.closed {
			m.mutex.Unlock()
			return
		}
		m.state = StateDisconnected
		m.mutex.Unlock()

		metrics.WSReconnectAttempts.Inc()
		m.Connect()
	})
}

// Close tears the connection down for good: the socket is closed, any
// pending reconnect timer is cancelled, and no further reconnection happens.
// Everything runs on this one exit path so a session end cannot leak a timer
// or socket.
func (m *Manager) Close() {
	m.mutex.Lock()
	if m.closed {
		m.mutex.Unlock()
		return
	}
	m.closed = true
	m.state = StateDisconnected

	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	conn := m.conn
	m.conn = nil
	m.mutex.Unlock()

	close(m.stopChan)
	if conn != nil {
		conn.Close()
	}

	metrics.WSConnectionStatus.Set(0)
	m.logger.Info("Push channel closed")
}
