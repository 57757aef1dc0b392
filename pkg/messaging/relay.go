package messaging

import (
	"encoding/json"
	"sync"
	"time"

	"supervisor-console/pkg/metrics"
	"supervisor-console/pkg/models"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// RelayConfig holds AMQP relay configuration
type RelayConfig struct {
	URL        string
	QueueName  string
	RoutingKey string
	Durable    bool
}

// Relay republishes decoded push-channel envelopes onto an AMQP queue so
// downstream tooling (recording pipelines, audit consumers) can follow the
// live feed without a second websocket. The relay is best-effort: publish
// failures drop the message and trigger a reconnect on the next publish, and
// the engine's own state is never gated on it.
type Relay struct {
	logger *logrus.Logger
	config RelayConfig

	connMutex sync.Mutex
	conn      *amqp.Connection
	channel   *amqp.Channel
	connected bool
}

// NewRelay creates an AMQP relay. Connect is lazy: the first publish dials.
func NewRelay(logger *logrus.Logger, config RelayConfig) *Relay {
	if config.RoutingKey == "" {
		config.RoutingKey = config.QueueName
	}
	return &Relay{
		logger: logger,
		config: config,
	}
}

// Connect establishes the AMQP connection and declares the queue
func (r *Relay) Connect() error {
	r.connMutex.Lock()
	defer r.connMutex.Unlock()
	return r.connectLocked()
}

func (r *Relay) connectLocked() error {
	if r.connected {
		return nil
	}

	conn, err := amqp.Dial(r.config.URL)
	if err != nil {
		metrics.AMQPConnectionErrors.Inc()
		return err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		metrics.AMQPConnectionErrors.Inc()
		return err
	}

	_, err = channel.QueueDeclare(
		r.config.QueueName,
		r.config.Durable,
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		metrics.AMQPConnectionErrors.Inc()
		return err
	}

	r.conn = conn
	r.channel = channel
	r.connected = true

	r.logger.WithFields(logrus.Fields{
		"queue": r.config.QueueName,
	}).Info("AMQP relay connected")

	// Watch for broker-side closure so the next publish re-dials
	closeChan := make(chan *amqp.Error, 1)
	channel.NotifyClose(closeChan)
	go func() {
		if amqpErr := <-closeChan; amqpErr != nil {
			r.logger.WithField("reason", amqpErr.Reason).Warn("AMQP channel closed by broker")
			r.connMutex.Lock()
			r.connected = false
			r.connMutex.Unlock()
		}
	}()

	return nil
}

// Publish republishes one envelope. Failures are logged and swallowed; the
// live feed must not stall on the relay.
func (r *Relay) Publish(env models.Envelope) {
	r.connMutex.Lock()
	defer r.connMutex.Unlock()

	if !r.connected {
		if err := r.connectLocked(); err != nil {
			r.logger.WithError(err).Debug("AMQP relay unavailable, dropping envelope")
			return
		}
	}

	payload, err := json.Marshal(env)
	if err != nil {
		r.logger.WithError(err).Warn("Failed to marshal envelope for relay")
		return
	}

	err = r.channel.Publish(
		"", // default exchange
		r.config.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Type:        env.Type,
			Body:        payload,
		},
	)
	if err != nil {
		r.connected = false
		metrics.AMQPConnectionErrors.Inc()
		r.logger.WithError(err).Warn("AMQP publish failed, will reconnect on next publish")
		return
	}

	metrics.AMQPPublishedMessages.Inc()
}

// Close shuts the relay down
func (r *Relay) Close() {
	r.connMutex.Lock()
	defer r.connMutex.Unlock()

	if r.channel != nil {
		r.channel.Close()
		r.channel = nil
	}
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
	r.connected = false
}
