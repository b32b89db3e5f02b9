// Package broker owns the MQTT connection: session, last will, command
// subscription and a serialized outbound queue.
package broker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"mqtt-monitor/internal/config"
	"mqtt-monitor/internal/encoder"
	"mqtt-monitor/internal/logger"
)

var (
	ErrNotConnected = errors.New("broker not connected")
	ErrQueueFull    = errors.New("outbound queue full")
	ErrClosed       = errors.New("connection closed")
)

const disconnectQuiesce = 250 // ms

// mqttClient is the part of mqtt.Client the connection uses.
type mqttClient interface {
	Connect() mqtt.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

type CommandFunc func(payload []byte)

type StateFunc func(from, to State)

type Options struct {
	QueueSize      int
	DropOffline    bool
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
	CommandTopic   string
	CommandQoS     byte
	// Online is published after every successful (re)connect.
	Online encoder.Message
}

type Connection struct {
	client mqttClient
	opts   Options
	log    logger.Logger

	onCommand     CommandFunc
	onStateChange StateFunc

	mu         sync.Mutex
	cond       *sync.Cond
	state      State
	queue      []encoder.Message
	inflight   int
	idle       chan struct{}
	idleClosed bool
	closed     bool
	writerDone chan struct{}
}

// New builds a paho client from cfg. The will and online messages come
// from enc; onCommand receives every payload on the command topic.
func New(cfg *config.Config, clientID string, enc *encoder.Encoder, log logger.Logger, onCommand CommandFunc) *Connection {
	m := cfg.MQTT
	topics := enc.Topics()
	will := enc.Will()

	c := newConnection(nil, Options{
		QueueSize:      m.QueueSize,
		DropOffline:    m.OfflinePolicy == config.OfflineDrop,
		ConnectTimeout: m.ConnectTimeout,
		PublishTimeout: m.PublishTimeout,
		CommandTopic:   topics.Command(),
		CommandQoS:     m.QoS,
		Online:         enc.StatusMessage(),
	}, log, onCommand)

	opts := mqtt.NewClientOptions().
		AddBroker("tcp://" + m.Host + ":" + strconv.Itoa(m.Port)).
		SetClientID(clientID).
		SetUsername(m.User).
		SetPassword(m.Password).
		SetCleanSession(false).
		SetKeepAlive(m.KeepAlive).
		SetConnectTimeout(m.ConnectTimeout).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(m.MaxReconnectInterval).
		SetConnectRetry(false).
		SetResumeSubs(true).
		SetOrderMatters(false).
		SetBinaryWill(will.Topic, will.Payload, will.QoS, will.Retain).
		SetOnConnectHandler(func(mqtt.Client) { c.onConnected() }).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) { c.onConnectionLost(err) }).
		SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) { c.onReconnecting() })

	c.client = mqtt.NewClient(opts)
	return c
}

func newConnection(client mqttClient, opts Options, log logger.Logger, onCommand CommandFunc) *Connection {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1000
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 10 * time.Second
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}

	idle := make(chan struct{})
	close(idle)

	c := &Connection{
		client:     client,
		opts:       opts,
		log:        log.With("component", "broker"),
		onCommand:  onCommand,
		state:      Disconnected,
		idle:       idle,
		idleClosed: true,
		writerDone: make(chan struct{}),
	}
	c.cond = sync.NewCond(&c.mu)

	go c.writer()
	return c
}

// OnStateChange registers a hook called after every state transition.
// It must be set before Connect.
func (c *Connection) OnStateChange(fn StateFunc) {
	c.mu.Lock()
	c.onStateChange = fn
	c.mu.Unlock()
}

func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect performs the initial connection. A failure is returned to the
// caller and leaves the connection Disconnected; once connected, paho
// reconnects on its own.
func (c *Connection) Connect(ctx context.Context) error {
	if !c.transition(Connecting) {
		return fmt.Errorf("connect from state %s", c.State())
	}

	tok := c.client.Connect()

	select {
	case <-tok.Done():
	case <-time.After(c.opts.ConnectTimeout):
		c.transition(Disconnected)
		return fmt.Errorf("connect: timed out after %s", c.opts.ConnectTimeout)
	case <-ctx.Done():
		c.transition(Disconnected)
		return fmt.Errorf("connect: %w", ctx.Err())
	}

	if err := tok.Error(); err != nil {
		c.transition(Disconnected)
		return fmt.Errorf("connect: %w", err)
	}

	c.onConnected()
	return nil
}

// transition moves to the target state, stepping through intermediate
// states when needed. It reports whether the state changed.
func (c *Connection) transition(to State) bool {
	return c.transitionWith(to, nil)
}

// transitionWith is transition with locked run under mu together with the
// state change.
func (c *Connection) transitionWith(to State, locked func()) bool {
	c.mu.Lock()
	from := c.state
	steps := path(from, to)
	if len(steps) == 0 {
		c.mu.Unlock()
		if from != to {
			c.log.Warn("invalid state transition", "from", from.String(), "to", to.String())
		}
		return false
	}

	c.state = to
	if locked != nil {
		locked()
	}
	hook := c.onStateChange
	c.cond.Broadcast()
	c.mu.Unlock()

	prev := from
	for _, s := range steps {
		c.log.Debug("state changed", "from", prev.String(), "to", s.String())
		if hook != nil {
			hook(prev, s)
		}
		prev = s
	}

	return true
}

func (c *Connection) onConnected() {
	changed := c.transitionWith(Connected, func() {
		c.queue = append([]encoder.Message{c.opts.Online}, c.queue...)
		c.markBusy()
	})
	if !changed {
		return
	}

	c.log.Info("connected")

	if c.opts.CommandTopic == "" || c.onCommand == nil {
		return
	}

	tok := c.client.Subscribe(c.opts.CommandTopic, c.opts.CommandQoS, func(_ mqtt.Client, m mqtt.Message) {
		c.onCommand(m.Payload())
	})
	go func() {
		if !tok.WaitTimeout(c.opts.PublishTimeout) {
			c.log.Warn("subscribe timed out", "topic", c.opts.CommandTopic)
			return
		}
		if err := tok.Error(); err != nil {
			c.log.Error("subscribe failed", "topic", c.opts.CommandTopic, "error", err)
			return
		}
		c.log.Debug("subscribed", "topic", c.opts.CommandTopic)
	}()
}

func (c *Connection) onConnectionLost(err error) {
	c.log.Warn("connection lost", "error", err)
	c.transition(Disconnected)
}

func (c *Connection) onReconnecting() {
	c.log.Info("reconnecting")
	c.transition(Connecting)
}

// Publish queues msg for the writer. While not connected the message is
// queued, or rejected with ErrNotConnected under the drop policy.
func (c *Connection) Publish(msg encoder.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.state != Connected && c.opts.DropOffline {
		return ErrNotConnected
	}
	if len(c.queue) >= c.opts.QueueSize {
		return ErrQueueFull
	}

	c.queue = append(c.queue, msg)
	c.markBusy()
	c.cond.Broadcast()
	return nil
}

// PublishAll queues msgs in order and returns how many were accepted
// along with the errors of the rejected ones.
func (c *Connection) PublishAll(msgs []encoder.Message) (int, error) {
	var errs []error
	accepted := 0

	for _, m := range msgs {
		if err := c.Publish(m); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", m.Topic, err))
			continue
		}
		accepted++
	}

	return accepted, errors.Join(errs...)
}

// Pending returns the number of queued and in-flight messages.
func (c *Connection) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue) + c.inflight
}

// Drain blocks until nothing is queued or in flight.
func (c *Connection) Drain(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain: %w (%d pending)", ctx.Err(), c.Pending())
	}
}

// Disconnect drains the queue within ctx, stops the writer and closes the
// network connection. Messages still queued afterwards are dropped.
func (c *Connection) Disconnect(ctx context.Context) error {
	drainErr := c.Drain(ctx)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.closed = true
	dropped := len(c.queue)
	c.cond.Broadcast()
	c.mu.Unlock()

	<-c.writerDone

	if dropped > 0 {
		c.log.Warn("dropping unsent messages", "count", dropped)
	}

	if c.State() != Disconnected {
		c.client.Disconnect(disconnectQuiesce)
		c.transition(Disconnected)
	}

	c.log.Info("disconnected")
	return drainErr
}

// markBusy must be called with mu held after adding work.
func (c *Connection) markBusy() {
	if c.idleClosed {
		c.idle = make(chan struct{})
		c.idleClosed = false
	}
}

// markIdleIfDone must be called with mu held.
func (c *Connection) markIdleIfDone() {
	if !c.idleClosed && len(c.queue) == 0 && c.inflight == 0 {
		close(c.idle)
		c.idleClosed = true
	}
}

func (c *Connection) writer() {
	defer close(c.writerDone)

	for {
		c.mu.Lock()
		for !c.closed && (len(c.queue) == 0 || c.state != Connected) {
			c.cond.Wait()
		}
		if c.closed {
			c.mu.Unlock()
			return
		}

		msg := c.queue[0]
		c.queue = c.queue[1:]
		c.inflight++
		c.mu.Unlock()

		c.send(msg)

		c.mu.Lock()
		c.inflight--
		c.markIdleIfDone()
		c.mu.Unlock()
	}
}

func (c *Connection) send(msg encoder.Message) {
	tok := c.client.Publish(msg.Topic, msg.QoS, msg.Retain, msg.Payload)

	if !tok.WaitTimeout(c.opts.PublishTimeout) {
		c.log.Warn("publish timed out", "topic", msg.Topic)
		return
	}
	if err := tok.Error(); err != nil {
		c.log.Error("publish failed", "topic", msg.Topic, "error", err)
	}
}
