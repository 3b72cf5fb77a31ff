package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/cinelog/internal/logging"
	"github.com/iliyamo/cinelog/internal/metrics"
	"github.com/iliyamo/cinelog/internal/queue"
)

const (
	publishTimeout = 2 * time.Second
	redialBackoff  = 5 * time.Second
)

var errBrokerUnavailable = errors.New("activity broker unavailable")

// AMQPPublisher publishes activity events to a durable RabbitMQ queue.  The
// connection is dialed by one background goroutine at a time; publishers
// wait for it no longer than their context allows and a failed dial is not
// retried before redialBackoff has passed.  Messages are marked as
// persistent.
type AMQPPublisher struct {
	url     string
	queue   string
	timeout time.Duration
	backoff time.Duration

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	dialing  chan struct{}
	dialErr  error
	nextDial time.Time
	closed   bool
}

// NewAMQPPublisher returns a publisher for queue on the broker at url.
func NewAMQPPublisher(url, queue string) *AMQPPublisher {
	return &AMQPPublisher{url: url, queue: queue, timeout: publishTimeout, backoff: redialBackoff}
}

// Publish sends ev to the queue (default exchange, routing key = queue name).
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.ActivityEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	})
	if err != nil {
		p.mu.Lock()
		if p.ch == ch {
			p.reset()
		}
		p.mu.Unlock()
	}
	return err
}

// channel returns an open channel.  When none is open it starts a dial
// unless one is already running or the last one failed recently, then
// waits for the dial or ctx, whichever ends first.
func (p *AMQPPublisher) channel(ctx context.Context) (*amqp.Channel, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errBrokerUnavailable
	}
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		ch := p.ch
		p.mu.Unlock()
		return ch, nil
	}
	if p.dialing == nil {
		if time.Now().Before(p.nextDial) {
			err := p.dialErr
			p.mu.Unlock()
			return nil, fmt.Errorf("%w: %v", errBrokerUnavailable, err)
		}
		p.reset()
		p.dialing = make(chan struct{})
		go p.dial(p.dialing)
	}
	done := p.dialing
	p.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", errBrokerUnavailable, ctx.Err())
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return nil, fmt.Errorf("%w: %v", errBrokerUnavailable, p.dialErr)
	}
	return p.ch, nil
}

// dial opens a connection and channel and declares the queue.  The TCP
// connect and the AMQP handshake are both bounded by p.timeout.
func (p *AMQPPublisher) dial(done chan struct{}) {
	conn, ch, err := openChannel(p.url, p.queue, p.timeout)

	p.mu.Lock()
	if err == nil && p.closed {
		_ = ch.Close()
		_ = conn.Close()
		conn, ch, err = nil, nil, errBrokerUnavailable
	}
	p.conn, p.ch, p.dialErr = conn, ch, err
	if err != nil {
		p.nextDial = time.Now().Add(p.backoff)
		logging.Warn().Err(err).Dur("retry_in", p.backoff).Msg("activity broker dial failed")
	}
	p.dialing = nil
	p.mu.Unlock()
	close(done)
}

func openChannel(url, queueName string, timeout time.Duration) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(timeout)})
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}

// reset drops the current connection.  Callers hold p.mu.
func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

// Close releases the broker connection.  A dial still in flight is closed
// when it completes.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.reset()
	return nil
}

// NopPublisher drops every event.  It is used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.ActivityEvent) error { return nil }

// emit publishes ev best effort: failures are logged and counted, never
// returned to the caller.
func emit(ctx context.Context, p EventPublisher, ev queue.ActivityEvent) {
	if p == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := p.Publish(ctx, ev); err != nil {
		metrics.EventsPublished.WithLabelValues(ev.Type, "failed").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("event", ev.Type).Msg("publish activity event failed")
		return
	}
	if _, nop := p.(NopPublisher); !nop {
		metrics.EventsPublished.WithLabelValues(ev.Type, "published").Inc()
	}
}
