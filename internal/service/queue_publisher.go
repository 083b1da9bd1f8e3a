package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	q "github.com/iliyamo/theatre-ticketing/internal/queue"
)

// AMQPNotifier publishes TicketRegisteredEvent messages to the durable
// "ticket.registered" queue.  The connection is opened on first use and
// reopened after a failure.  Messages are marked as persistent.
type AMQPNotifier struct {
	url string
	log logrus.FieldLogger

	mu    sync.Mutex // guards conn and ch
	pubMu sync.Mutex // serializes publishes on ch
	conn  *amqp.Connection
	ch    *amqp.Channel
}

const defaultDialTimeout = 10 * time.Second

// NewAMQPNotifier returns a notifier for the broker at url.  No
// connection is made until the first Publish.
func NewAMQPNotifier(url string, log logrus.FieldLogger) *AMQPNotifier {
	return &AMQPNotifier{url: url, log: log}
}

// Publish sends ev.  Any error is logged and returned so the caller can
// choose to ignore it.  Connection setup and the publish itself are both
// bounded by ctx.
func (n *AMQPNotifier) Publish(ctx context.Context, ev q.TicketRegisteredEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	ch, err := n.channel(ctx)
	if err != nil {
		n.log.WithError(err).Warn("rabbitmq: connect failed")
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         q.TicketRegisteredQueue,
		Body:         body,
	}
	n.pubMu.Lock()
	err = ch.PublishWithContext(ctx,
		"",                      // default exchange
		q.TicketRegisteredQueue, // routing key = queue name
		false,                   // mandatory
		false,                   // immediate
		pub,
	)
	n.pubMu.Unlock()
	if err != nil {
		n.drop(ch)
		n.log.WithError(err).Warn("rabbitmq: publish failed")
		return err
	}
	return nil
}

// channel returns an open channel with the queue declared, dialing if
// needed.  n.mu is not held while dialing, so a dead broker costs each
// caller at most its own deadline.
func (n *AMQPNotifier) channel(ctx context.Context) (*amqp.Channel, error) {
	n.mu.Lock()
	if n.ch != nil && !n.ch.IsClosed() {
		ch := n.ch
		n.mu.Unlock()
		return ch, nil
	}
	n.mu.Unlock()

	conn, ch, err := n.open(ctx)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ch != nil && !n.ch.IsClosed() {
		// another publisher connected first
		_ = ch.Close()
		_ = conn.Close()
		return n.ch, nil
	}
	n.reset()
	n.conn, n.ch = conn, ch
	return ch, nil
}

func (n *AMQPNotifier) open(ctx context.Context) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.DialConfig(n.url, amqp.Config{Dial: contextDialer(ctx)})
	if err != nil {
		return nil, nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("channel open: %w", err)
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(q.TicketRegisteredQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("queue declare: %w", err)
	}
	return conn, ch, nil
}

// contextDialer connects under ctx and carries its deadline over to the
// AMQP handshake.  The library clears the deadline once the connection is
// open.
func contextDialer(ctx context.Context) func(network, addr string) (net.Conn, error) {
	return func(network, addr string) (net.Conn, error) {
		var d net.Dialer
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		deadline, ok := ctx.Deadline()
		if !ok {
			deadline = time.Now().Add(defaultDialTimeout)
		}
		if err := conn.SetDeadline(deadline); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return conn, nil
	}
}

// drop discards ch if it is still the current channel.
func (n *AMQPNotifier) drop(ch *amqp.Channel) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ch == ch {
		n.reset()
	}
}

func (n *AMQPNotifier) reset() {
	if n.ch != nil {
		_ = n.ch.Close()
		n.ch = nil
	}
	if n.conn != nil {
		_ = n.conn.Close()
		n.conn = nil
	}
}

// Close releases the broker connection.
func (n *AMQPNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn == nil {
		return nil
	}
	err := n.conn.Close()
	n.conn, n.ch = nil, nil
	if errors.Is(err, amqp.ErrClosed) {
		return nil
	}
	return err
}
