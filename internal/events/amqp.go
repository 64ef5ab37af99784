package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/quickdesk/quickdesk/internal/config"
)

// AMQPDispatcher publishes events to a RabbitMQ queue and feeds consumed
// messages back into subscribed handlers. It decouples notification
// delivery latency from the request path and allows redelivery after a
// crash, unlike the in-memory dispatcher.
type AMQPDispatcher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  *zap.Logger

	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
}

// NewAMQPDispatcher connects to RabbitMQ and declares the notification queue.
func NewAMQPDispatcher(cfg config.QueueConfig, logger *zap.Logger) (*AMQPDispatcher, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}
	if strings.TrimSpace(cfg.Queue) == "" {
		return nil, errors.New("rabbitmq queue is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, err
		}
	}

	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &AMQPDispatcher{
		conn:      conn,
		channel:   ch,
		queue:     cfg.Queue,
		logger:    logger,
		listeners: make(map[EventType][]EventHandler),
	}, nil
}

// Publish sends the event to the queue as JSON.
func (d *AMQPDispatcher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return d.channel.PublishWithContext(ctx, "", d.queue, false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   event.ID,
		Body:        body,
	})
}

// Subscribe registers a handler for the given event type.
func (d *AMQPDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// Run consumes the queue until the context is cancelled, dispatching each
// message to subscribed handlers. Messages are acked regardless of handler
// outcome: notification failures are logged by the handlers and never
// retried against a poisoned message forever.
func (d *AMQPDispatcher) Run(ctx context.Context) error {
	deliveries, err := d.channel.Consume(d.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("amqp delivery channel closed")
			}
			var event Event
			if err := json.Unmarshal(delivery.Body, &event); err != nil {
				d.logger.Warn("discarding malformed event", zap.Error(err))
				_ = delivery.Ack(false)
				continue
			}

			d.mu.RLock()
			handlers := append([]EventHandler{}, d.listeners[event.Type]...)
			d.mu.RUnlock()

			for _, handler := range handlers {
				_ = handler(ctx, event)
			}
			_ = delivery.Ack(false)
		}
	}
}

// Close releases the channel and connection.
func (d *AMQPDispatcher) Close() {
	if d == nil {
		return
	}
	if d.channel != nil {
		_ = d.channel.Close()
	}
	if d.conn != nil {
		_ = d.conn.Close()
	}
}
