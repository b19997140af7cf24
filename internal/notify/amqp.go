package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPSender publishes events as JSON on a topic exchange, routed by kind
// (e.g. "ride.completed"). The connection is opened lazily on first send and
// re-opened after the broker drops it.
type AMQPSender struct {
	url      string
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPSender(url, exchange string) *AMQPSender {
	return &AMQPSender{url: url, exchange: exchange}
}

func (s *AMQPSender) Name() string { return "amqp" }

type envelope struct {
	Kind    string    `json:"kind"`
	Subject string    `json:"subject"`
	SentAt  time.Time `json:"sent_at"`
	Payload any       `json:"payload"`
}

func (s *AMQPSender) Send(ctx context.Context, event Event) error {
	body, err := json.Marshal(envelope{
		Kind:    event.Kind(),
		Subject: event.Subject(),
		SentAt:  time.Now().UTC(),
		Payload: event,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureChannel(); err != nil {
		return err
	}
	return s.ch.PublishWithContext(ctx, s.exchange, event.Kind(), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

// ensureChannel dials and declares the exchange when there is no live
// channel. Callers hold s.mu.
func (s *AMQPSender) ensureChannel() error {
	if s.conn != nil && !s.conn.IsClosed() && s.ch != nil && !s.ch.IsClosed() {
		return nil
	}
	s.closeLocked()

	conn, err := amqp.Dial(s.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(s.exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("declare exchange %s: %w", s.exchange, err)
	}

	s.conn = conn
	s.ch = ch
	return nil
}

func (s *AMQPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *AMQPSender) closeLocked() error {
	var errs []error
	if s.ch != nil && !s.ch.IsClosed() {
		errs = append(errs, s.ch.Close())
	}
	if s.conn != nil && !s.conn.IsClosed() {
		errs = append(errs, s.conn.Close())
	}
	s.ch, s.conn = nil, nil
	return errors.Join(errs...)
}
