package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"medrecapi/internal/config"
)

// amqpPublisher publishes audit events to a fanout exchange on RabbitMQ.
type amqpPublisher struct {
	conn     *amqp091.Connection
	ch       *amqp091.Channel
	exchange string
	logger   *zap.Logger
}

// NewAMQP connects to RabbitMQ, declares the audit exchange and returns a
// Publisher. Close must be called on shutdown.
func NewAMQP(cfg config.RabbitMQConfig, logger *zap.Logger) (*amqpPublisher, error) {
	conn, err := amqp091.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "fanout", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}
	return &amqpPublisher{conn: conn, ch: ch, exchange: cfg.Exchange, logger: logger}, nil
}

// Publish sends one event. Failures are logged and returned; callers treat
// them as non-fatal.
func (p *amqpPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, ev.Action, false, false, amqp091.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		p.logger.Error("audit publish failed",
			zap.String("action", ev.Action),
			zap.Error(err),
		)
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}

func (p *amqpPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
