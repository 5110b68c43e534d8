package goals

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// DefaultExchange receives detected goals.
const DefaultExchange = "footy.goals"

// Publisher broadcasts detected goals to external clip resolvers.
type Publisher interface {
	Publish(ctx context.Context, goal GoalQuery) error
}

type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes goals to a topic exchange with routing key goal.<event_id>.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
}

// DialAMQP connects to url and declares exchange as a durable topic exchange.
func DialAMQP(url, exchange string) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.DialConfig(url, amqp.Config{Heartbeat: 60 * time.Second, Locale: "en_US"})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open AMQP channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

// RoutingKey is the topic a goal is published under.
func RoutingKey(goal GoalQuery) string {
	return "goal." + goal.EventID
}

// Publish sends goal as a persistent JSON message.
func (p *AMQPPublisher) Publish(ctx context.Context, goal GoalQuery) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(goal)
	if err != nil {
		return fmt.Errorf("encoding goal %s: %w", goal.ID, err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    goal.ID,
		Timestamp:    goal.DetectedAt,
		Body:         body,
	}
	if err := p.channel.Publish(p.exchange, RoutingKey(goal), false, false, msg); err != nil {
		return fmt.Errorf("publishing goal %s: %w", goal.ID, err)
	}
	return nil
}

// Close shuts the channel and connection.
func (p *AMQPPublisher) Close() error {
	var firstErr error
	if p.channel != nil {
		firstErr = p.channel.Close()
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
