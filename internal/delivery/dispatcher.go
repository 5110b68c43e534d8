package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/preston-bernstein/footy-live-service/internal/metrics"
)

// Transport sends an update to one subscriber.
type Transport interface {
	Send(ctx context.Context, c Client, u Update) error
}

// ConnectionSender pushes to live connections.
type ConnectionSender interface {
	Send(clientID string, u Update) error
}

// WebhookPoster pushes to webhook URLs.
type WebhookPoster interface {
	Send(ctx context.Context, url string, u Update) error
}

// Dispatcher routes each update by the client's kind.
type Dispatcher struct {
	connections ConnectionSender
	webhooks    WebhookPoster
	metrics     *metrics.Recorder
	now         func() time.Time
}

// NewDispatcher wires both transports.
func NewDispatcher(connections ConnectionSender, webhooks WebhookPoster, recorder *metrics.Recorder) *Dispatcher {
	return &Dispatcher{
		connections: connections,
		webhooks:    webhooks,
		metrics:     recorder,
		now:         time.Now,
	}
}

// Send delivers u to c, stamping the group and send time.
func (d *Dispatcher) Send(ctx context.Context, c Client, u Update) error {
	start := d.now()
	u = u.For(c)
	u.SentAt = start.UTC()

	var err error
	switch c.Kind {
	case KindConnection:
		if d.connections == nil {
			err = ErrUnknownClient
			break
		}
		err = d.connections.Send(c.ID, u)
	case KindWebhook:
		if d.webhooks == nil {
			err = fmt.Errorf("%w: webhook delivery disabled", ErrInvalidClient)
			break
		}
		err = d.webhooks.Send(ctx, c.ID, u)
	default:
		err = fmt.Errorf("%w: unknown kind %q", ErrInvalidClient, c.Kind)
	}

	d.metrics.RecordDelivery(string(c.Kind), time.Since(start), err)
	return err
}
