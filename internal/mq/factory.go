package mq

import (
	"context"
	"fmt"

	"github.com/agegate/webapp/config"
)

// NewBroker constructs the broker named by the mail backend config.
func NewBroker(ctx context.Context, cfg config.MailConfig) (Broker, error) {
	switch cfg.Backend {
	case "rabbitmq":
		return NewRabbitBroker(cfg.RabbitMQ)
	case "pubsub":
		return NewPubSubBroker(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("mail backend %q does not use a broker", cfg.Backend)
	}
}
