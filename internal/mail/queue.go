package mail

import (
	"context"
	"encoding/json"

	"github.com/agegate/webapp/internal/mq"
)

// QueueNotifier publishes rendered messages to a broker channel instead of
// delivering them itself. An external mailer process consumes the channel, so
// the request path never blocks on SMTP.
type QueueNotifier struct {
	broker  mq.Broker
	channel string
}

// NewQueueNotifier constructs a queue-backed notifier.
func NewQueueNotifier(broker mq.Broker, channel string) *QueueNotifier {
	return &QueueNotifier{broker: broker, channel: channel}
}

// Send publishes the message for asynchronous delivery.
func (q *QueueNotifier) Send(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = q.broker.Publish(ctx, q.channel, data, map[string]string{"to": msg.To})
	return err
}
