package worker

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/service/notification"
	"github.com/mediconnect/mediconnect-api/pkg/logger"
	"github.com/mediconnect/mediconnect-api/pkg/messaging"
)

// topicChannels maps broker topics to delivery channels.
var topicChannels = map[string]string{
	model.TopicEmailNotifications: model.ChannelEmail,
	model.TopicInAppNotifications: model.ChannelInApp,
}

// Dispatcher consumes notification topics and hands each message to
// the notification service for delivery.
type Dispatcher struct {
	broker        messaging.Broker
	notifications *notification.Service
	logger        *logger.Logger
}

func NewDispatcher(broker messaging.Broker, notifications *notification.Service,
	logger *logger.Logger) *Dispatcher {
	return &Dispatcher{
		broker:        broker,
		notifications: notifications,
		logger:        logger,
	}
}

// Run subscribes to every notification topic and blocks until the
// context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for topic, channel := range topicChannels {
		msgs, err := d.broker.Subscribe(ctx, topic)
		if err != nil {
			return err
		}

		wg.Add(1)
		go func(topic, channel string, msgs <-chan []byte) {
			defer wg.Done()
			d.consume(ctx, topic, channel, msgs)
		}(topic, channel, msgs)
	}

	d.logger.Info("notification dispatcher started")
	wg.Wait()
	return nil
}

func (d *Dispatcher) consume(ctx context.Context, topic, channel string, msgs <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-msgs:
			if !ok {
				return
			}
			var payload model.NotificationPayload
			if err := json.Unmarshal(raw, &payload); err != nil {
				d.logger.Error(err, "dropping malformed notification", "topic", topic)
				continue
			}
			if err := d.notifications.Deliver(ctx, channel, payload); err != nil {
				d.logger.Error(err, "notification delivery failed",
					"topic", topic, "user_id", payload.UserID.String())
			}
		}
	}
}
