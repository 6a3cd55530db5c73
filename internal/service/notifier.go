package service

import (
	"context"
	"time"

	"github.com/gilson954/sistema-rifa-sub001/internal/entity"
	"github.com/gilson954/sistema-rifa-sub001/pkg/retry"

	"github.com/sirupsen/logrus"
)

// Publisher is the part of the message queue the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, message interface{}) error
}

type queueNotifier struct {
	queue   Publisher
	backoff *retry.Backoff
	timeout time.Duration
}

// NewQueueNotifier publishes settlement notifications in the background with retries.
func NewQueueNotifier(queue Publisher, retryCount int, retryDelay time.Duration) Notifier {
	return &queueNotifier{
		queue:   queue,
		backoff: retry.NewBackoff(retryCount, retryDelay),
		timeout: 30 * time.Second,
	}
}

func (n *queueNotifier) Notify(ctx context.Context, msg *entity.SettlementNotification) {
	if n.queue == nil {
		return
	}

	// detach from the request so the publish survives the response
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	go func() {
		defer cancel()
		if err := n.publish(ctx, msg); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"campaign_id": msg.CampaignID,
				"order_id":    msg.OrderID,
			}).Error("Failed to publish settlement notification")
		}
	}()
}

func (n *queueNotifier) publish(ctx context.Context, msg *entity.SettlementNotification) error {
	return n.backoff.Do(ctx, func(ctx context.Context) error {
		return n.queue.Publish(ctx, msg)
	})
}

// NopNotifier drops notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, *entity.SettlementNotification) {}
