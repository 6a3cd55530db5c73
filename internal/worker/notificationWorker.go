package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gilson954/sistema-rifa-sub001/internal/entity"

	"github.com/sirupsen/logrus"
)

type Consumer interface {
	Consume(ctx context.Context, handler func(message []byte) error) error
}

type Sender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// NotificationWorker forwards settlement notifications from the queue to telegram.
type NotificationWorker struct {
	consumer Consumer
	sender   Sender
	chatID   string
}

func NewNotificationWorker(consumer Consumer, sender Sender, chatID string) *NotificationWorker {
	return &NotificationWorker{
		consumer: consumer,
		sender:   sender,
		chatID:   chatID,
	}
}

func (w *NotificationWorker) Start(ctx context.Context) error {
	logrus.Info("Notification worker started")
	return w.consumer.Consume(ctx, func(message []byte) error {
		return w.handle(ctx, message)
	})
}

func (w *NotificationWorker) handle(ctx context.Context, message []byte) error {
	var n entity.SettlementNotification
	if err := json.Unmarshal(message, &n); err != nil {
		// broken payloads are dropped, a redelivery will not fix them
		logrus.WithError(err).Error("Failed to decode settlement notification")
		return nil
	}

	if err := w.sender.SendMessage(ctx, w.chatID, formatNotification(&n)); err != nil {
		return fmt.Errorf("failed to send notification for order %s: %w", n.OrderID, err)
	}

	logrus.WithFields(logrus.Fields{
		"campaign_id": n.CampaignID,
		"order_id":    n.OrderID,
		"outcome":     n.Outcome,
	}).Debug("Settlement notification sent")
	return nil
}

func formatNotification(n *entity.SettlementNotification) string {
	numbers := make([]string, 0, len(n.TicketNumbers))
	for _, num := range n.TicketNumbers {
		numbers = append(numbers, fmt.Sprintf("%d", num))
	}

	var action string
	switch n.Outcome {
	case entity.OutcomeApproved:
		action = "purchased"
	case entity.OutcomeRejected:
		action = "released"
	default:
		action = string(n.Outcome)
	}

	return fmt.Sprintf("Campaign %s: tickets %s %s (order %s, via %s)",
		n.CampaignID, strings.Join(numbers, ", "), action, n.OrderID, n.Provider)
}
