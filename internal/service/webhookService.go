package service

import (
	"context"
	"fmt"

	redisRepo "github.com/gilson954/sistema-rifa-sub001/internal/database/redis"
	"github.com/gilson954/sistema-rifa-sub001/internal/entity"
	"github.com/gilson954/sistema-rifa-sub001/internal/metrics"
	"github.com/gilson954/sistema-rifa-sub001/internal/provider"

	"github.com/sirupsen/logrus"
)

type webhookService struct {
	registry   *provider.Registry
	processor  SettlementProcessor
	deliveries redisRepo.DeliveryCache
	oplog      OperationLogger
}

func NewWebhookService(
	registry *provider.Registry,
	processor SettlementProcessor,
	deliveries redisRepo.DeliveryCache,
	oplog OperationLogger,
) WebhookService {
	if deliveries == nil {
		deliveries = redisRepo.NopDeliveryCache{}
	}
	return &webhookService{
		registry:   registry,
		processor:  processor,
		deliveries: deliveries,
		oplog:      oplog,
	}
}

// Handle parses and applies one notification. Replays are harmless: the delivery
// cache short-circuits known deliveries and the ticket writes are conditional.
func (s *webhookService) Handle(ctx context.Context, providerName string, n *provider.Notification) (*WebhookResult, error) {
	adapter, err := s.registry.Get(providerName)
	if err != nil {
		return nil, err
	}

	parsed, err := adapter.Parse(ctx, n)
	if err != nil {
		metrics.Settlements.WithLabelValues(adapter.Name(), "", "rejected").Inc()
		logrus.WithError(err).WithField("provider", adapter.Name()).Warn("Webhook rejected")
		return nil, err
	}

	result := &WebhookResult{Provider: adapter.Name()}
	if parsed.Ignored {
		metrics.Settlements.WithLabelValues(adapter.Name(), "", "ignored").Inc()
		logrus.WithFields(logrus.Fields{
			"provider": adapter.Name(),
			"reason":   parsed.Reason,
		}).Debug("Webhook ignored")
		result.Ignored = true
		result.Reason = parsed.Reason
		return result, nil
	}

	event := parsed.Event
	seen, err := s.deliveries.Seen(ctx, event)
	if err != nil {
		// the cache is an optimisation only
		logrus.WithError(err).Warn("Delivery cache lookup failed")
	}
	if seen {
		metrics.Settlements.WithLabelValues(event.Provider, string(event.Outcome), "duplicate").Inc()
		result.Duplicate = true
		result.Reason = "delivery already applied"
		return result, nil
	}

	settlement, err := s.processor.Apply(ctx, event)
	if err != nil {
		s.oplog.Log(ctx, &entity.OperationLog{
			Operation:  entity.OpWebhookSettlement,
			CampaignID: event.CampaignID,
			Status:     entity.OperationError,
			Message:    fmt.Sprintf("failed to apply %s notification: %v", event.Provider, err),
			Details:    eventDetails(event),
		})
		return nil, err
	}
	result.Result = settlement

	if err := s.deliveries.Remember(ctx, event); err != nil {
		logrus.WithError(err).Warn("Failed to remember webhook delivery")
	}

	if event.Outcome != entity.OutcomePending {
		details := eventDetails(event)
		details["applied"] = settlement.Applied
		details["skipped"] = settlement.Skipped
		details["result"] = settlement.Status
		s.oplog.Log(ctx, &entity.OperationLog{
			Operation:  entity.OpWebhookSettlement,
			CampaignID: event.CampaignID,
			Status:     operationStatus(settlement),
			Message:    fmt.Sprintf("%s notification %s for order %s", event.Provider, event.Outcome, event.OrderID),
			Details:    details,
		})
	}

	return result, nil
}

func eventDetails(event *entity.SettlementEvent) map[string]interface{} {
	details := map[string]interface{}{
		"order_id":       event.OrderID,
		"provider":       event.Provider,
		"outcome":        event.Outcome,
		"external_id":    event.ExternalID,
		"ticket_numbers": event.TicketNumbers,
	}
	if event.Amount != nil {
		details["amount"] = event.Amount.String()
	}
	return details
}

func operationStatus(result *entity.SettlementResult) entity.OperationStatus {
	if result.Status == entity.SettlementNoop {
		return entity.OperationSkipped
	}
	return entity.OperationSuccess
}
