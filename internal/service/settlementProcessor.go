package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/gilson954/sistema-rifa-sub001/internal/database"
	"github.com/gilson954/sistema-rifa-sub001/internal/entity"
	"github.com/gilson954/sistema-rifa-sub001/internal/metrics"
	"github.com/gilson954/sistema-rifa-sub001/pkg/clock"

	"github.com/sirupsen/logrus"
)

type settlementProcessor struct {
	tickets  database.TicketRepository
	notifier Notifier
	clock    clock.Clock
}

func NewSettlementProcessor(tickets database.TicketRepository, notifier Notifier, clk clock.Clock) SettlementProcessor {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &settlementProcessor{
		tickets:  tickets,
		notifier: notifier,
		clock:    clk,
	}
}

// Apply moves the order's reserved tickets according to the outcome:
//
//	reserved  + approved -> purchased
//	reserved  + rejected -> available
//	reserved  + pending  -> reserved
//	purchased + any      -> purchased
//	available + any      -> available
//
// Tickets that are no longer reserved by the order are skipped, never an error.
func (p *settlementProcessor) Apply(ctx context.Context, event *entity.SettlementEvent) (*entity.SettlementResult, error) {
	if event.CampaignID == "" || event.OrderID == "" {
		return nil, fmt.Errorf("%w: campaign and order are required", entity.ErrValidation)
	}
	numbers := uniqueSorted(event.TicketNumbers)
	if len(numbers) == 0 {
		return nil, fmt.Errorf("%w: no tickets in event", entity.ErrInvalidTicketNumbers)
	}

	result := &entity.SettlementResult{
		CampaignID: event.CampaignID,
		OrderID:    event.OrderID,
		Outcome:    event.Outcome,
		Applied:    []int{},
		Skipped:    []int{},
	}

	var to entity.TicketStatus
	switch event.Outcome {
	case entity.OutcomeApproved:
		to = entity.TicketStatusPurchased
	case entity.OutcomeRejected:
		to = entity.TicketStatusAvailable
	case entity.OutcomePending:
		result.Status = entity.SettlementNoop
		metrics.Settlements.WithLabelValues(event.Provider, string(event.Outcome), string(result.Status)).Inc()
		return result, nil
	default:
		return nil, fmt.Errorf("%w: unknown outcome %q", entity.ErrValidation, event.Outcome)
	}

	now := p.clock.Now()
	applied, err := p.tickets.Transition(ctx, &entity.TicketTransition{
		CampaignID:       event.CampaignID,
		OrderID:          event.OrderID,
		Numbers:          numbers,
		From:             entity.TicketStatusReserved,
		To:               to,
		At:               now,
		RequireUnexpired: event.RequireUnexpired && event.Outcome == entity.OutcomeApproved,
	})
	if err != nil {
		metrics.Settlements.WithLabelValues(event.Provider, string(event.Outcome), "error").Inc()
		return nil, err
	}

	result.Applied = append(result.Applied, applied...)
	result.Skipped = append(result.Skipped, difference(numbers, applied)...)

	switch {
	case len(result.Applied) == 0:
		result.Status = entity.SettlementNoop
	case len(result.Skipped) > 0:
		result.Status = entity.SettlementPartial
	default:
		result.Status = entity.SettlementApplied
	}
	metrics.Settlements.WithLabelValues(event.Provider, string(event.Outcome), string(result.Status)).Inc()

	fields := logrus.Fields{
		"campaign_id": event.CampaignID,
		"order_id":    event.OrderID,
		"provider":    event.Provider,
		"outcome":     event.Outcome,
		"applied":     result.Applied,
	}
	if len(result.Skipped) > 0 {
		logrus.WithFields(fields).WithField("skipped", result.Skipped).Warn("Settlement skipped tickets not reserved by the order")
	}

	if len(result.Applied) > 0 {
		logrus.WithFields(fields).Info("Settlement applied")
		p.notifier.Notify(ctx, &entity.SettlementNotification{
			CampaignID:    event.CampaignID,
			OrderID:       event.OrderID,
			Outcome:       event.Outcome,
			Provider:      event.Provider,
			TicketNumbers: result.Applied,
			OccurredAt:    now,
		})
	}

	return result, nil
}

func uniqueSorted(numbers []int) []int {
	seen := make(map[int]struct{}, len(numbers))
	out := make([]int, 0, len(numbers))
	for _, n := range numbers {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// difference returns the numbers of all that are not in some.
func difference(all, some []int) []int {
	in := make(map[int]struct{}, len(some))
	for _, n := range some {
		in[n] = struct{}{}
	}
	out := []int{}
	for _, n := range all {
		if _, ok := in[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}
