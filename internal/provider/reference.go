package provider

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gilson954/sistema-rifa-sub001/internal/database"
	"github.com/gilson954/sistema-rifa-sub001/internal/entity"
)

var referencePattern = regexp.MustCompile(`^campaign_([^_]+)_tickets_(\d+(?:,\d+)*)$`)

// Reference is a decoded legacy payment reference.
type Reference struct {
	CampaignID    string
	TicketNumbers []int
}

// ParseReference decodes campaign_{id}_tickets_{n1,n2,...}.
func ParseReference(ref string) (*Reference, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, entity.ErrMissingReference
	}

	m := referencePattern.FindStringSubmatch(ref)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", entity.ErrMalformedReference, ref)
	}

	parts := strings.Split(m[2], ",")
	numbers := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", entity.ErrMalformedReference, ref)
		}
		numbers = append(numbers, n)
	}

	return &Reference{CampaignID: m[1], TicketNumbers: numbers}, nil
}

// Resolver finds the order a notification refers to.
type Resolver struct {
	orders database.OrderRepository
}

func NewResolver(orders database.OrderRepository) *Resolver {
	return &Resolver{orders: orders}
}

// Resolve prefers the structured order id and falls back to the legacy reference.
// The ledger is authoritative for campaign and ticket numbers.
func (r *Resolver) Resolve(ctx context.Context, orderID, reference string) (*entity.Order, error) {
	if orderID != "" {
		order, err := r.orders.FindByID(ctx, orderID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, entity.ErrNotFound) {
			return nil, err
		}
		if reference == "" {
			return nil, fmt.Errorf("%w: order %s", entity.ErrUnknownReference, orderID)
		}
	}

	ref, err := ParseReference(reference)
	if err != nil {
		return nil, err
	}

	orders, err := r.orders.FindByReference(ctx, entity.FormatReference(ref.CampaignID, ref.TicketNumbers))
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnknownReference, reference)
	}

	// oldest first; the processor ignores the event if that order no longer holds the tickets
	return orders[0], nil
}

func eventFromOrder(order *entity.Order, outcome entity.Outcome) *entity.SettlementEvent {
	return &entity.SettlementEvent{
		CampaignID:    order.CampaignID,
		OrderID:       order.ID,
		TicketNumbers: append([]int(nil), order.TicketNumbers...),
		Outcome:       outcome,
	}
}
