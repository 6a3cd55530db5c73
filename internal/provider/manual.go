package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gilson954/sistema-rifa-sub001/internal/database"
	"github.com/gilson954/sistema-rifa-sub001/internal/entity"
)

type manualPayload struct {
	OrderID    string `json:"order_id"`
	CampaignID string `json:"campaign_id"`
	ProofID    string `json:"proof_id"`
	Decision   string `json:"decision"`
}

type manualAdapter struct {
	secret string
	orders database.OrderRepository
}

// NewManualAdapter handles organizer decisions posted by an external review tool.
func NewManualAdapter(secret string, orders database.OrderRepository) Adapter {
	return &manualAdapter{secret: secret, orders: orders}
}

func (a *manualAdapter) Name() string {
	return entity.ProviderManual
}

func (a *manualAdapter) Parse(ctx context.Context, n *Notification) (*Result, error) {
	if err := verifySignature(n, a.secret); err != nil {
		return nil, err
	}

	var p manualPayload
	if err := json.Unmarshal(n.Body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrMalformedPayload, err)
	}
	if p.OrderID == "" || p.CampaignID == "" {
		return nil, entity.ErrMissingReference
	}

	outcome := NormalizeOutcome(p.Decision)
	if outcome == entity.OutcomePending {
		return ignored(fmt.Sprintf("decision %q", p.Decision)), nil
	}

	order, err := a.orders.GetByID(ctx, p.CampaignID, p.OrderID)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, fmt.Errorf("%w: order %s", entity.ErrUnknownReference, p.OrderID)
	}
	if err != nil {
		return nil, err
	}

	return &Result{Event: Decide(order, outcome, p.ProofID)}, nil
}

// Decide builds the event for a manual decision on an order. Approvals only
// apply while the reservation window is open.
func Decide(order *entity.Order, outcome entity.Outcome, externalID string) *entity.SettlementEvent {
	event := eventFromOrder(order, outcome)
	event.Provider = entity.ProviderManual
	event.ExternalID = externalID
	event.RequireUnexpired = outcome == entity.OutcomeApproved
	return event
}
