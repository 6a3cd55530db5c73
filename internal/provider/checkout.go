package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gilson954/sistema-rifa-sub001/internal/entity"

	"github.com/shopspring/decimal"
)

// flexString accepts both JSON strings and numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type checkoutPayload struct {
	ID     flexString `json:"id"`
	Type   string     `json:"type"`
	Action string     `json:"action"`
	Data   struct {
		ID                flexString       `json:"id"`
		Status            string           `json:"status"`
		StatusDetail      string           `json:"status_detail"`
		ExternalReference string           `json:"external_reference"`
		TransactionAmount *decimal.Decimal `json:"transaction_amount"`
		Metadata          struct {
			OrderID    string `json:"order_id"`
			CampaignID string `json:"campaign_id"`
		} `json:"metadata"`
	} `json:"data"`
}

type checkoutAdapter struct {
	secret   string
	resolver *Resolver
}

// NewCheckoutAdapter parses hosted-checkout payment notifications.
func NewCheckoutAdapter(secret string, resolver *Resolver) Adapter {
	return &checkoutAdapter{secret: secret, resolver: resolver}
}

func (a *checkoutAdapter) Name() string {
	return entity.ProviderCheckout
}

func (a *checkoutAdapter) Parse(ctx context.Context, n *Notification) (*Result, error) {
	if err := verifySignature(n, a.secret); err != nil {
		return nil, err
	}

	var p checkoutPayload
	if err := json.Unmarshal(n.Body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrMalformedPayload, err)
	}

	if !strings.EqualFold(p.Type, "payment") {
		return ignored(fmt.Sprintf("event type %q", p.Type)), nil
	}

	order, err := a.resolver.Resolve(ctx, p.Data.Metadata.OrderID, p.Data.ExternalReference)
	if err != nil {
		return nil, err
	}
	if p.Data.Metadata.CampaignID != "" && p.Data.Metadata.CampaignID != order.CampaignID {
		return nil, fmt.Errorf("%w: campaign %s does not own order %s", entity.ErrUnknownReference, p.Data.Metadata.CampaignID, order.ID)
	}

	event := eventFromOrder(order, NormalizeOutcome(p.Data.Status))
	event.Provider = entity.ProviderCheckout
	event.ExternalID = string(p.Data.ID)
	if event.ExternalID == "" {
		event.ExternalID = string(p.ID)
	}
	event.Amount = p.Data.TransactionAmount

	return &Result{Event: event}, nil
}
