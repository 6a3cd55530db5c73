package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gilson954/sistema-rifa-sub001/internal/entity"

	"github.com/shopspring/decimal"
)

const bankStatusEvent = "transaction.status"

// bank status codes that are not plain words
var bankStatuses = map[string]string{
	"FNLD": "finalized",
	"RJCT": "rejected",
	"CNCL": "cancelled",
	"PDNG": "pending",
}

type bankPayload struct {
	EventType        string          `json:"eventType"`
	ProcessingStatus string          `json:"processingStatus"`
	PartnerOrderID   string          `json:"partnerOrderID"`
	PaymentReference string          `json:"paymentReference"`
	TransactionID    string          `json:"transactionId"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
}

type bankAdapter struct {
	secret   string
	resolver *Resolver
}

// NewBankAdapter parses bank transfer status callbacks.
func NewBankAdapter(secret string, resolver *Resolver) Adapter {
	return &bankAdapter{secret: secret, resolver: resolver}
}

func (a *bankAdapter) Name() string {
	return entity.ProviderBank
}

func (a *bankAdapter) Parse(ctx context.Context, n *Notification) (*Result, error) {
	if err := verifySignature(n, a.secret); err != nil {
		return nil, err
	}

	var p bankPayload
	if err := json.Unmarshal(n.Body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrMalformedPayload, err)
	}

	if p.EventType != bankStatusEvent {
		return ignored(fmt.Sprintf("event type %q", p.EventType)), nil
	}

	order, err := a.resolver.Resolve(ctx, p.PartnerOrderID, p.PaymentReference)
	if err != nil {
		return nil, err
	}

	status := p.ProcessingStatus
	if mapped, ok := bankStatuses[status]; ok {
		status = mapped
	}

	event := eventFromOrder(order, NormalizeOutcome(status))
	event.Provider = entity.ProviderBank
	event.ExternalID = p.TransactionID
	amount := p.Amount
	event.Amount = &amount

	return &Result{Event: event}, nil
}
