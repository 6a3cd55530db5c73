package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
	OutcomePending  Outcome = "pending"
)

// Provider names. The sweeper and explicit releases settle through the same
// processor and identify themselves like a provider.
const (
	ProviderCheckout  = "checkout"
	ProviderBank      = "bank"
	ProviderManual    = "manual"
	ProviderSweeper   = "sweeper"
	ProviderOrganizer = "organizer"
)

// SettlementEvent is the normalized output of a provider adapter. It is never persisted.
type SettlementEvent struct {
	CampaignID    string           `json:"campaign_id"`
	OrderID       string           `json:"order_id"`
	TicketNumbers []int            `json:"ticket_numbers"`
	Outcome       Outcome          `json:"outcome"`
	ExternalID    string           `json:"external_id"`
	Provider      string           `json:"provider"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`

	// RequireUnexpired is set by the manual review channel: approval only
	// applies while the reservation window is open.
	RequireUnexpired bool `json:"require_unexpired,omitempty"`
}

type SettlementStatus string

const (
	SettlementApplied SettlementStatus = "applied"
	SettlementPartial SettlementStatus = "partial"
	SettlementNoop    SettlementStatus = "noop"
)

type SettlementResult struct {
	CampaignID string           `json:"campaign_id"`
	OrderID    string           `json:"order_id"`
	Outcome    Outcome          `json:"outcome"`
	Status     SettlementStatus `json:"status"`
	Applied    []int            `json:"applied"`
	Skipped    []int            `json:"skipped"`
}

// SettlementNotification is published after tickets actually changed state.
type SettlementNotification struct {
	CampaignID    string    `json:"campaign_id"`
	OrderID       string    `json:"order_id"`
	Outcome       Outcome   `json:"outcome"`
	Provider      string    `json:"provider"`
	TicketNumbers []int     `json:"ticket_numbers"`
	OccurredAt    time.Time `json:"occurred_at"`
}
