package service

import (
	"github.com/gilson954/sistema-rifa-sub001/internal/entity"

	"github.com/shopspring/decimal"
)

// CreateCampaignRequest создает черновик кампании с билетами
type CreateCampaignRequest struct {
	OrganizerID               string          `json:"organizer_id" binding:"required"`
	Title                     string          `json:"title" binding:"required"`
	TotalTickets              int             `json:"total_tickets" binding:"required,min=1,max=1000000"`
	TicketPrice               decimal.Decimal `json:"ticket_price"`
	ReservationTimeoutMinutes int             `json:"reservation_timeout_minutes" binding:"min=0"`
	MinPerPurchase            int             `json:"min_per_purchase" binding:"min=0"`
	MaxPerPurchase            int             `json:"max_per_purchase" binding:"min=0"`
	DraftTTLHours             int             `json:"draft_ttl_hours" binding:"min=0"`
}

type ReserveRequest struct {
	CampaignID     string          `json:"-"`
	TicketNumbers  []int           `json:"ticket_numbers" binding:"required"`
	Customer       entity.Customer `json:"customer"`
	TimeoutMinutes int             `json:"timeout_minutes"`
}

type ApproveRequest struct {
	ProofID     string `json:"-"`
	OrderID     string `json:"order_id" binding:"required"`
	CampaignID  string `json:"campaign_id" binding:"required"`
	OrganizerID string `json:"-"`
}

type UpdateContactRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
	Email *string `json:"email"`
}

type OrderFilter struct {
	Status entity.OrderStatus `form:"status"`
	Limit  int                `form:"limit"`
	Offset int                `form:"offset"`
}

// WebhookResult is what the webhook endpoint reports back to the provider.
type WebhookResult struct {
	Provider  string                   `json:"provider"`
	Ignored   bool                     `json:"ignored"`
	Duplicate bool                     `json:"duplicate"`
	Reason    string                   `json:"reason,omitempty"`
	Result    *entity.SettlementResult `json:"result,omitempty"`
}
