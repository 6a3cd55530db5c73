package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusCancelled CampaignStatus = "cancelled"
)

type Campaign struct {
	ID                        string          `json:"id" db:"id"`
	OrganizerID               string          `json:"organizer_id" db:"organizer_id"`
	Title                     string          `json:"title" db:"title"`
	Status                    CampaignStatus  `json:"status" db:"status"`
	TotalTickets              int             `json:"total_tickets" db:"total_tickets"`
	TicketPrice               decimal.Decimal `json:"ticket_price" db:"ticket_price"`
	ReservationTimeoutMinutes int             `json:"reservation_timeout_minutes" db:"reservation_timeout_minutes"`
	MinPerPurchase            int             `json:"min_per_purchase" db:"min_per_purchase"`
	MaxPerPurchase            int             `json:"max_per_purchase" db:"max_per_purchase"`
	ExpiresAt                 *time.Time      `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt                 time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt                 time.Time       `json:"updated_at" db:"updated_at"`
}

// CampaignWithAvailability is a campaign together with its ticket counts.
type CampaignWithAvailability struct {
	Campaign
	Available int `json:"available"`
	Reserved  int `json:"reserved"`
	Purchased int `json:"purchased"`
}

// PurchaseLimits returns the effective min/max tickets allowed in one order.
func (c *Campaign) PurchaseLimits() (int, int) {
	lo, hi := c.MinPerPurchase, c.MaxPerPurchase
	if lo <= 0 {
		lo = 1
	}
	if hi <= 0 || hi > c.TotalTickets {
		hi = c.TotalTickets
	}
	return lo, hi
}

// IsStaleDraft reports whether the sweeper may delete the campaign: an expired
// draft created before createdBefore.
func (c *Campaign) IsStaleDraft(now, createdBefore time.Time) bool {
	if c.Status != CampaignStatusDraft || c.ExpiresAt == nil {
		return false
	}
	return c.ExpiresAt.Before(now) && c.CreatedAt.Before(createdBefore)
}
