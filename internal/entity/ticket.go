package entity

import (
	"time"
)

type TicketStatus string

const (
	TicketStatusAvailable TicketStatus = "available"
	TicketStatusReserved  TicketStatus = "reserved"
	TicketStatusPurchased TicketStatus = "purchased"
)

type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type Ticket struct {
	CampaignID           string       `json:"campaign_id" db:"campaign_id"`
	QuotaNumber          int          `json:"quota_number" db:"quota_number"`
	Status               TicketStatus `json:"status" db:"status"`
	OrderID              string       `json:"order_id,omitempty" db:"order_id"`
	Customer             Customer     `json:"customer"`
	ReservedAt           *time.Time   `json:"reserved_at,omitempty" db:"reserved_at"`
	ReservationExpiresAt *time.Time   `json:"reservation_expires_at,omitempty" db:"reservation_expires_at"`
	BoughtAt             *time.Time   `json:"bought_at,omitempty" db:"bought_at"`
	UpdatedAt            time.Time    `json:"updated_at" db:"updated_at"`
}

// ReservationExpired reports whether a reserved ticket has outlived its window.
func (t *Ticket) ReservationExpired(now time.Time) bool {
	return t.Status == TicketStatusReserved &&
		t.ReservationExpiresAt != nil &&
		!now.Before(*t.ReservationExpiresAt)
}

// TicketTransition is a conditional write: only tickets of Numbers that are
// currently in From and held by OrderID move to To.
type TicketTransition struct {
	CampaignID string
	OrderID    string
	Numbers    []int
	From       TicketStatus
	To         TicketStatus
	At         time.Time

	// RequireUnexpired adds reservation_expires_at > At to the condition.
	RequireUnexpired bool
}

// ExpiredReservation groups the expired reserved tickets of one order.
type ExpiredReservation struct {
	CampaignID string    `json:"campaign_id"`
	OrderID    string    `json:"order_id"`
	Numbers    []int     `json:"ticket_numbers"`
	ExpiresAt  time.Time `json:"expires_at"`
}
