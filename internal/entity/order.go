package entity

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusAwaitingReview OrderStatus = "awaiting_review"
	OrderStatusPurchased      OrderStatus = "purchased"
	OrderStatusRejected       OrderStatus = "rejected"
	OrderStatusExpired        OrderStatus = "expired"
	OrderStatusReleased       OrderStatus = "released"
)

// Order is the ledger row written together with the reservation.
type Order struct {
	ID            string      `json:"id" db:"id"`
	CampaignID    string      `json:"campaign_id" db:"campaign_id"`
	TicketNumbers []int       `json:"ticket_numbers" db:"ticket_numbers"`
	Reference     string      `json:"reference" db:"reference"`
	Customer      Customer    `json:"customer"`
	ReservedAt    time.Time   `json:"reserved_at" db:"reserved_at"`
	ExpiresAt     time.Time   `json:"expires_at" db:"expires_at"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	Status        OrderStatus `json:"status" db:"-"`
}

// OrderDetails is an order with the tickets it currently holds and its proof.
type OrderDetails struct {
	Order   *Order        `json:"order"`
	Tickets []*Ticket     `json:"tickets"`
	Proof   *PaymentProof `json:"proof,omitempty"`
}

// ProjectOrderStatus computes the displayed status of an order at read time.
// Nothing is persisted; the sweeper and the review workflow own terminal writes.
func ProjectOrderStatus(tickets []*Ticket, proof *PaymentProof, now time.Time) OrderStatus {
	held := 0
	expired := false
	for _, t := range tickets {
		switch t.Status {
		case TicketStatusPurchased:
			return OrderStatusPurchased
		case TicketStatusReserved:
			held++
			if t.ReservationExpired(now) {
				expired = true
			}
		}
	}

	if proof != nil {
		switch proof.Status {
		case ProofStatusRejected:
			return OrderStatusRejected
		case ProofStatusExpired:
			return OrderStatusExpired
		}
	}

	if held == 0 {
		return OrderStatusReleased
	}
	if expired {
		return OrderStatusExpired
	}
	if proof != nil && proof.Status == ProofStatusPending {
		return OrderStatusAwaitingReview
	}
	return OrderStatusPending
}

// FormatReference packs a legacy payment reference: campaign_{id}_tickets_{n1,n2,...}.
func FormatReference(campaignID string, numbers []int) string {
	sorted := append([]int(nil), numbers...)
	sort.Ints(sorted)

	parts := make([]string, 0, len(sorted))
	for _, n := range sorted {
		parts = append(parts, strconv.Itoa(n))
	}
	return fmt.Sprintf("campaign_%s_tickets_%s", campaignID, strings.Join(parts, ","))
}
