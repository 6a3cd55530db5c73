package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gilson954/sistema-rifa-sub001/internal/database"
	"github.com/gilson954/sistema-rifa-sub001/internal/entity"

	"github.com/lib/pq"
)

var _ database.TicketRepository = (*ticketRepository)(nil)

type ticketRepository struct {
	db *sql.DB
}

func NewTicketRepository(db *sql.DB) database.TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `
	campaign_id, quota_number, status, COALESCE(order_id, ''),
	COALESCE(customer_name, ''), COALESCE(customer_phone, ''), COALESCE(customer_email, ''),
	reserved_at, reservation_expires_at, bought_at, updated_at`

// Transition is the compare-and-swap primitive of the inventory. The source
// status and the order id are part of the WHERE clause, so a ticket that was
// released and re-reserved by another order is never touched.
func (r *ticketRepository) Transition(ctx context.Context, tr *entity.TicketTransition) ([]int, error) {
	if len(tr.Numbers) == 0 {
		return nil, nil
	}

	var set string
	switch tr.To {
	case entity.TicketStatusPurchased:
		set = `status = 'purchased', bought_at = $4, updated_at = $4`
	case entity.TicketStatusAvailable:
		set = `status = 'available',
			order_id = NULL,
			customer_name = NULL,
			customer_phone = NULL,
			customer_email = NULL,
			reserved_at = NULL,
			reservation_expires_at = NULL,
			updated_at = $4`
	default:
		return nil, fmt.Errorf("%w: unsupported ticket transition to %q", entity.ErrValidation, tr.To)
	}

	query := `UPDATE tickets SET ` + set + `
		WHERE campaign_id = $1
		  AND order_id = $2
		  AND quota_number = ANY($3)
		  AND status = $5`
	if tr.RequireUnexpired {
		query += ` AND reservation_expires_at > $4`
	}
	query += ` RETURNING quota_number`

	rows, err := r.db.QueryContext(ctx, query,
		tr.CampaignID,
		tr.OrderID,
		pq.Array(int64s(tr.Numbers)),
		tr.At,
		tr.From,
	)
	if err != nil {
		return nil, storageErr("transition tickets", err)
	}
	changed, err := scanNumbers(rows)
	if err != nil {
		return nil, storageErr("transition tickets", err)
	}
	return changed, nil
}

func (r *ticketRepository) ListByOrder(ctx context.Context, campaignID, orderID string) ([]*entity.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
		FROM tickets
		WHERE campaign_id = $1 AND order_id = $2
		ORDER BY quota_number
	`
	return r.list(ctx, query, campaignID, orderID)
}

// ListHeldByCampaign returns every reserved or purchased ticket of the campaign
func (r *ticketRepository) ListHeldByCampaign(ctx context.Context, campaignID string) ([]*entity.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
		FROM tickets
		WHERE campaign_id = $1 AND status <> 'available'
		ORDER BY order_id, quota_number
	`
	return r.list(ctx, query, campaignID)
}

// ListExpiredReservations groups expired reserved tickets per order, skipping
// orders that already have a purchased ticket.
func (r *ticketRepository) ListExpiredReservations(ctx context.Context, now time.Time, limit int) ([]*entity.ExpiredReservation, error) {
	query := `
		SELECT t.campaign_id, t.order_id,
			array_agg(t.quota_number ORDER BY t.quota_number),
			MIN(t.reservation_expires_at)
		FROM tickets t
		WHERE t.status = 'reserved'
		  AND t.reservation_expires_at < $1
		  AND NOT EXISTS (
			SELECT 1 FROM tickets p
			WHERE p.campaign_id = t.campaign_id
			  AND p.order_id = t.order_id
			  AND p.status = 'purchased'
		  )
		GROUP BY t.campaign_id, t.order_id
		ORDER BY MIN(t.reservation_expires_at)
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, storageErr("list expired reservations", err)
	}
	defer rows.Close()

	var expired []*entity.ExpiredReservation
	for rows.Next() {
		var (
			e       entity.ExpiredReservation
			numbers pq.Int64Array
		)
		if err := rows.Scan(&e.CampaignID, &e.OrderID, &numbers, &e.ExpiresAt); err != nil {
			return nil, storageErr("scan expired reservation", err)
		}
		for _, n := range numbers {
			e.Numbers = append(e.Numbers, int(n))
		}
		expired = append(expired, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate expired reservations", err)
	}
	return expired, nil
}

func (r *ticketRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list tickets", err)
	}
	defer rows.Close()

	var tickets []*entity.Ticket
	for rows.Next() {
		var (
			t                               entity.Ticket
			reservedAt, expiresAt, boughtAt sql.NullTime
		)
		err := rows.Scan(
			&t.CampaignID,
			&t.QuotaNumber,
			&t.Status,
			&t.OrderID,
			&t.Customer.Name,
			&t.Customer.Phone,
			&t.Customer.Email,
			&reservedAt,
			&expiresAt,
			&boughtAt,
			&t.UpdatedAt,
		)
		if err != nil {
			return nil, storageErr("scan ticket", err)
		}
		t.ReservedAt = timePtr(reservedAt)
		t.ReservationExpiresAt = timePtr(expiresAt)
		t.BoughtAt = timePtr(boughtAt)
		tickets = append(tickets, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate tickets", err)
	}
	return tickets, nil
}
