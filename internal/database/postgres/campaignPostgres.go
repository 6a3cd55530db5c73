package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gilson954/sistema-rifa-sub001/internal/database"
	"github.com/gilson954/sistema-rifa-sub001/internal/entity"
)

var _ database.CampaignRepository = (*campaignRepository)(nil)

type campaignRepository struct {
	db *sql.DB
}

func NewCampaignRepository(db *sql.DB) database.CampaignRepository {
	return &campaignRepository{db: db}
}

const campaignColumns = `
	id, organizer_id, title, status, total_tickets, ticket_price,
	reservation_timeout_minutes, min_per_purchase, max_per_purchase,
	expires_at, created_at, updated_at`

// Create inserts the campaign and its full ticket inventory in one transaction
func (r *campaignRepository) Create(ctx context.Context, c *entity.Campaign) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin transaction", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO campaigns (
			id, organizer_id, title, status, total_tickets, ticket_price,
			reservation_timeout_minutes, min_per_purchase, max_per_purchase,
			expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = tx.ExecContext(ctx, query,
		c.ID,
		c.OrganizerID,
		c.Title,
		c.Status,
		c.TotalTickets,
		c.TicketPrice,
		c.ReservationTimeoutMinutes,
		c.MinPerPurchase,
		c.MaxPerPurchase,
		c.ExpiresAt,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return storageErr("create campaign", err)
	}

	query = `
		INSERT INTO tickets (campaign_id, quota_number, status, updated_at)
		SELECT $1, n, 'available', $3 FROM generate_series(0, $2 - 1) AS n
	`
	if _, err := tx.ExecContext(ctx, query, c.ID, c.TotalTickets, c.CreatedAt); err != nil {
		return storageErr("create tickets", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit transaction", err)
	}
	return nil
}

func (r *campaignRepository) GetByID(ctx context.Context, id string) (*entity.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

	campaign, err := scanCampaign(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrCampaignNotFound
	}
	if err != nil {
		return nil, storageErr("get campaign", err)
	}
	return campaign, nil
}

func (r *campaignRepository) GetWithAvailability(ctx context.Context, id string) (*entity.CampaignWithAvailability, error) {
	campaign, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'available'),
			COUNT(*) FILTER (WHERE status = 'reserved'),
			COUNT(*) FILTER (WHERE status = 'purchased')
		FROM tickets
		WHERE campaign_id = $1
	`
	result := &entity.CampaignWithAvailability{Campaign: *campaign}
	err = r.db.QueryRowContext(ctx, query, id).Scan(
		&result.Available,
		&result.Reserved,
		&result.Purchased,
	)
	if err != nil {
		return nil, storageErr("count tickets", err)
	}
	return result, nil
}

// Publish moves a draft campaign to active and clears its draft expiry
func (r *campaignRepository) Publish(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE campaigns
		SET status = 'active', expires_at = NULL, updated_at = $2
		WHERE id = $1 AND status = 'draft'
	`
	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return storageErr("publish campaign", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return storageErr("publish campaign", err)
	}
	if affected == 1 {
		return nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return entity.ErrCampaignNotDraft
}

func (r *campaignRepository) ListStaleDrafts(ctx context.Context, now, createdBefore time.Time, limit int) ([]*entity.Campaign, error) {
	query := `SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE status = 'draft'
		  AND expires_at IS NOT NULL
		  AND expires_at < $1
		  AND created_at < $2
		ORDER BY created_at
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, now, createdBefore, limit)
	if err != nil {
		return nil, storageErr("list stale drafts", err)
	}
	defer rows.Close()

	var campaigns []*entity.Campaign
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, storageErr("scan campaign", err)
		}
		campaigns = append(campaigns, campaign)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate campaigns", err)
	}
	return campaigns, nil
}

// DeleteStaleDraft re-checks the draft conditions in the DELETE itself, so a
// campaign published after it was listed survives.
func (r *campaignRepository) DeleteStaleDraft(ctx context.Context, id string, now, createdBefore time.Time) (bool, error) {
	query := `
		DELETE FROM campaigns
		WHERE id = $1
		  AND status = 'draft'
		  AND expires_at IS NOT NULL
		  AND expires_at < $2
		  AND created_at < $3
	`
	res, err := r.db.ExecContext(ctx, query, id, now, createdBefore)
	if err != nil {
		return false, storageErr("delete draft campaign", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("delete draft campaign", err)
	}
	return affected > 0, nil
}

func scanCampaign(row rowScanner) (*entity.Campaign, error) {
	var (
		c         entity.Campaign
		expiresAt sql.NullTime
	)
	err := row.Scan(
		&c.ID,
		&c.OrganizerID,
		&c.Title,
		&c.Status,
		&c.TotalTickets,
		&c.TicketPrice,
		&c.ReservationTimeoutMinutes,
		&c.MinPerPurchase,
		&c.MaxPerPurchase,
		&expiresAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.ExpiresAt = timePtr(expiresAt)
	return &c, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %v", entity.ErrStorage, op, err)
}
