package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gilson954/sistema-rifa-sub001/internal/database"
	"github.com/gilson954/sistema-rifa-sub001/internal/entity"

	"github.com/lib/pq"
)

var _ database.ProofRepository = (*proofRepository)(nil)

type proofRepository struct {
	db *sql.DB
}

func NewProofRepository(db *sql.DB) database.ProofRepository {
	return &proofRepository{db: db}
}

const proofColumns = `
	id, order_id, campaign_id, organizer_id, image_path, thumbnail_path, status,
	COALESCE(customer_name, ''), COALESCE(customer_phone, ''), created_at, updated_at`

// uniqueViolation is the postgres error code raised by ux_proofs_order
const uniqueViolation = "23505"

func (r *proofRepository) Create(ctx context.Context, p *entity.PaymentProof) error {
	query := `
		INSERT INTO payment_proofs (
			id, order_id, campaign_id, organizer_id, image_path, thumbnail_path,
			status, customer_name, customer_phone, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.OrderID,
		p.CampaignID,
		p.OrganizerID,
		p.ImagePath,
		p.ThumbnailPath,
		p.Status,
		nullString(p.CustomerName),
		nullString(p.CustomerPhone),
		p.CreatedAt,
		p.UpdatedAt,
	)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return entity.ErrProofExists
	}
	if err != nil {
		return storageErr("create payment proof", err)
	}
	return nil
}

func (r *proofRepository) GetByID(ctx context.Context, id string) (*entity.PaymentProof, error) {
	query := `SELECT ` + proofColumns + ` FROM payment_proofs WHERE id = $1`

	proof, err := scanProof(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrProofNotFound
	}
	if err != nil {
		return nil, storageErr("get payment proof", err)
	}
	return proof, nil
}

func (r *proofRepository) GetLatestByOrder(ctx context.Context, campaignID, orderID string) (*entity.PaymentProof, error) {
	query := `SELECT ` + proofColumns + `
		FROM payment_proofs
		WHERE campaign_id = $1 AND order_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	proof, err := scanProof(r.db.QueryRowContext(ctx, query, campaignID, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrProofNotFound
	}
	if err != nil {
		return nil, storageErr("get order payment proof", err)
	}
	return proof, nil
}

func (r *proofRepository) ListByCampaign(ctx context.Context, campaignID string) ([]*entity.PaymentProof, error) {
	query := `SELECT ` + proofColumns + `
		FROM payment_proofs
		WHERE campaign_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, storageErr("list payment proofs", err)
	}
	defer rows.Close()

	var proofs []*entity.PaymentProof
	for rows.Next() {
		proof, err := scanProof(rows)
		if err != nil {
			return nil, storageErr("scan payment proof", err)
		}
		proofs = append(proofs, proof)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate payment proofs", err)
	}
	return proofs, nil
}

func (r *proofRepository) CompareAndSetStatus(ctx context.Context, id string, from, to entity.ProofStatus, at time.Time) (bool, error) {
	query := `UPDATE payment_proofs SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`

	res, err := r.db.ExecContext(ctx, query, id, from, to, at)
	if err != nil {
		return false, storageErr("update payment proof status", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("update payment proof status", err)
	}
	return affected == 1, nil
}

func (r *proofRepository) SetStatus(ctx context.Context, id string, status entity.ProofStatus, at time.Time) error {
	query := `UPDATE payment_proofs SET status = $2, updated_at = $3 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, status, at)
	if err != nil {
		return storageErr("set payment proof status", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return entity.ErrProofNotFound
	}
	return nil
}

func (r *proofRepository) ExpirePendingByOrder(ctx context.Context, campaignID, orderID string, at time.Time) (int64, error) {
	query := `
		UPDATE payment_proofs SET status = 'expired', updated_at = $3
		WHERE campaign_id = $1 AND order_id = $2 AND status = 'pending'
	`
	res, err := r.db.ExecContext(ctx, query, campaignID, orderID, at)
	if err != nil {
		return 0, storageErr("expire payment proofs", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("expire payment proofs", err)
	}
	return affected, nil
}

func scanProof(row rowScanner) (*entity.PaymentProof, error) {
	var p entity.PaymentProof
	err := row.Scan(
		&p.ID,
		&p.OrderID,
		&p.CampaignID,
		&p.OrganizerID,
		&p.ImagePath,
		&p.ThumbnailPath,
		&p.Status,
		&p.CustomerName,
		&p.CustomerPhone,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
