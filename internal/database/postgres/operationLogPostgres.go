package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/gilson954/sistema-rifa-sub001/internal/database"
	"github.com/gilson954/sistema-rifa-sub001/internal/entity"
)

var _ database.OperationLogRepository = (*operationLogRepository)(nil)

type operationLogRepository struct {
	db *sql.DB
}

func NewOperationLogRepository(db *sql.DB) database.OperationLogRepository {
	return &operationLogRepository{db: db}
}

func (r *operationLogRepository) Append(ctx context.Context, entry *entity.OperationLog) error {
	details := entry.Details
	if details == nil {
		details = map[string]interface{}{}
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return storageErr("encode operation details", err)
	}

	query := `
		INSERT INTO operation_logs (id, operation, campaign_id, status, message, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		entry.Operation,
		nullString(entry.CampaignID),
		entry.Status,
		entry.Message,
		string(payload),
		entry.CreatedAt,
	)
	if err != nil {
		return storageErr("append operation log", err)
	}
	return nil
}

func (r *operationLogRepository) ListRecent(ctx context.Context, limit int) ([]*entity.OperationLog, error) {
	query := `
		SELECT id, operation, COALESCE(campaign_id, ''), status, message, details, created_at
		FROM operation_logs
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, storageErr("list operation logs", err)
	}
	defer rows.Close()

	var entries []*entity.OperationLog
	for rows.Next() {
		var (
			e       entity.OperationLog
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.Operation, &e.CampaignID, &e.Status, &e.Message, &payload, &e.CreatedAt); err != nil {
			return nil, storageErr("scan operation log", err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &e.Details); err != nil {
				return nil, storageErr("decode operation details", err)
			}
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate operation logs", err)
	}
	return entries, nil
}
