package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gilson954/sistema-rifa-sub001/config"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("Successfully connected to PostgreSQL")
	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS campaigns (
		id VARCHAR(64) PRIMARY KEY,
		organizer_id VARCHAR(64) NOT NULL,
		title VARCHAR(255) NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'draft',
		total_tickets INTEGER NOT NULL CHECK (total_tickets > 0),
		ticket_price NUMERIC(12,2) NOT NULL DEFAULT 0,
		reservation_timeout_minutes INTEGER NOT NULL DEFAULT 15,
		min_per_purchase INTEGER NOT NULL DEFAULT 1,
		max_per_purchase INTEGER NOT NULL DEFAULT 0,
		expires_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS tickets (
		campaign_id VARCHAR(64) NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		quota_number INTEGER NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'available',
		order_id VARCHAR(64),
		customer_name VARCHAR(255),
		customer_phone VARCHAR(50),
		customer_email VARCHAR(255),
		reserved_at TIMESTAMPTZ,
		reservation_expires_at TIMESTAMPTZ,
		bought_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (campaign_id, quota_number),
		CHECK (status IN ('available', 'reserved', 'purchased')),
		CHECK ((status = 'available') = (order_id IS NULL))
	)`,

	`CREATE TABLE IF NOT EXISTS orders (
		id VARCHAR(64) PRIMARY KEY,
		campaign_id VARCHAR(64) NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		ticket_numbers INTEGER[] NOT NULL,
		reference TEXT NOT NULL,
		customer_name VARCHAR(255),
		customer_phone VARCHAR(50),
		customer_email VARCHAR(255),
		reserved_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS payment_proofs (
		id VARCHAR(64) PRIMARY KEY,
		order_id VARCHAR(64) NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		campaign_id VARCHAR(64) NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		organizer_id VARCHAR(64) NOT NULL,
		image_path TEXT NOT NULL,
		thumbnail_path TEXT NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		customer_name VARCHAR(255),
		customer_phone VARCHAR(50),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (status IN ('pending', 'approved', 'rejected', 'expired'))
	)`,

	`CREATE TABLE IF NOT EXISTS operation_logs (
		id VARCHAR(64) PRIMARY KEY,
		operation VARCHAR(50) NOT NULL,
		campaign_id VARCHAR(64),
		status VARCHAR(20) NOT NULL,
		message TEXT NOT NULL,
		details JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	// Indexes
	`CREATE INDEX IF NOT EXISTS idx_campaigns_draft_expiry ON campaigns(expires_at) WHERE status = 'draft'`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_order ON tickets(campaign_id, order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_reserved_expiry ON tickets(reservation_expires_at) WHERE status = 'reserved'`,
	`CREATE INDEX IF NOT EXISTS idx_orders_campaign ON orders(campaign_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_reference ON orders(reference)`,
	`CREATE INDEX IF NOT EXISTS idx_proofs_campaign ON payment_proofs(campaign_id)`,
	`DROP INDEX IF EXISTS ux_proofs_pending_order`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_proofs_order ON payment_proofs(order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_operation_logs_created ON operation_logs(created_at DESC)`,
}

func RunMigrations(db *sql.DB) error {
	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %v", err)
		}
	}

	logrus.Info("Database migrations completed successfully")
	return nil
}
