package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/gilson954/sistema-rifa-sub001/internal/database"
	"github.com/gilson954/sistema-rifa-sub001/internal/entity"

	"github.com/lib/pq"
)

var _ database.OrderRepository = (*orderRepository)(nil)

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) database.OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `
	id, campaign_id, ticket_numbers, reference,
	COALESCE(customer_name, ''), COALESCE(customer_phone, ''), COALESCE(customer_email, ''),
	reserved_at, expires_at, created_at`

// Reserve writes the ledger row and claims every ticket with a single conditional
// UPDATE. Any ticket that is not available makes the whole transaction roll back.
func (r *orderRepository) Reserve(ctx context.Context, order *entity.Order) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return storageErr("begin transaction", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (
			id, campaign_id, ticket_numbers, reference,
			customer_name, customer_phone, customer_email,
			reserved_at, expires_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.ExecContext(ctx, query,
		order.ID,
		order.CampaignID,
		pq.Array(int64s(order.TicketNumbers)),
		order.Reference,
		nullString(order.Customer.Name),
		nullString(order.Customer.Phone),
		nullString(order.Customer.Email),
		order.ReservedAt,
		order.ExpiresAt,
		order.CreatedAt,
	)
	if err != nil {
		return storageErr("create order", err)
	}

	query = `
		UPDATE tickets
		SET status = 'reserved',
			order_id = $3,
			customer_name = $4,
			customer_phone = $5,
			customer_email = $6,
			reserved_at = $7,
			reservation_expires_at = $8,
			bought_at = NULL,
			updated_at = $7
		WHERE campaign_id = $1
		  AND quota_number = ANY($2)
		  AND status = 'available'
		RETURNING quota_number
	`
	rows, err := tx.QueryContext(ctx, query,
		order.CampaignID,
		pq.Array(int64s(order.TicketNumbers)),
		order.ID,
		nullString(order.Customer.Name),
		nullString(order.Customer.Phone),
		nullString(order.Customer.Email),
		order.ReservedAt,
		order.ExpiresAt,
	)
	if err != nil {
		return storageErr("reserve tickets", err)
	}
	claimed, err := scanNumbers(rows)
	if err != nil {
		return storageErr("reserve tickets", err)
	}

	if len(claimed) != len(order.TicketNumbers) {
		return &entity.ConflictError{
			CampaignID:  order.CampaignID,
			Unavailable: difference(order.TicketNumbers, claimed),
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit transaction", err)
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, campaignID, orderID string) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND campaign_id = $2`
	return r.getOne(ctx, query, orderID, campaignID)
}

func (r *orderRepository) FindByID(ctx context.Context, orderID string) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.getOne(ctx, query, orderID)
}

func (r *orderRepository) getOne(ctx context.Context, query string, args ...interface{}) (*entity.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrOrderNotFound
	}
	if err != nil {
		return nil, storageErr("get order", err)
	}
	return order, nil
}

// FindByReference returns the ledger rows that issued a legacy reference, oldest first
func (r *orderRepository) FindByReference(ctx context.Context, reference string) ([]*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE reference = $1 ORDER BY created_at, id`
	return r.list(ctx, query, reference)
}

func (r *orderRepository) ListByCampaign(ctx context.Context, campaignID string, limit, offset int) ([]*entity.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE campaign_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, campaignID, limit, offset)
}

func (r *orderRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list orders", err)
	}
	defer rows.Close()

	var orders []*entity.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, storageErr("scan order", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate orders", err)
	}
	return orders, nil
}

// UpdateContact rewrites the customer fields on the ledger row, on the tickets
// still held by the order and on its proofs.
func (r *orderRepository) UpdateContact(ctx context.Context, campaignID, orderID string, customer entity.Customer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin transaction", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE orders SET customer_name = $3, customer_phone = $4, customer_email = $5
		WHERE id = $1 AND campaign_id = $2
	`
	res, err := tx.ExecContext(ctx, query, orderID, campaignID,
		nullString(customer.Name), nullString(customer.Phone), nullString(customer.Email))
	if err != nil {
		return storageErr("update order contact", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return entity.ErrOrderNotFound
	}

	query = `
		UPDATE tickets SET customer_name = $3, customer_phone = $4, customer_email = $5
		WHERE campaign_id = $1 AND order_id = $2
	`
	if _, err := tx.ExecContext(ctx, query, campaignID, orderID,
		nullString(customer.Name), nullString(customer.Phone), nullString(customer.Email)); err != nil {
		return storageErr("update ticket contact", err)
	}

	query = `
		UPDATE payment_proofs SET customer_name = $3, customer_phone = $4
		WHERE campaign_id = $1 AND order_id = $2
	`
	if _, err := tx.ExecContext(ctx, query, campaignID, orderID,
		nullString(customer.Name), nullString(customer.Phone)); err != nil {
		return storageErr("update proof contact", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit transaction", err)
	}
	return nil
}

func scanOrder(row rowScanner) (*entity.Order, error) {
	var (
		o       entity.Order
		numbers pq.Int64Array
	)
	err := row.Scan(
		&o.ID,
		&o.CampaignID,
		&numbers,
		&o.Reference,
		&o.Customer.Name,
		&o.Customer.Phone,
		&o.Customer.Email,
		&o.ReservedAt,
		&o.ExpiresAt,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.TicketNumbers = make([]int, 0, len(numbers))
	for _, n := range numbers {
		o.TicketNumbers = append(o.TicketNumbers, int(n))
	}
	return &o, nil
}

func scanNumbers(rows *sql.Rows) ([]int, error) {
	defer rows.Close()

	var numbers []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Ints(numbers)
	return numbers, nil
}

// difference returns the requested numbers missing from got, sorted
func difference(requested, got []int) []int {
	seen := make(map[int]struct{}, len(got))
	for _, n := range got {
		seen[n] = struct{}{}
	}
	var missing []int
	for _, n := range requested {
		if _, ok := seen[n]; !ok {
			missing = append(missing, n)
		}
	}
	sort.Ints(missing)
	return missing
}
