package database

import (
	"context"
	"time"

	"github.com/gilson954/sistema-rifa-sub001/internal/entity"
)

type CampaignRepository interface {
	// Create inserts the campaign and one available ticket per quota number.
	Create(ctx context.Context, campaign *entity.Campaign) error
	GetByID(ctx context.Context, id string) (*entity.Campaign, error)
	GetWithAvailability(ctx context.Context, id string) (*entity.CampaignWithAvailability, error)
	Publish(ctx context.Context, id string, at time.Time) error

	// Draft cleanup
	ListStaleDrafts(ctx context.Context, now, createdBefore time.Time, limit int) ([]*entity.Campaign, error)
	DeleteStaleDraft(ctx context.Context, id string, now, createdBefore time.Time) (bool, error)
}

// OrderRepository owns the order ledger. Reserve is the only way tickets leave available.
type OrderRepository interface {
	// Reserve writes the ledger row and moves every requested ticket from
	// available to reserved in one transaction. It returns *entity.ConflictError
	// and applies nothing if any ticket is not available.
	Reserve(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, campaignID, orderID string) (*entity.Order, error)
	FindByID(ctx context.Context, orderID string) (*entity.Order, error)
	FindByReference(ctx context.Context, reference string) ([]*entity.Order, error)
	ListByCampaign(ctx context.Context, campaignID string, limit, offset int) ([]*entity.Order, error)
	UpdateContact(ctx context.Context, campaignID, orderID string, customer entity.Customer) error
}

type TicketRepository interface {
	// Transition applies one conditional write and returns the quota numbers it changed.
	Transition(ctx context.Context, tr *entity.TicketTransition) ([]int, error)
	ListByOrder(ctx context.Context, campaignID, orderID string) ([]*entity.Ticket, error)
	ListHeldByCampaign(ctx context.Context, campaignID string) ([]*entity.Ticket, error)
	ListExpiredReservations(ctx context.Context, now time.Time, limit int) ([]*entity.ExpiredReservation, error)
}

type ProofRepository interface {
	Create(ctx context.Context, proof *entity.PaymentProof) error
	GetByID(ctx context.Context, id string) (*entity.PaymentProof, error)
	GetLatestByOrder(ctx context.Context, campaignID, orderID string) (*entity.PaymentProof, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]*entity.PaymentProof, error)

	// CompareAndSetStatus moves the proof to `to` only if its status is `from`.
	CompareAndSetStatus(ctx context.Context, id string, from, to entity.ProofStatus, at time.Time) (bool, error)
	SetStatus(ctx context.Context, id string, status entity.ProofStatus, at time.Time) error
	ExpirePendingByOrder(ctx context.Context, campaignID, orderID string, at time.Time) (int64, error)
}

type OperationLogRepository interface {
	Append(ctx context.Context, entry *entity.OperationLog) error
	ListRecent(ctx context.Context, limit int) ([]*entity.OperationLog, error)
}
