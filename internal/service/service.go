package service

import (
	"context"
	"io"

	"github.com/gilson954/sistema-rifa-sub001/internal/entity"
	"github.com/gilson954/sistema-rifa-sub001/internal/provider"
)

// CampaignService seeds ticket inventory.
type CampaignService interface {
	CreateCampaign(ctx context.Context, req *CreateCampaignRequest) (*entity.Campaign, error)
	GetCampaign(ctx context.Context, id string) (*entity.CampaignWithAvailability, error)
	PublishCampaign(ctx context.Context, id, organizerID string) (*entity.CampaignWithAvailability, error)
}

// ReservationService owns the only path from available to reserved.
type ReservationService interface {
	Reserve(ctx context.Context, req *ReserveRequest) (*entity.Order, error)
}

// SettlementProcessor applies a normalized settlement event to the tickets of one order.
type SettlementProcessor interface {
	Apply(ctx context.Context, event *entity.SettlementEvent) (*entity.SettlementResult, error)
}

// WebhookService handles inbound provider notifications.
type WebhookService interface {
	Handle(ctx context.Context, providerName string, n *provider.Notification) (*WebhookResult, error)
}

// ReviewService is the manual proof workflow.
type ReviewService interface {
	UploadProof(ctx context.Context, upload *entity.ProofUpload, image io.Reader) (*entity.PaymentProof, error)
	Approve(ctx context.Context, req *ApproveRequest) (*entity.SettlementResult, error)
	Reject(ctx context.Context, proofID, organizerID string) (*entity.PaymentProof, error)
	ReleaseOrder(ctx context.Context, campaignID, orderID, organizerID string) (*entity.SettlementResult, error)
}

// OrderService is the organizer's read/update view of orders.
type OrderService interface {
	ListOrders(ctx context.Context, campaignID, organizerID string, filter *OrderFilter) ([]*entity.Order, error)
	GetOrder(ctx context.Context, campaignID, orderID, organizerID string) (*entity.OrderDetails, error)
	UpdateContact(ctx context.Context, campaignID, orderID, organizerID string, req *UpdateContactRequest) (*entity.OrderDetails, error)
}

// SweeperService cleans up stale drafts and expired reservations.
type SweeperService interface {
	Sweep(ctx context.Context) (*entity.SweepSummary, error)
}

// OperationLogger records operational events. Failures are logged, never returned.
type OperationLogger interface {
	Log(ctx context.Context, entry *entity.OperationLog)
	ListRecent(ctx context.Context, limit int) ([]*entity.OperationLog, error)
}

// Notifier announces settlements that changed tickets.
type Notifier interface {
	Notify(ctx context.Context, n *entity.SettlementNotification)
}
