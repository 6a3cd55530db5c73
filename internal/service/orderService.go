package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gilson954/sistema-rifa-sub001/internal/database"
	"github.com/gilson954/sistema-rifa-sub001/internal/entity"
	"github.com/gilson954/sistema-rifa-sub001/pkg/clock"
)

const (
	defaultOrderPage = 50
	maxOrderPage     = 500
)

type orderService struct {
	campaigns database.CampaignRepository
	orders    database.OrderRepository
	tickets   database.TicketRepository
	proofs    database.ProofRepository
	clock     clock.Clock
}

func NewOrderService(
	campaigns database.CampaignRepository,
	orders database.OrderRepository,
	tickets database.TicketRepository,
	proofs database.ProofRepository,
	clk clock.Clock,
) OrderService {
	return &orderService{
		campaigns: campaigns,
		orders:    orders,
		tickets:   tickets,
		proofs:    proofs,
		clock:     clk,
	}
}

// ListOrders returns the campaign's orders with their projected status.
func (s *orderService) ListOrders(ctx context.Context, campaignID, organizerID string, filter *OrderFilter) ([]*entity.Order, error) {
	if _, err := authorizeOrganizer(ctx, s.campaigns, campaignID, organizerID); err != nil {
		return nil, err
	}
	if filter == nil {
		filter = &OrderFilter{}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultOrderPage
	}
	if limit > maxOrderPage {
		limit = maxOrderPage
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	held, err := s.tickets.ListHeldByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	byOrder := make(map[string][]*entity.Ticket)
	for _, t := range held {
		byOrder[t.OrderID] = append(byOrder[t.OrderID], t)
	}

	proofs, err := s.proofs.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	// ListByCampaign is oldest first, so the last one wins
	latest := make(map[string]*entity.PaymentProof)
	for _, p := range proofs {
		latest[p.OrderID] = p
	}

	now := s.clock.Now()
	if filter.Status == "" {
		orders, err := s.orders.ListByCampaign(ctx, campaignID, limit, offset)
		if err != nil {
			return nil, err
		}
		for _, o := range orders {
			o.Status = entity.ProjectOrderStatus(byOrder[o.ID], latest[o.ID], now)
		}
		return orders, nil
	}

	// status only exists after projection, so limit and offset count matching
	// orders and the ledger is walked in batches
	result := make([]*entity.Order, 0, limit)
	skipped := 0
	for batchOffset := 0; ; batchOffset += maxOrderPage {
		batch, err := s.orders.ListByCampaign(ctx, campaignID, maxOrderPage, batchOffset)
		if err != nil {
			return nil, err
		}
		for _, o := range batch {
			o.Status = entity.ProjectOrderStatus(byOrder[o.ID], latest[o.ID], now)
			if o.Status != filter.Status {
				continue
			}
			if skipped < offset {
				skipped++
				continue
			}
			result = append(result, o)
			if len(result) == limit {
				return result, nil
			}
		}
		if len(batch) < maxOrderPage {
			return result, nil
		}
	}
}

func (s *orderService) GetOrder(ctx context.Context, campaignID, orderID, organizerID string) (*entity.OrderDetails, error) {
	if _, err := authorizeOrganizer(ctx, s.campaigns, campaignID, organizerID); err != nil {
		return nil, err
	}
	return s.details(ctx, campaignID, orderID)
}

func (s *orderService) details(ctx context.Context, campaignID, orderID string) (*entity.OrderDetails, error) {
	order, err := s.orders.GetByID(ctx, campaignID, orderID)
	if err != nil {
		return nil, err
	}

	tickets, err := s.tickets.ListByOrder(ctx, campaignID, orderID)
	if err != nil {
		return nil, err
	}

	proof, err := s.proofs.GetLatestByOrder(ctx, campaignID, orderID)
	if err != nil {
		if !errors.Is(err, entity.ErrNotFound) {
			return nil, err
		}
		proof = nil
	}

	order.Status = entity.ProjectOrderStatus(tickets, proof, s.clock.Now())
	return &entity.OrderDetails{
		Order:   order,
		Tickets: tickets,
		Proof:   proof,
	}, nil
}

// UpdateContact changes the buyer's contact fields on the order, its held tickets
// and its proofs. Unset fields keep their value.
func (s *orderService) UpdateContact(ctx context.Context, campaignID, orderID, organizerID string, req *UpdateContactRequest) (*entity.OrderDetails, error) {
	if _, err := authorizeOrganizer(ctx, s.campaigns, campaignID, organizerID); err != nil {
		return nil, err
	}
	if req.Name == nil && req.Phone == nil && req.Email == nil {
		return nil, fmt.Errorf("%w: nothing to update", entity.ErrValidation)
	}

	order, err := s.orders.GetByID(ctx, campaignID, orderID)
	if err != nil {
		return nil, err
	}

	customer := order.Customer
	if req.Name != nil {
		customer.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		customer.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != "" && !strings.Contains(email, "@") {
			return nil, fmt.Errorf("%w: invalid email", entity.ErrValidation)
		}
		customer.Email = email
	}

	if err := s.orders.UpdateContact(ctx, campaignID, orderID, customer); err != nil {
		return nil, err
	}
	return s.details(ctx, campaignID, orderID)
}
