package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gilson954/sistema-rifa-sub001/internal/database"
	"github.com/gilson954/sistema-rifa-sub001/internal/entity"
	"github.com/gilson954/sistema-rifa-sub001/internal/metrics"
	"github.com/gilson954/sistema-rifa-sub001/pkg/clock"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ReservationTimeouts are in minutes.
type ReservationTimeouts struct {
	Default int
	Max     int
}

type reservationService struct {
	campaigns database.CampaignRepository
	orders    database.OrderRepository
	clock     clock.Clock
	timeouts  ReservationTimeouts
}

func NewReservationService(
	campaigns database.CampaignRepository,
	orders database.OrderRepository,
	clk clock.Clock,
	timeouts ReservationTimeouts,
) ReservationService {
	if timeouts.Default <= 0 {
		timeouts.Default = 15
	}
	return &reservationService{
		campaigns: campaigns,
		orders:    orders,
		clock:     clk,
		timeouts:  timeouts,
	}
}

// Reserve moves the requested tickets from available to reserved under a new order.
// Either every ticket is reserved or none is.
func (s *reservationService) Reserve(ctx context.Context, req *ReserveRequest) (*entity.Order, error) {
	order, err := s.reserve(ctx, req)
	switch {
	case err == nil:
		metrics.Reservations.WithLabelValues("reserved").Inc()
	case errors.Is(err, entity.ErrValidation):
		metrics.Reservations.WithLabelValues("invalid").Inc()
	case errors.Is(err, entity.ErrConflict):
		metrics.Reservations.WithLabelValues("conflict").Inc()
	default:
		metrics.Reservations.WithLabelValues("error").Inc()
	}
	return order, err
}

func (s *reservationService) reserve(ctx context.Context, req *ReserveRequest) (*entity.Order, error) {
	campaign, err := s.campaigns.GetByID(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}

	numbers, err := validateTicketNumbers(campaign, req.TicketNumbers)
	if err != nil {
		return nil, err
	}

	if campaign.Status != entity.CampaignStatusActive {
		return nil, entity.ErrCampaignNotActive
	}

	now := s.clock.Now()
	order := &entity.Order{
		ID:            uuid.New().String(),
		CampaignID:    campaign.ID,
		TicketNumbers: numbers,
		Reference:     entity.FormatReference(campaign.ID, numbers),
		Customer:      normalizeCustomer(req.Customer),
		ReservedAt:    now,
		ExpiresAt:     now.Add(s.resolveTimeout(campaign, req.TimeoutMinutes)),
		CreatedAt:     now,
		Status:        entity.OrderStatusPending,
	}

	if err := s.orders.Reserve(ctx, order); err != nil {
		var conflict *entity.ConflictError
		if errors.As(err, &conflict) {
			logrus.WithFields(logrus.Fields{
				"campaign_id": campaign.ID,
				"unavailable": conflict.Unavailable,
			}).Warn("Reservation conflict")
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"campaign_id": campaign.ID,
		"order_id":    order.ID,
		"tickets":     len(numbers),
		"expires_at":  order.ExpiresAt,
	}).Info("Tickets reserved")

	return order, nil
}

// resolveTimeout: argument, then campaign setting, then default; capped by max.
func (s *reservationService) resolveTimeout(campaign *entity.Campaign, requested int) time.Duration {
	minutes := requested
	if minutes <= 0 {
		minutes = campaign.ReservationTimeoutMinutes
	}
	if minutes <= 0 {
		minutes = s.timeouts.Default
	}
	if s.timeouts.Max > 0 && minutes > s.timeouts.Max {
		minutes = s.timeouts.Max
	}
	return time.Duration(minutes) * time.Minute
}

func validateTicketNumbers(campaign *entity.Campaign, numbers []int) ([]int, error) {
	if len(numbers) == 0 {
		return nil, fmt.Errorf("%w: no tickets requested", entity.ErrInvalidTicketNumbers)
	}

	seen := make(map[int]struct{}, len(numbers))
	for _, n := range numbers {
		if n < 0 || n >= campaign.TotalTickets {
			return nil, fmt.Errorf("%w: %d is outside 0..%d", entity.ErrInvalidTicketNumbers, n, campaign.TotalTickets-1)
		}
		if _, dup := seen[n]; dup {
			return nil, fmt.Errorf("%w: %d requested twice", entity.ErrInvalidTicketNumbers, n)
		}
		seen[n] = struct{}{}
	}

	lo, hi := campaign.PurchaseLimits()
	if len(numbers) < lo || len(numbers) > hi {
		return nil, fmt.Errorf("%w: %d tickets requested, allowed %d..%d", entity.ErrInvalidTicketNumbers, len(numbers), lo, hi)
	}

	sorted := append([]int(nil), numbers...)
	sort.Ints(sorted)
	return sorted, nil
}

func normalizeCustomer(c entity.Customer) entity.Customer {
	return entity.Customer{
		Name:  strings.TrimSpace(c.Name),
		Phone: strings.TrimSpace(c.Phone),
		Email: strings.ToLower(strings.TrimSpace(c.Email)),
	}
}
