package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gilson954/sistema-rifa-sub001/internal/database"
	"github.com/gilson954/sistema-rifa-sub001/internal/entity"
	"github.com/gilson954/sistema-rifa-sub001/pkg/clock"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultDraftTTL   = 24 * time.Hour
	defaultMaxTickets = 100000
)

type campaignService struct {
	campaigns  database.CampaignRepository
	clock      clock.Clock
	maxTickets int
}

// NewCampaignService creates campaigns with at most maxTickets tickets each.
// Zero means defaultMaxTickets.
func NewCampaignService(campaigns database.CampaignRepository, clk clock.Clock, maxTickets int) CampaignService {
	if maxTickets <= 0 {
		maxTickets = defaultMaxTickets
	}
	return &campaignService{
		campaigns:  campaigns,
		clock:      clk,
		maxTickets: maxTickets,
	}
}

// CreateCampaign создает черновик с билетами 0..total_tickets-1
func (s *campaignService) CreateCampaign(ctx context.Context, req *CreateCampaignRequest) (*entity.Campaign, error) {
	if err := validateCampaign(req); err != nil {
		return nil, err
	}
	if req.TotalTickets > s.maxTickets {
		return nil, fmt.Errorf("%w: total_tickets exceeds %d", entity.ErrValidation, s.maxTickets)
	}

	now := s.clock.Now()
	ttl := defaultDraftTTL
	if req.DraftTTLHours > 0 {
		ttl = time.Duration(req.DraftTTLHours) * time.Hour
	}
	expiresAt := now.Add(ttl)

	campaign := &entity.Campaign{
		ID:                        uuid.New().String(),
		OrganizerID:               req.OrganizerID,
		Title:                     strings.TrimSpace(req.Title),
		Status:                    entity.CampaignStatusDraft,
		TotalTickets:              req.TotalTickets,
		TicketPrice:               req.TicketPrice,
		ReservationTimeoutMinutes: req.ReservationTimeoutMinutes,
		MinPerPurchase:            req.MinPerPurchase,
		MaxPerPurchase:            req.MaxPerPurchase,
		ExpiresAt:                 &expiresAt,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}

	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"campaign_id":   campaign.ID,
		"organizer_id":  campaign.OrganizerID,
		"total_tickets": campaign.TotalTickets,
	}).Info("Campaign draft created")

	return campaign, nil
}

func validateCampaign(req *CreateCampaignRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("%w: title is required", entity.ErrValidation)
	}
	if req.OrganizerID == "" {
		return fmt.Errorf("%w: organizer_id is required", entity.ErrValidation)
	}
	if req.TotalTickets <= 0 {
		return fmt.Errorf("%w: total_tickets must be positive", entity.ErrValidation)
	}
	if req.TicketPrice.IsNegative() {
		return fmt.Errorf("%w: ticket_price must not be negative", entity.ErrValidation)
	}
	if req.ReservationTimeoutMinutes < 0 || req.MinPerPurchase < 0 || req.MaxPerPurchase < 0 {
		return fmt.Errorf("%w: limits must not be negative", entity.ErrValidation)
	}
	if req.MaxPerPurchase > 0 && req.MinPerPurchase > req.MaxPerPurchase {
		return fmt.Errorf("%w: min_per_purchase exceeds max_per_purchase", entity.ErrValidation)
	}
	if req.MinPerPurchase > req.TotalTickets {
		return fmt.Errorf("%w: min_per_purchase exceeds total_tickets", entity.ErrValidation)
	}
	return nil
}

func (s *campaignService) GetCampaign(ctx context.Context, id string) (*entity.CampaignWithAvailability, error) {
	return s.campaigns.GetWithAvailability(ctx, id)
}

func (s *campaignService) PublishCampaign(ctx context.Context, id, organizerID string) (*entity.CampaignWithAvailability, error) {
	if _, err := authorizeOrganizer(ctx, s.campaigns, id, organizerID); err != nil {
		return nil, err
	}
	if err := s.campaigns.Publish(ctx, id, s.clock.Now()); err != nil {
		return nil, err
	}
	logrus.WithField("campaign_id", id).Info("Campaign published")
	return s.campaigns.GetWithAvailability(ctx, id)
}
