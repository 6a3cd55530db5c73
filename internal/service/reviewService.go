package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/gilson954/sistema-rifa-sub001/internal/database"
	"github.com/gilson954/sistema-rifa-sub001/internal/entity"
	"github.com/gilson954/sistema-rifa-sub001/internal/provider"
	"github.com/gilson954/sistema-rifa-sub001/pkg/clock"
	"github.com/gilson954/sistema-rifa-sub001/pkg/storage"
	"github.com/gilson954/sistema-rifa-sub001/pkg/thumbnail"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ReviewConfig struct {
	ReleaseOnReject bool
}

type reviewService struct {
	campaigns  database.CampaignRepository
	orders     database.OrderRepository
	tickets    database.TicketRepository
	proofs     database.ProofRepository
	processor  SettlementProcessor
	files      storage.FileStorage
	thumbnails thumbnail.Generator
	oplog      OperationLogger
	clock      clock.Clock
	cfg        ReviewConfig
}

func NewReviewService(
	campaigns database.CampaignRepository,
	orders database.OrderRepository,
	tickets database.TicketRepository,
	proofs database.ProofRepository,
	processor SettlementProcessor,
	files storage.FileStorage,
	thumbnails thumbnail.Generator,
	oplog OperationLogger,
	clk clock.Clock,
	cfg ReviewConfig,
) ReviewService {
	return &reviewService{
		campaigns:  campaigns,
		orders:     orders,
		tickets:    tickets,
		proofs:     proofs,
		processor:  processor,
		files:      files,
		thumbnails: thumbnails,
		oplog:      oplog,
		clock:      clk,
		cfg:        cfg,
	}
}

// UploadProof stores the image with a thumbnail and opens a pending proof for the order.
func (s *reviewService) UploadProof(ctx context.Context, upload *entity.ProofUpload, image io.Reader) (*entity.PaymentProof, error) {
	if upload.OrderID == "" || upload.CampaignID == "" || upload.OrganizerID == "" {
		return nil, fmt.Errorf("%w: order_id, campaign_id and organizer_id are required", entity.ErrValidation)
	}

	campaign, err := s.campaigns.GetByID(ctx, upload.CampaignID)
	if err != nil {
		return nil, err
	}
	if campaign.OrganizerID != upload.OrganizerID {
		return nil, fmt.Errorf("%w: organizer does not own campaign", entity.ErrValidation)
	}

	order, err := s.orders.GetByID(ctx, upload.CampaignID, upload.OrderID)
	if err != nil {
		return nil, err
	}

	_, err = s.proofs.GetLatestByOrder(ctx, order.CampaignID, order.ID)
	switch {
	case err == nil:
		return nil, entity.ErrProofExists
	case !errors.Is(err, entity.ErrProofNotFound):
		return nil, err
	}

	now := s.clock.Now()
	tickets, err := s.tickets.ListByOrder(ctx, order.CampaignID, order.ID)
	if err != nil {
		return nil, err
	}
	switch entity.ProjectOrderStatus(tickets, nil, now) {
	case entity.OrderStatusPurchased:
		return nil, entity.ErrOrderSettled
	case entity.OrderStatusExpired, entity.OrderStatusReleased:
		return nil, fmt.Errorf("%w: order %s no longer holds its tickets", entity.ErrExpired, order.ID)
	}

	data, err := io.ReadAll(image)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read image: %v", entity.ErrValidation, err)
	}
	img, err := s.thumbnails.Generate(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, thumbnail.ErrUnsupportedImage) {
			return nil, fmt.Errorf("%w: %v", entity.ErrValidation, err)
		}
		return nil, err
	}

	proofID := uuid.New().String()
	dir := path.Join("proofs", order.CampaignID)
	imagePath := path.Join(dir, proofID+"."+img.Format)
	thumbPath := path.Join(dir, proofID+"_thumb.jpg")

	if err := s.files.Save(imagePath, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: failed to save proof image: %v", entity.ErrStorage, err)
	}
	if err := s.files.Save(thumbPath, bytes.NewReader(img.Thumbnail)); err != nil {
		s.removeFiles(imagePath)
		return nil, fmt.Errorf("%w: failed to save proof thumbnail: %v", entity.ErrStorage, err)
	}

	customerName := upload.CustomerName
	if customerName == "" {
		customerName = order.Customer.Name
	}
	customerPhone := upload.CustomerPhone
	if customerPhone == "" {
		customerPhone = order.Customer.Phone
	}

	proof := &entity.PaymentProof{
		ID:            proofID,
		OrderID:       order.ID,
		CampaignID:    order.CampaignID,
		OrganizerID:   campaign.OrganizerID,
		ImagePath:     imagePath,
		ThumbnailPath: thumbPath,
		Status:        entity.ProofStatusPending,
		CustomerName:  customerName,
		CustomerPhone: customerPhone,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.proofs.Create(ctx, proof); err != nil {
		s.removeFiles(imagePath, thumbPath)
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"proof_id":    proof.ID,
		"order_id":    order.ID,
		"campaign_id": order.CampaignID,
	}).Info("Payment proof uploaded")

	return proof, nil
}

func (s *reviewService) removeFiles(paths ...string) {
	for _, p := range paths {
		if err := s.files.Delete(p); err != nil {
			logrus.WithError(err).WithField("path", p).Warn("Failed to remove proof file")
		}
	}
}

// Approve claims the proof and purchases the order's tickets while the reservation
// is still open. A proof that arrives too late ends up expired.
func (s *reviewService) Approve(ctx context.Context, req *ApproveRequest) (*entity.SettlementResult, error) {
	proof, err := s.proofs.GetByID(ctx, req.ProofID)
	if err != nil {
		return nil, err
	}
	if proof.OrderID != req.OrderID || proof.CampaignID != req.CampaignID {
		return nil, entity.ErrProofOrderMismatch
	}
	if _, err := authorizeOrganizer(ctx, s.campaigns, proof.CampaignID, req.OrganizerID); err != nil {
		return nil, err
	}
	if err := proofDecidable(proof.Status); err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, proof.CampaignID, proof.OrderID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if !now.Before(order.ExpiresAt) {
		purchased, err := s.hasPurchased(ctx, order)
		if err != nil {
			return nil, err
		}
		if !purchased {
			return nil, s.expireProof(ctx, proof, order, entity.ProofStatusPending, now)
		}
	}

	claimed, err := s.proofs.CompareAndSetStatus(ctx, proof.ID, entity.ProofStatusPending, entity.ProofStatusApproved, now)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// another reviewer or the sweeper got there first
		current, err := s.proofs.GetByID(ctx, proof.ID)
		if err != nil {
			return nil, err
		}
		if err := proofDecidable(current.Status); err != nil {
			return nil, err
		}
		return nil, entity.ErrProofDecided
	}

	result, err := s.processor.Apply(ctx, provider.Decide(order, entity.OutcomeApproved, proof.ID))
	if err != nil {
		s.revertClaim(ctx, proof.ID)
		return nil, err
	}

	if len(result.Applied) == 0 {
		purchased, err := s.hasPurchased(ctx, order)
		if err != nil {
			s.revertClaim(ctx, proof.ID)
			return nil, err
		}
		if !purchased {
			// tickets were released under the claim
			if err := s.expireProof(ctx, proof, order, entity.ProofStatusApproved, now); !errors.Is(err, entity.ErrProofExpired) {
				s.revertClaim(ctx, proof.ID)
				return nil, err
			}
			return nil, entity.ErrProofExpired
		}
	}

	s.oplog.Log(ctx, &entity.OperationLog{
		Operation:  entity.OpProofApprove,
		CampaignID: proof.CampaignID,
		Status:     entity.OperationSuccess,
		Message:    fmt.Sprintf("proof %s approved for order %s", proof.ID, order.ID),
		Details: map[string]interface{}{
			"proof_id": proof.ID,
			"order_id": order.ID,
			"applied":  result.Applied,
			"skipped":  result.Skipped,
		},
	})

	return result, nil
}

// expireProof moves the proof from the given status to expired. It returns
// ErrProofExpired on success, or the storage error with the proof untouched.
func (s *reviewService) expireProof(ctx context.Context, proof *entity.PaymentProof, order *entity.Order, from entity.ProofStatus, now time.Time) error {
	expired, err := s.proofs.CompareAndSetStatus(ctx, proof.ID, from, entity.ProofStatusExpired, now)
	if err != nil {
		return err
	}
	if !expired {
		current, err := s.proofs.GetByID(ctx, proof.ID)
		if err != nil {
			return err
		}
		if err := proofDecidable(current.Status); err != nil {
			return err
		}
		return entity.ErrProofDecided
	}

	s.oplog.Log(ctx, &entity.OperationLog{
		Operation:  entity.OpProofApprove,
		CampaignID: proof.CampaignID,
		Status:     entity.OperationSkipped,
		Message:    fmt.Sprintf("proof %s approved after reservation of order %s expired", proof.ID, order.ID),
		Details:    map[string]interface{}{"proof_id": proof.ID, "order_id": order.ID},
	})
	return entity.ErrProofExpired
}

func proofDecidable(status entity.ProofStatus) error {
	switch status {
	case entity.ProofStatusPending:
		return nil
	case entity.ProofStatusExpired:
		return entity.ErrProofExpired
	default:
		return entity.ErrProofDecided
	}
}

func (s *reviewService) revertClaim(ctx context.Context, proofID string) {
	if _, err := s.proofs.CompareAndSetStatus(ctx, proofID, entity.ProofStatusApproved, entity.ProofStatusPending, s.clock.Now()); err != nil {
		logrus.WithError(err).WithField("proof_id", proofID).Error("Failed to revert proof claim")
	}
}

func (s *reviewService) hasPurchased(ctx context.Context, order *entity.Order) (bool, error) {
	tickets, err := s.tickets.ListByOrder(ctx, order.CampaignID, order.ID)
	if err != nil {
		return false, err
	}
	for _, t := range tickets {
		if t.Status == entity.TicketStatusPurchased {
			return true, nil
		}
	}
	return false, nil
}

// Reject marks the proof rejected. Tickets are only released when configured to.
func (s *reviewService) Reject(ctx context.Context, proofID, organizerID string) (*entity.PaymentProof, error) {
	proof, err := s.proofs.GetByID(ctx, proofID)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeOrganizer(ctx, s.campaigns, proof.CampaignID, organizerID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.proofs.SetStatus(ctx, proof.ID, entity.ProofStatusRejected, now); err != nil {
		return nil, err
	}
	proof.Status = entity.ProofStatusRejected
	proof.UpdatedAt = now

	details := map[string]interface{}{"proof_id": proof.ID, "order_id": proof.OrderID}
	if s.cfg.ReleaseOnReject {
		result, err := s.release(ctx, proof.CampaignID, proof.OrderID)
		if err != nil {
			return nil, err
		}
		details["released"] = result.Applied
	}

	s.oplog.Log(ctx, &entity.OperationLog{
		Operation:  entity.OpProofReject,
		CampaignID: proof.CampaignID,
		Status:     entity.OperationSuccess,
		Message:    fmt.Sprintf("proof %s rejected", proof.ID),
		Details:    details,
	})

	return proof, nil
}

// ReleaseOrder returns the order's reserved tickets to the pool.
func (s *reviewService) ReleaseOrder(ctx context.Context, campaignID, orderID, organizerID string) (*entity.SettlementResult, error) {
	if _, err := authorizeOrganizer(ctx, s.campaigns, campaignID, organizerID); err != nil {
		return nil, err
	}

	result, err := s.release(ctx, campaignID, orderID)
	if err != nil {
		return nil, err
	}

	s.oplog.Log(ctx, &entity.OperationLog{
		Operation:  entity.OpOrderRelease,
		CampaignID: campaignID,
		Status:     operationStatus(result),
		Message:    fmt.Sprintf("order %s released by organizer", orderID),
		Details:    map[string]interface{}{"order_id": orderID, "released": result.Applied},
	})

	return result, nil
}

func (s *reviewService) release(ctx context.Context, campaignID, orderID string) (*entity.SettlementResult, error) {
	order, err := s.orders.GetByID(ctx, campaignID, orderID)
	if err != nil {
		return nil, err
	}
	return s.processor.Apply(ctx, &entity.SettlementEvent{
		CampaignID:    order.CampaignID,
		OrderID:       order.ID,
		TicketNumbers: order.TicketNumbers,
		Outcome:       entity.OutcomeRejected,
		Provider:      entity.ProviderOrganizer,
	})
}

// authorizeOrganizer loads the campaign and checks that organizerID owns it.
func authorizeOrganizer(ctx context.Context, campaigns database.CampaignRepository, campaignID, organizerID string) (*entity.Campaign, error) {
	campaign, err := campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if organizerID == "" || campaign.OrganizerID != organizerID {
		return nil, fmt.Errorf("%w: organizer does not own campaign %s", entity.ErrForbidden, campaignID)
	}
	return campaign, nil
}
