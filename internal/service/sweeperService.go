package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gilson954/sistema-rifa-sub001/internal/database"
	"github.com/gilson954/sistema-rifa-sub001/internal/entity"
	"github.com/gilson954/sistema-rifa-sub001/internal/metrics"
	"github.com/gilson954/sistema-rifa-sub001/pkg/clock"

	"github.com/sirupsen/logrus"
)

type SweeperConfig struct {
	DraftGrace time.Duration
	BatchSize  int
}

type sweeperService struct {
	campaigns database.CampaignRepository
	tickets   database.TicketRepository
	proofs    database.ProofRepository
	processor SettlementProcessor
	oplog     OperationLogger
	clock     clock.Clock
	cfg       SweeperConfig
}

func NewSweeperService(
	campaigns database.CampaignRepository,
	tickets database.TicketRepository,
	proofs database.ProofRepository,
	processor SettlementProcessor,
	oplog OperationLogger,
	clk clock.Clock,
	cfg SweeperConfig,
) SweeperService {
	if cfg.DraftGrace <= 0 {
		cfg.DraftGrace = 48 * time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return &sweeperService{
		campaigns: campaigns,
		tickets:   tickets,
		proofs:    proofs,
		processor: processor,
		oplog:     oplog,
		clock:     clk,
		cfg:       cfg,
	}
}

// Sweep runs draft cleanup and reservation release. A failure on one item is
// recorded and the run continues. Concurrent runs are safe: every write is conditional.
func (s *sweeperService) Sweep(ctx context.Context) (*entity.SweepSummary, error) {
	now := s.clock.Now()
	summary := &entity.SweepSummary{
		Details:   []*entity.OperationLog{},
		StartedAt: now,
	}

	s.cleanupDrafts(ctx, now, summary)
	s.releaseReservations(ctx, now, summary)

	summary.FinishedAt = s.clock.Now()

	result := "success"
	if summary.ErrorCount > 0 {
		result = "partial"
	}
	metrics.SweeperRuns.WithLabelValues(result).Inc()

	s.record(ctx, summary, &entity.OperationLog{
		Operation: entity.OpSweep,
		Status:    runStatus(summary),
		Message: fmt.Sprintf("sweep finished: %d drafts deleted, %d tickets released, %d proofs expired, %d errors",
			summary.DeletedCount, summary.ReleasedCount, summary.ExpiredProofs, summary.ErrorCount),
		Details: map[string]interface{}{
			"deleted_count":  summary.DeletedCount,
			"released_count": summary.ReleasedCount,
			"expired_proofs": summary.ExpiredProofs,
			"error_count":    summary.ErrorCount,
		},
	})

	return summary, nil
}

func runStatus(summary *entity.SweepSummary) entity.OperationStatus {
	if summary.ErrorCount > 0 {
		return entity.OperationError
	}
	return entity.OperationSuccess
}

func (s *sweeperService) cleanupDrafts(ctx context.Context, now time.Time, summary *entity.SweepSummary) {
	createdBefore := now.Add(-s.cfg.DraftGrace)

	drafts, err := s.campaigns.ListStaleDrafts(ctx, now, createdBefore, s.cfg.BatchSize)
	if err != nil {
		summary.ErrorCount++
		s.record(ctx, summary, &entity.OperationLog{
			Operation: entity.OpDraftCleanup,
			Status:    entity.OperationError,
			Message:   fmt.Sprintf("failed to list stale drafts: %v", err),
		})
		return
	}

	for _, draft := range drafts {
		if ctx.Err() != nil {
			return
		}

		deleted, err := s.campaigns.DeleteStaleDraft(ctx, draft.ID, now, createdBefore)
		details := map[string]interface{}{
			"title":      draft.Title,
			"created_at": draft.CreatedAt,
			"expires_at": draft.ExpiresAt,
		}
		switch {
		case err != nil:
			summary.ErrorCount++
			s.record(ctx, summary, &entity.OperationLog{
				Operation:  entity.OpDraftCleanup,
				CampaignID: draft.ID,
				Status:     entity.OperationError,
				Message:    fmt.Sprintf("failed to delete draft: %v", err),
				Details:    details,
			})
		case !deleted:
			// published or removed by a concurrent run
			s.record(ctx, summary, &entity.OperationLog{
				Operation:  entity.OpDraftCleanup,
				CampaignID: draft.ID,
				Status:     entity.OperationSkipped,
				Message:    "draft no longer eligible for cleanup",
				Details:    details,
			})
		default:
			summary.DeletedCount++
			metrics.SweeperItems.WithLabelValues("draft_deleted").Inc()
			s.record(ctx, summary, &entity.OperationLog{
				Operation:  entity.OpDraftCleanup,
				CampaignID: draft.ID,
				Status:     entity.OperationSuccess,
				Message:    "stale draft deleted",
				Details:    details,
			})
		}
	}
}

func (s *sweeperService) releaseReservations(ctx context.Context, now time.Time, summary *entity.SweepSummary) {
	expired, err := s.tickets.ListExpiredReservations(ctx, now, s.cfg.BatchSize)
	if err != nil {
		summary.ErrorCount++
		s.record(ctx, summary, &entity.OperationLog{
			Operation: entity.OpReservationRelease,
			Status:    entity.OperationError,
			Message:   fmt.Sprintf("failed to list expired reservations: %v", err),
		})
		return
	}

	for _, res := range expired {
		if ctx.Err() != nil {
			return
		}
		s.releaseOne(ctx, now, res, summary)
	}
}

func (s *sweeperService) releaseOne(ctx context.Context, now time.Time, res *entity.ExpiredReservation, summary *entity.SweepSummary) {
	details := map[string]interface{}{
		"order_id":       res.OrderID,
		"ticket_numbers": res.Numbers,
		"expires_at":     res.ExpiresAt,
	}

	result, err := s.processor.Apply(ctx, &entity.SettlementEvent{
		CampaignID:    res.CampaignID,
		OrderID:       res.OrderID,
		TicketNumbers: res.Numbers,
		Outcome:       entity.OutcomeRejected,
		Provider:      entity.ProviderSweeper,
	})
	if err != nil {
		summary.ErrorCount++
		s.record(ctx, summary, &entity.OperationLog{
			Operation:  entity.OpReservationRelease,
			CampaignID: res.CampaignID,
			Status:     entity.OperationError,
			Message:    fmt.Sprintf("failed to release order %s: %v", res.OrderID, err),
			Details:    details,
		})
		return
	}

	summary.ReleasedCount += len(result.Applied)
	if len(result.Applied) > 0 {
		metrics.SweeperItems.WithLabelValues("ticket_released").Add(float64(len(result.Applied)))
	}
	details["released"] = result.Applied
	details["skipped"] = result.Skipped
	s.record(ctx, summary, &entity.OperationLog{
		Operation:  entity.OpReservationRelease,
		CampaignID: res.CampaignID,
		Status:     operationStatus(result),
		Message:    fmt.Sprintf("released %d expired tickets of order %s", len(result.Applied), res.OrderID),
		Details:    details,
	})

	n, err := s.proofs.ExpirePendingByOrder(ctx, res.CampaignID, res.OrderID, now)
	if err != nil {
		summary.ErrorCount++
		s.record(ctx, summary, &entity.OperationLog{
			Operation:  entity.OpProofExpire,
			CampaignID: res.CampaignID,
			Status:     entity.OperationError,
			Message:    fmt.Sprintf("failed to expire proofs of order %s: %v", res.OrderID, err),
			Details:    map[string]interface{}{"order_id": res.OrderID},
		})
		return
	}
	if n > 0 {
		summary.ExpiredProofs += int(n)
		metrics.SweeperItems.WithLabelValues("proof_expired").Add(float64(n))
		s.record(ctx, summary, &entity.OperationLog{
			Operation:  entity.OpProofExpire,
			CampaignID: res.CampaignID,
			Status:     entity.OperationSuccess,
			Message:    fmt.Sprintf("expired %d pending proofs of order %s", n, res.OrderID),
			Details:    map[string]interface{}{"order_id": res.OrderID},
		})
	}
}

func (s *sweeperService) record(ctx context.Context, summary *entity.SweepSummary, entry *entity.OperationLog) {
	s.oplog.Log(ctx, entry)
	summary.Details = append(summary.Details, entry)
}

// LogSummary writes a run summary to the application log.
func LogSummary(summary *entity.SweepSummary) {
	logrus.WithFields(logrus.Fields{
		"deleted_count":  summary.DeletedCount,
		"released_count": summary.ReleasedCount,
		"expired_proofs": summary.ExpiredProofs,
		"error_count":    summary.ErrorCount,
		"duration":       summary.FinishedAt.Sub(summary.StartedAt).String(),
	}).Info("Sweep completed")
}
