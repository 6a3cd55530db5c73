package entity

import (
	"time"
)

type OperationStatus string

const (
	OperationSuccess OperationStatus = "success"
	OperationError   OperationStatus = "error"
	OperationSkipped OperationStatus = "skipped"
)

// Operation types written to the operational log.
const (
	OpDraftCleanup       = "draft_cleanup"
	OpReservationRelease = "reservation_release"
	OpProofExpire        = "proof_expire"
	OpSweep              = "sweep"
	OpWebhookSettlement  = "webhook_settlement"
	OpProofApprove       = "proof_approve"
	OpProofReject        = "proof_reject"
	OpOrderRelease       = "order_release"
)

type OperationLog struct {
	ID         string                 `json:"id" db:"id"`
	Operation  string                 `json:"operation" db:"operation"`
	CampaignID string                 `json:"campaign_id,omitempty" db:"campaign_id"`
	Status     OperationStatus        `json:"status" db:"status"`
	Message    string                 `json:"message" db:"message"`
	Details    map[string]interface{} `json:"details,omitempty" db:"details"`
	CreatedAt  time.Time              `json:"created_at" db:"created_at"`
}

// SweepSummary is returned by one sweeper run.
type SweepSummary struct {
	DeletedCount  int             `json:"deleted_count"`
	ReleasedCount int             `json:"released_count"`
	ExpiredProofs int             `json:"expired_proofs"`
	ErrorCount    int             `json:"error_count"`
	Details       []*OperationLog `json:"details"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    time.Time       `json:"finished_at"`
}
