package provider

import (
	"strings"

	"github.com/gilson954/sistema-rifa-sub001/internal/entity"
)

var outcomes = map[string]entity.Outcome{
	"accredited":   entity.OutcomeApproved,
	"paid":         entity.OutcomeApproved,
	"completed":    entity.OutcomeApproved,
	"approved":     entity.OutcomeApproved,
	"finalized":    entity.OutcomeApproved,
	"rejected":     entity.OutcomeRejected,
	"cancelled":    entity.OutcomeRejected,
	"canceled":     entity.OutcomeRejected,
	"expired":      entity.OutcomeRejected,
	"refunded":     entity.OutcomeRejected,
	"charged_back": entity.OutcomeRejected,
	"failed":       entity.OutcomeRejected,
}

// NormalizeOutcome maps a provider status to an outcome. Unknown statuses are pending.
func NormalizeOutcome(status string) entity.Outcome {
	if o, ok := outcomes[strings.ToLower(strings.TrimSpace(status))]; ok {
		return o
	}
	return entity.OutcomePending
}
