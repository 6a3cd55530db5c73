package service

import (
	"context"

	"github.com/gilson954/sistema-rifa-sub001/internal/database"
	"github.com/gilson954/sistema-rifa-sub001/internal/entity"
	"github.com/gilson954/sistema-rifa-sub001/pkg/clock"
	"github.com/gilson954/sistema-rifa-sub001/pkg/kafka"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type operationLogger struct {
	repo     database.OperationLogRepository
	producer kafka.Producer
	clock    clock.Clock
}

// NewOperationLogger writes entries to the operation log and mirrors them to kafka.
// producer may be nil.
func NewOperationLogger(repo database.OperationLogRepository, producer kafka.Producer, clk clock.Clock) OperationLogger {
	return &operationLogger{
		repo:     repo,
		producer: producer,
		clock:    clk,
	}
}

func (l *operationLogger) Log(ctx context.Context, entry *entity.OperationLog) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = l.clock.Now()
	}

	fields := logrus.Fields{
		"operation":   entry.Operation,
		"campaign_id": entry.CampaignID,
		"status":      entry.Status,
	}
	if entry.Status == entity.OperationError {
		logrus.WithFields(fields).Error(entry.Message)
	} else {
		logrus.WithFields(fields).Info(entry.Message)
	}

	if err := l.repo.Append(ctx, entry); err != nil {
		logrus.WithError(err).WithField("operation", entry.Operation).Error("Failed to append operation log")
	}

	if l.producer != nil {
		if err := l.producer.SendMessage(ctx, entry.CampaignID, entry); err != nil {
			logrus.WithError(err).WithField("operation", entry.Operation).Warn("Failed to mirror operation log to kafka")
		}
	}
}

func (l *operationLogger) ListRecent(ctx context.Context, limit int) ([]*entity.OperationLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return l.repo.ListRecent(ctx, limit)
}
