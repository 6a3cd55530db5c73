package worker

import (
	"context"
	"time"

	"github.com/gilson954/sistema-rifa-sub001/internal/service"

	"github.com/sirupsen/logrus"
)

// SweepWorker runs the sweeper on a fixed interval inside the process.
// The HTTP trigger stays available for an external scheduler.
type SweepWorker struct {
	sweeper  service.SweeperService
	interval time.Duration
}

func NewSweepWorker(sweeper service.SweeperService, interval time.Duration) *SweepWorker {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &SweepWorker{
		sweeper:  sweeper,
		interval: interval,
	}
}

func (w *SweepWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.WithField("interval", w.interval.String()).Info("Sweep worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Sweep worker stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// runOnce выполняет один проход очистки
func (w *SweepWorker) runOnce(ctx context.Context) {
	summary, err := w.sweeper.Sweep(ctx)
	if err != nil {
		logrus.WithError(err).Error("Sweep failed")
		return
	}
	service.LogSummary(summary)

	if summary.ErrorCount > 0 {
		logrus.Warnf("%d sweep items failed, they will be retried on the next run", summary.ErrorCount)
	}
}
