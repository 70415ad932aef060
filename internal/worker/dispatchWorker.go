package worker

import (
	"context"
	"time"

	"github.com/ise-alumni/portal-sub001/internal/service"

	"github.com/sirupsen/logrus"
)

// DispatchWorker периодически отправляет письма из очереди
type DispatchWorker struct {
	queueService service.QueueService
	interval     time.Duration
}

func NewDispatchWorker(queueService service.QueueService, interval time.Duration) *DispatchWorker {
	return &DispatchWorker{
		queueService: queueService,
		interval:     interval,
	}
}

func (w *DispatchWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.Info("Email dispatch worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Email dispatch worker stopped")
			return
		case <-ticker.C:
			w.dispatchPending(ctx)
		}
	}
}

// dispatchPending выполняет один проход по очереди писем
func (w *DispatchWorker) dispatchPending(ctx context.Context) {
	if err := w.queueService.DispatchPending(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		logrus.Errorf("Email dispatch pass failed: %v", err)
	}
}

// Stop останавливает воркер (дополнительный метод для graceful shutdown)
func (w *DispatchWorker) Stop() {
	logrus.Info("Email dispatch worker stopping...")
}
