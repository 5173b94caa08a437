// Package syncworker runs the background connectivity probe and drain triggers.
package syncworker

import (
	"context"
	"log/slog"
	"time"

	"medsync/config"
	"medsync/internal/delivery"
	"medsync/internal/domain/entity"
	"medsync/internal/domain/service"
	"medsync/internal/usecase"

	"go.uber.org/fx"
)

type syncWorker struct {
	cfg     *config.Config
	logger  *slog.Logger
	remote  service.RemoteStore
	monitor usecase.ConnectivityMonitor
	syncUC  usecase.SyncUsecase

	stop        chan struct{}
	unsubscribe func()
}

// ServerParams holds dependencies for the sync worker
type ServerParams struct {
	fx.In

	Lc      fx.Lifecycle
	Cfg     *config.Config
	Logger  *slog.Logger
	Remote  service.RemoteStore
	Monitor usecase.ConnectivityMonitor
	SyncUC  usecase.SyncUsecase
}

// NewServer creates the background sync worker
func NewServer(params ServerParams) (delivery.Delivery, error) {
	worker := &syncWorker{
		cfg:     params.Cfg,
		logger:  params.Logger,
		remote:  params.Remote,
		monitor: params.Monitor,
		syncUC:  params.SyncUC,
		stop:    make(chan struct{}),
	}

	params.Lc.Append(fx.Hook{
		OnStop: worker.shutdown,
	})

	return worker, nil
}

// Serve probes remote connectivity on an interval and drains the queue on
// every offline-to-online transition. Serve blocks until shutdown.
func (w *syncWorker) Serve(ctx context.Context) error {
	w.unsubscribe = w.monitor.OnStateChange(func(state entity.ConnectivityState) {
		if !state.Online() {
			return
		}

		// One drain per regained connection; the reconciler's own guard
		// absorbs overlapping triggers.
		go func() {
			if _, err := w.syncUC.Drain(ctx); err != nil {
				w.logger.Error("Drain after reconnect failed", slog.Any("error", err))
			}
		}()
	})

	w.probe(ctx)

	if w.cfg.Sync.DrainOnStart && w.monitor.State().Online() {
		if _, err := w.syncUC.Drain(ctx); err != nil {
			w.logger.Error("Startup drain failed", slog.Any("error", err))
		}
	}

	interval := w.cfg.Sync.ProbeInterval
	if interval <= 0 {
		w.logger.Info("Connectivity probe disabled, sync worker idle")
		<-w.stop

		return nil
	}

	w.logger.Info("Sync worker started", slog.Duration("probe_interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return nil
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.probe(ctx)
		}
	}
}

// probe asks the remote health endpoint and feeds the result to the monitor.
func (w *syncWorker) probe(ctx context.Context) {
	state := entity.ConnectivityOffline
	if w.remote.Healthy(ctx) {
		state = entity.ConnectivityOnline
	}

	w.monitor.Report(state)
}

func (w *syncWorker) shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down sync worker")

	if w.unsubscribe != nil {
		w.unsubscribe()
	}
	close(w.stop)

	return nil
}
