package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/foxzi/listdash/internal/metrics"
)

// Syncer periodically synchronises tasks with the pending requests
type Syncer struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger
	wg       sync.WaitGroup
	done     chan struct{}
}

// NewSyncer creates a new background synchroniser
func NewSyncer(service *Service, interval time.Duration, logger *slog.Logger) *Syncer {
	return &Syncer{
		service:  service,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start starts the sync loop. A zero interval disables it.
func (s *Syncer) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("background task sync disabled")
		return
	}

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("syncer started", "interval", s.interval)
}

// Stop stops the syncer and waits for the loop to finish
func (s *Syncer) Stop() {
	close(s.done)
	s.wg.Wait()
	s.logger.Info("syncer stopped")
}

func (s *Syncer) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.run(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *Syncer) run(ctx context.Context) {
	_, err := s.service.SyncTasks(ctx)
	metrics.ObserveSync(err)
	if err != nil {
		s.logger.Error("failed to sync tasks", "error", err)
	}
}
