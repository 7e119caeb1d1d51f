package order

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/techbantu/gharse/internal/config"
	ordersvc "github.com/techbantu/gharse/internal/service/order"
)

// Sweeper periodically finalizes orders whose grace window lapsed. Expiry is
// enforced lazily on the request path, so the sweeper is what moves abandoned
// orders out of PENDING_CONFIRMATION.
type Sweeper struct {
	svc      *ordersvc.Service
	logger   *zap.Logger
	interval time.Duration
	batch    int
	enabled  bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewSweeper constructs the grace-window sweeper.
func NewSweeper(svc *ordersvc.Service, cfg config.Config, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		svc:      svc,
		logger:   logger,
		interval: cfg.Messaging.Workers.SweepInterval,
		batch:    cfg.Messaging.Workers.SweepBatch,
		enabled:  cfg.Messaging.Workers.Enabled,
	}
}

func (s *Sweeper) start(context.Context) error {
	if !s.enabled {
		s.logger.Info("grace sweeper disabled")

		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(runCtx)
	s.logger.Info("grace sweeper started",
		zap.Duration("interval", s.interval),
		zap.Int("batch", s.batch),
	)

	return nil
}

func (s *Sweeper) stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		s.logger.Info("grace sweeper stopped")

		return nil
	}
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.svc.FinalizeExpired(ctx, s.batch)
			if err != nil {
				s.logger.Error("grace sweep failed", zap.Error(err))

				continue
			}
			if n > 0 {
				s.logger.Info("grace sweep finalized orders", zap.Int("count", n))
			}
		}
	}
}
