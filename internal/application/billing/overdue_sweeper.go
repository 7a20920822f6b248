package billing

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/schoolerp/backend/internal/domain/fees"
)

// OverdueSweeper periodically flags UNPAID invoices whose due date has
// passed. It runs as a background worker alongside the HTTP server.
type OverdueSweeper struct {
	invoiceRepo fees.InvoiceRepository
	interval    time.Duration
	logger      *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewOverdueSweeper creates a new OverdueSweeper
func NewOverdueSweeper(invoiceRepo fees.InvoiceRepository, interval time.Duration, logger *zap.Logger) *OverdueSweeper {
	return &OverdueSweeper{
		invoiceRepo: invoiceRepo,
		interval:    interval,
		logger:      logger,
	}
}

// Start begins the sweep loop. An initial sweep runs immediately so a
// restarted server does not wait a full interval to catch up.
func (s *OverdueSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Overdue sweeper started", zap.Duration("interval", s.interval))
	return nil
}

// Stop gracefully stops the sweep loop
func (s *OverdueSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Overdue sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Overdue sweeper stop timed out")
		return ctx.Err()
	}
}

func (s *OverdueSweeper) loop(ctx context.Context) {
	defer s.wg.Done()

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Sweep runs a single overdue pass and returns the number of invoices
// flagged. Exposed for tests and manual invocation.
func (s *OverdueSweeper) Sweep(ctx context.Context) (int64, error) {
	return s.invoiceRepo.MarkOverdueDue(ctx, time.Now())
}

func (s *OverdueSweeper) sweep(ctx context.Context) {
	flagged, err := s.Sweep(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("Overdue sweep failed", zap.Error(err))
		return
	}
	if flagged > 0 {
		s.logger.Info("Invoices marked overdue", zap.Int64("count", flagged))
	}
}
