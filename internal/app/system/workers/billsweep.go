// internal/app/system/workers/billsweep.go
package workers

import (
	"context"
	"sync"
	"time"

	billstore "github.com/dalemusser/casalink/internal/app/store/bills"
	"github.com/dalemusser/casalink/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// BillSweep is a background worker that flips pending bills whose due
// date has passed to overdue.
type BillSweep struct {
	bills    *billstore.Store
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewBillSweep creates a new overdue-bill sweep worker.
//
// interval controls how often the sweep runs (e.g. 1 hour). Each pass
// marks every pending bill with a due date in the past as overdue.
func NewBillSweep(bills *billstore.Store, logger *zap.Logger, interval time.Duration) *BillSweep {
	return &BillSweep{
		bills:    bills,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *BillSweep) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("bill sweep worker started",
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *BillSweep) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("bill sweep worker stopped")
}

func (w *BillSweep) run() {
	defer w.wg.Done()

	// Run one sweep immediately so a restart doesn't leave stale
	// pending bills until the first tick.
	w.sweep()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *BillSweep) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Sweep())
	defer cancel()

	count, err := w.bills.MarkOverdue(ctx)
	if err != nil {
		w.log.Error("failed to mark overdue bills", zap.Error(err))
		return
	}

	if count > 0 {
		w.log.Info("marked bills overdue", zap.Int64("count", count))
	}
}
