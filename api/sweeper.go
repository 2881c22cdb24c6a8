/*
sweeper.go - Periodic low-stock scanner

PURPOSE:
  Polls the cache on a fixed interval and surfaces items that newly
  crossed their low-stock threshold. Catches crossings caused by means
  other than ChangeStock (e.g. a direct update that lowered quantity or
  raised the threshold).

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Shares the engine's alert state, so a crossing already reported
    synchronously to a caller is not reported again here
  - A failed sweep logs and retries on the next tick; it never
    propagates out of the scheduler or crashes the process

CONFIGURATION:
  - InitialDelay: Wait before the first sweep (default: 5s)
  - Interval:     Time between sweeps (default: 20s)
  - Notify:       Callback receiving the newly-low items

USAGE:
  sweeper := NewLowStockSweeper(engine, logger, func(items []inventory.Item) {
      // surface the alert
  })
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - inventory/alerts.go: The shared edge detector
*/
package api

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/stock-ledger/inventory"
)

// LowStockSweeper periodically reports items newly at/under their
// minimum-stock threshold.
type LowStockSweeper struct {
	Engine       *inventory.Engine
	InitialDelay time.Duration
	Interval     time.Duration
	Notify       func([]inventory.Item)

	logger *logrus.Logger
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
	active bool
}

// NewLowStockSweeper creates a sweeper with the default schedule.
func NewLowStockSweeper(engine *inventory.Engine, logger *logrus.Logger, notify func([]inventory.Item)) *LowStockSweeper {
	if logger == nil {
		logger = logrus.New()
	}
	return &LowStockSweeper{
		Engine:       engine,
		InitialDelay: 5 * time.Second,
		Interval:     20 * time.Second,
		Notify:       notify,
		logger:       logger,
	}
}

// Start begins the background sweep.
func (s *LowStockSweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return
	}
	s.active = true
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go s.run()

	s.logger.WithFields(logrus.Fields{
		"initial_delay": s.InitialDelay,
		"interval":      s.Interval,
	}).Info("low-stock sweeper started")
}

// Stop halts the sweep and waits for the goroutine to exit.
func (s *LowStockSweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	close(s.stop)
	s.wg.Wait()
	s.active = false
	s.logger.Info("low-stock sweeper stopped")
}

func (s *LowStockSweeper) run() {
	defer s.wg.Done()

	select {
	case <-time.After(s.InitialDelay):
	case <-s.stop:
		return
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.sweep()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

// sweep runs one scan. Panics from the notify callback are contained
// so a misbehaving consumer cannot kill the scheduler.
func (s *LowStockSweeper) sweep() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Error("low-stock sweep panicked")
		}
	}()

	newlyLow := s.Engine.PollNewLowStock()
	if len(newlyLow) == 0 {
		return
	}

	s.logger.WithField("count", len(newlyLow)).Warn("items newly at/under low-stock threshold")
	if s.Notify != nil {
		s.Notify(newlyLow)
	}
}
