package state

import (
	"time"

	"github.com/groupmarket/groupbot/core/logger"
	"log/slog"
)

// Sweeper periodically reclaims conversation sessions that were abandoned
// mid-flow, so a user who never finishes a dialog does not pin a session
// entry forever.
type Sweeper struct {
	mgr      Manager
	maxIdle  time.Duration
	interval time.Duration
	done     chan struct{}
}

// NewSweeper builds a sweeper for the given manager. Zero values fall back
// to a 30 minute TTL checked every 5 minutes.
func NewSweeper(mgr Manager, maxIdle, interval time.Duration) *Sweeper {
	if maxIdle <= 0 {
		maxIdle = 30 * time.Minute
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{
		mgr:      mgr,
		maxIdle:  maxIdle,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start launches the background sweep loop.
func (s *Sweeper) Start() {
	go s.run()
	logger.TG.Info("session sweeper started",
		slog.String("event", "fsm.sweep.start"),
		slog.Duration("max_idle", s.maxIdle),
		slog.Duration("interval", s.interval),
	)
}

// Stop terminates the sweep loop.
func (s *Sweeper) Stop() {
	close(s.done)
}

func (s *Sweeper) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if swept := s.mgr.SweepIdle(s.maxIdle); swept > 0 {
				logger.TG.Info("idle sessions reclaimed",
					slog.String("event", "fsm.sweep"),
					slog.Int("swept", swept),
				)
			}
		case <-s.done:
			return
		}
	}
}
