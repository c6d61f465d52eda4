// Package maintenance runs periodic housekeeping over the agent runtime.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	robfigcron "github.com/robfig/cron/v3"
)

// Evictor releases in-memory agent handles that have been idle for at
// least the given duration and reports how many were evicted.
type Evictor interface {
	EvictIdle(idleFor time.Duration) int
}

// Sweeper evicts idle agent handles on a cron schedule.
type Sweeper struct {
	evictor  Evictor
	schedule string
	idleFor  time.Duration
}

// NewSweeper creates a sweeper. An empty schedule disables it.
func NewSweeper(evictor Evictor, schedule string, idleFor time.Duration) *Sweeper {
	return &Sweeper{evictor: evictor, schedule: schedule, idleFor: idleFor}
}

// Start arms the cron schedule and blocks until ctx is cancelled.
// If the sweeper is disabled or the schedule is invalid it returns
// once ctx is done without sweeping.
func (s *Sweeper) Start(ctx context.Context) error {
	if s.schedule == "" {
		slog.Info("maintenance sweeper disabled")
		<-ctx.Done()
		return nil
	}

	c := robfigcron.New()
	_, err := c.AddFunc(s.schedule, s.sweep)
	if err != nil {
		slog.Error("invalid sweep schedule, sweeper disabled", "schedule", s.schedule, "error", err)
		<-ctx.Done()
		return nil
	}

	slog.Info("maintenance sweeper started", "schedule", s.schedule, "idleFor", s.idleFor)
	c.Start()
	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()
	return nil
}

func (s *Sweeper) sweep() {
	n := s.evictor.EvictIdle(s.idleFor)
	if n > 0 {
		slog.Info("evicted idle agents", "count", n)
	}
}
