// Package scheduler runs the engine's periodic loops and emits discrete
// tick events consumed by a single coordinator, so retraining, weight
// refresh, and threshold recompute never race each other implicitly.
package scheduler

import (
	"context"
	"time"

	"signalcore/internal/logger"
)

// TickKind names a periodic duty.
type TickKind string

const (
	TickRetrain             TickKind = "retrain"
	TickRefreshWeights      TickKind = "refresh-weights"
	TickRecomputeThresholds TickKind = "recompute-thresholds"
)

// Tick is one scheduled wake-up.
type Tick struct {
	Kind TickKind
	At   time.Time
}

// Dispatcher fans interval loops into one tick channel. Consumers that
// fall behind lose ticks rather than blocking the loops.
type Dispatcher struct {
	ticks chan Tick
	nowFn func() time.Time
}

func NewDispatcher(buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 8
	}
	return &Dispatcher{
		ticks: make(chan Tick, buffer),
		nowFn: time.Now,
	}
}

// Ticks returns the consumer side of the dispatcher.
func (d *Dispatcher) Ticks() <-chan Tick {
	return d.ticks
}

// Every starts an interval loop for kind. When delay > 0 the first tick
// fires after delay instead of a full interval; the forced run shortly
// after startup uses this.
func (d *Dispatcher) Every(ctx context.Context, kind TickKind, interval, delay time.Duration) {
	if interval <= 0 {
		logger.Warnf("scheduler: invalid interval=%s for %s, loop not started", interval, kind)
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go d.loop(ctx, kind, interval, delay)
}

func (d *Dispatcher) loop(ctx context.Context, kind TickKind, interval, delay time.Duration) {
	logger.Infof("scheduler: %s loop started interval=%s delay=%s", kind, interval, delay)
	wait := interval
	if delay > 0 {
		wait = delay
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Infof("scheduler: %s loop stopped", kind)
			return
		case <-timer.C:
		}
		d.emit(kind)
		timer.Reset(interval)
	}
}

// Trigger emits an immediate tick, used by forced retrains.
func (d *Dispatcher) Trigger(kind TickKind) {
	d.emit(kind)
}

func (d *Dispatcher) emit(kind TickKind) {
	t := Tick{Kind: kind, At: d.nowFn().UTC()}
	select {
	case d.ticks <- t:
	default:
		logger.Warnf("scheduler: tick channel full, dropped %s", kind)
	}
}
