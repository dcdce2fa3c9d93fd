package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerDeliversTick(t *testing.T) {
	d := NewDispatcher(4)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d.nowFn = func() time.Time { return fixed }

	d.Trigger(TickRetrain)

	select {
	case tick := <-d.Ticks():
		assert.Equal(t, TickRetrain, tick.Kind)
		assert.Equal(t, fixed, tick.At)
	case <-time.After(time.Second):
		t.Fatal("no tick delivered")
	}
}

func TestFullChannelDropsInsteadOfBlocking(t *testing.T) {
	d := NewDispatcher(2)

	// Two fill the buffer; the rest must be dropped without blocking.
	for i := 0; i < 10; i++ {
		d.Trigger(TickRefreshWeights)
	}

	assert.Len(t, d.ticks, 2)
}

func TestEveryFiresAfterDelayThenInterval(t *testing.T) {
	d := NewDispatcher(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d.Every(ctx, TickRecomputeThresholds, 20*time.Millisecond, 5*time.Millisecond)

	deadline := time.After(2 * time.Second)
	for i := 0; i < 3; i++ {
		select {
		case tick := <-d.Ticks():
			require.Equal(t, TickRecomputeThresholds, tick.Kind)
		case <-deadline:
			t.Fatalf("only %d ticks before deadline", i)
		}
	}
}

func TestEveryRejectsInvalidInterval(t *testing.T) {
	d := NewDispatcher(1)

	d.Every(context.Background(), TickRetrain, 0, 0)

	select {
	case tick := <-d.Ticks():
		t.Fatalf("unexpected tick %v from rejected loop", tick)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEveryStopsOnContextCancel(t *testing.T) {
	d := NewDispatcher(8)
	ctx, cancel := context.WithCancel(context.Background())

	d.Every(ctx, TickRetrain, 10*time.Millisecond, 0)

	select {
	case <-d.Ticks():
	case <-time.After(2 * time.Second):
		t.Fatal("loop never fired")
	}

	cancel()
	time.Sleep(30 * time.Millisecond)
	for len(d.ticks) > 0 {
		<-d.ticks
	}
	select {
	case tick := <-d.Ticks():
		t.Fatalf("tick %v after cancellation", tick)
	case <-time.After(50 * time.Millisecond):
	}
}
