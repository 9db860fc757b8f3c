package trace

import (
	"context"
	"fmt"
	"time"
)

// Heartbeat emits a liveness event every interval, carrying the time since
// the run started. Heartbeats that keep coming without span ends in between
// point at a stuck check.
type Heartbeat struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartHeartbeat returns nil when tracing is off or interval is not positive.
func StartHeartbeat(tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Heartbeat{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		beat(ctx, tracer, interval, time.Now())
	}()
	return h
}

func beat(ctx context.Context, tracer Tracer, interval time.Duration, started time.Time) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for n := 1; ; n++ {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			tracer.Emit(heartbeatEvent(n, now, now.Sub(started)))
		}
	}
}

func heartbeatEvent(n int, at time.Time, elapsed time.Duration) *Event {
	return &Event{
		Time:   at,
		Seq:    NextSeq(),
		Kind:   KindHeartbeat,
		Scope:  ScopeDriver,
		GID:    goroutineID(),
		Name:   "heartbeat",
		Detail: fmt.Sprintf("#%d after %s", n, elapsed.Round(time.Millisecond)),
	}
}

// Stop ends the heartbeat and waits for its goroutine. Safe on nil and on
// repeated calls.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.cancel()
	<-h.done
}
