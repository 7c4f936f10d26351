package widget

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// RepeatingTask runs a callback on every tick of a clock ticker until stopped.
// Callbacks never overlap: a tick that arrives while the previous callback is
// still running is dropped, as time.Ticker does.
type RepeatingTask struct {
	ticker  *clock.Ticker
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// Every starts a task calling fn each interval on clk.
func Every(clk clock.Clock, interval time.Duration, fn func()) *RepeatingTask {
	t := &RepeatingTask{
		ticker:  clk.Ticker(interval),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go t.run(fn)
	return t
}

func (t *RepeatingTask) run(fn func()) {
	defer close(t.stopped)
	for {
		select {
		case <-t.ticker.C:
			fn()
		case <-t.done:
			return
		}
	}
}

// Stop cancels future ticks and waits for a running callback to return. It is idempotent.
func (t *RepeatingTask) Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
	<-t.stopped
}
