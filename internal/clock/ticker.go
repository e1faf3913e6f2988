package clock

import (
	"sync"
	"time"
)

// timeTicker drives ticks from a time.Ticker goroutine. Start while running
// is a no-op, so racing starts never leave two tick loops behind.
type timeTicker struct {
	mu   sync.Mutex
	stop chan struct{}
}

func newTimeTicker() *timeTicker { return &timeTicker{} }

func (t *timeTicker) Start(onTick func(), interval time.Duration) {
	t.mu.Lock()
	if t.stop != nil {
		t.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	t.stop = stop
	t.mu.Unlock()

	go func() {
		tk := time.NewTicker(interval)
		defer tk.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tk.C:
				onTick()
			}
		}
	}()
}

func (t *timeTicker) Stop() {
	t.mu.Lock()
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
	t.mu.Unlock()
}

// NopTicker never ticks. Useful where a clock must exist but not run.
type NopTicker struct{}

func (NopTicker) Start(func(), time.Duration) {}
func (NopTicker) Stop()                       {}
