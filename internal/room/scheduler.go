package room

import (
	"sync"
	"time"
)

// Task is a cancellable recurring job. Stop is idempotent.
type Task interface {
	Stop()
}

// Scheduler runs fn every interval until the returned task is stopped.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Task
}

// TickerScheduler schedules with time.Ticker, one goroutine per task.
type TickerScheduler struct{}

func (TickerScheduler) Every(interval time.Duration, fn func()) Task {
	t := &tickerTask{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go t.run(fn)
	return t
}

type tickerTask struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *tickerTask) run(fn func()) {
	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.C:
			fn()
		}
	}
}

func (t *tickerTask) Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}
