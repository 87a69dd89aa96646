package scraper

import (
	"context"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// idleQuiet is how long the network must stay empty to count as idle.
const idleQuiet = 500 * time.Millisecond

// netTracker counts in-flight requests from Network domain events. It keeps
// working while the hijack router holds the Fetch domain.
type netTracker struct {
	mu      sync.Mutex
	pending map[string]struct{}
	last    time.Time
}

func newNetTracker() *netTracker {
	return &netTracker{pending: make(map[string]struct{}), last: time.Now()}
}

func (t *netTracker) start(id string) {
	t.mu.Lock()
	t.pending[id] = struct{}{}
	t.last = time.Now()
	t.mu.Unlock()
}

func (t *netTracker) finish(id string) {
	t.mu.Lock()
	if _, ok := t.pending[id]; ok {
		delete(t.pending, id)
		t.last = time.Now()
	}
	t.mu.Unlock()
}

func (t *netTracker) idle(quiet time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending) == 0 && time.Since(t.last) >= quiet
}

// wait blocks until no request has been in flight for quiet, or ctx ends.
func (t *netTracker) wait(ctx context.Context, quiet time.Duration) error {
	tick := time.NewTicker(max(quiet/5, 10*time.Millisecond))
	defer tick.Stop()
	for {
		if t.idle(quiet) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}

// follow feeds page network events into t until ctx ends. Event streams
// stay open for the life of the page, so they are not counted.
func (t *netTracker) follow(ctx context.Context, page *rod.Page) error {
	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		return err
	}
	wait := page.Context(ctx).EachEvent(
		func(e *proto.NetworkRequestWillBeSent) {
			if e.Type == proto.NetworkResourceTypeEventSource {
				return
			}
			t.start(string(e.RequestID))
		},
		func(e *proto.NetworkLoadingFinished) { t.finish(string(e.RequestID)) },
		func(e *proto.NetworkLoadingFailed) { t.finish(string(e.RequestID)) },
	)
	go wait()
	return nil
}
