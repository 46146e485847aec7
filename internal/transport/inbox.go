package transport

import (
	"context"
	"sync"

	"github.com/dqm4hep/dqm4hep-go/internal/buffer"
)

// Inbox is the bounded polling queue behind a Subscription, grounded
// on DQMEventClient's setMaximumQueueSize/clearQueue/setUpdateMode/
// queryEvent/takeEvent surface (SPEC_FULL.md §C.3): every publication
// is pushed here in addition to being handed to the subscription's
// callback, so a consumer can poll instead of (or alongside)
// receiving callbacks.
type Inbox struct {
	mu         sync.Mutex
	cond       *sync.Cond
	items      []buffer.Buffer
	maxSize    int // 0 == unbounded
	updateMode bool
	closed     bool
}

// NewInbox returns an unbounded, callback-delivery-compatible inbox.
func NewInbox() *Inbox {
	ib := &Inbox{}
	ib.cond = sync.NewCond(&ib.mu)
	return ib
}

// Push enqueues a freshly published value. When update mode is
// enabled, it replaces any already-pending value rather than queueing
// behind it. When bounded and full, it drops the oldest pending value
// (lossy-under-backpressure, per §1).
func (ib *Inbox) Push(b buffer.Buffer) {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	if ib.closed {
		return
	}
	if ib.updateMode {
		ib.items = ib.items[:0]
		ib.items = append(ib.items, b)
		ib.cond.Broadcast()
		return
	}
	if ib.maxSize > 0 && len(ib.items) >= ib.maxSize {
		ib.items = ib.items[1:]
	}
	ib.items = append(ib.items, b)
	ib.cond.Broadcast()
}

// SetMaximumQueueSize bounds the inbox; n <= 0 means unbounded.
func (ib *Inbox) SetMaximumQueueSize(n int) {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	ib.maxSize = n
	if n > 0 {
		for len(ib.items) > n {
			ib.items = ib.items[1:]
		}
	}
}

// ClearQueue discards every pending value.
func (ib *Inbox) ClearQueue() {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	ib.items = nil
}

// SetUpdateMode toggles latest-value-only delivery: when enabled, a
// new publication replaces the pending value instead of queueing.
func (ib *Inbox) SetUpdateMode(enabled bool) {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	ib.updateMode = enabled
	if enabled && len(ib.items) > 1 {
		ib.items = ib.items[len(ib.items)-1:]
	}
}

// TryTake pops the oldest pending value without blocking.
func (ib *Inbox) TryTake() (buffer.Buffer, bool) {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	if len(ib.items) == 0 {
		return buffer.Buffer{}, false
	}
	b := ib.items[0]
	ib.items = ib.items[1:]
	return b, true
}

// Take blocks until a value is pending, the inbox is closed, or ctx is
// done.
func (ib *Inbox) Take(ctx context.Context) (buffer.Buffer, error) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			ib.mu.Lock()
			ib.cond.Broadcast()
			ib.mu.Unlock()
		case <-done:
		}
	}()
	defer close(done)

	ib.mu.Lock()
	defer ib.mu.Unlock()
	for len(ib.items) == 0 && !ib.closed {
		if ctx.Err() != nil {
			return buffer.Buffer{}, ctx.Err()
		}
		ib.cond.Wait()
	}
	if len(ib.items) == 0 {
		if ctx.Err() != nil {
			return buffer.Buffer{}, ctx.Err()
		}
		return buffer.Buffer{}, errClosed
	}
	b := ib.items[0]
	ib.items = ib.items[1:]
	return b, nil
}

// Close wakes any blocked Take call; a closed Inbox reports no more
// values.
func (ib *Inbox) Close() {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	ib.closed = true
	ib.cond.Broadcast()
}
