package approval

import (
	"context"
	"sync"
	"time"
)

// Responder matches delivered verdicts to waiting requests. A verdict
// that arrives before anyone waits for it is buffered in pending so the
// register/deliver race can go either way.
type Responder struct {
	mu      sync.Mutex
	waiters map[string]chan *FeedbackPayload
	pending map[string]*FeedbackPayload
}

func NewResponder() *Responder {
	return &Responder{
		waiters: make(map[string]chan *FeedbackPayload),
		pending: make(map[string]*FeedbackPayload),
	}
}

// Register returns a channel that will receive the verdict for the given
// message ID. If a verdict already arrived it is sent immediately.
func (r *Responder) Register(messageID string) <-chan *FeedbackPayload {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan *FeedbackPayload, 1)
	if payload, ok := r.pending[messageID]; ok {
		ch <- payload
		delete(r.pending, messageID)
	} else {
		r.waiters[messageID] = ch
	}
	return ch
}

// Unregister removes any waiter or buffered verdict for the message ID.
func (r *Responder) Unregister(messageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.waiters, messageID)
	delete(r.pending, messageID)
}

// Deliver hands a verdict to its waiter, or buffers it if nobody is
// waiting yet.
func (r *Responder) Deliver(payload *FeedbackPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := payload.MessageID
	if ch, ok := r.waiters[id]; ok {
		ch <- payload
		delete(r.waiters, id)
	} else {
		r.pending[id] = payload
	}
}

// Wait is the FeedbackWaiter backed by this responder. A timeout returns
// a nil payload, which the coordinator treats as a denial.
func (r *Responder) Wait(ctx context.Context, messageID string, timeout time.Duration) (*FeedbackPayload, error) {
	ch := r.Register(messageID)
	defer r.Unregister(messageID)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, nil
	case payload := <-ch:
		return payload, nil
	}
}
