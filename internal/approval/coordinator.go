package approval

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cmdwarden/cmdwarden/internal/eventbus"
)

var (
	// ErrNoWaiter is returned when approval is requested before any
	// responder registered, so the caller can fall back to a denial
	// instead of blocking forever.
	ErrNoWaiter = errors.New("no approval waiter registered")

	// ErrAborted is returned when the requesting context is canceled
	// before a verdict arrives.
	ErrAborted = errors.New("approval request aborted")
)

// Coordinator runs the ask flow: it publishes a command_ask event,
// tracks the request as pending, and blocks until the registered waiter
// produces a verdict or the request is abandoned. Every failure path
// resolves to a denial.
type Coordinator struct {
	bus     *eventbus.Bus
	timeout time.Duration

	mu      sync.Mutex
	waiter  FeedbackWaiter
	pending map[string]*Request
}

func NewCoordinator(bus *eventbus.Bus, timeout time.Duration) *Coordinator {
	return &Coordinator{
		bus:     bus,
		timeout: timeout,
		pending: make(map[string]*Request),
	}
}

// RegisterWaiter installs the responder used for all subsequent
// requests. Registering replaces any previous waiter.
func (c *Coordinator) RegisterWaiter(w FeedbackWaiter) {
	c.mu.Lock()
	c.waiter = w
	c.mu.Unlock()
}

// Pending lists requests currently awaiting a verdict, oldest first.
func (c *Coordinator) Pending() []*Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]*Request, 0, len(c.pending))
	for _, req := range c.pending {
		result = append(result, req)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Request blocks until the command is approved or denied. It returns
// true only for an explicit "allow" verdict; timeouts and unrecognized
// decisions deny. Context cancellation returns ErrAborted even when a
// verdict races in at the same moment.
func (c *Coordinator) Request(ctx context.Context, req *Request) (bool, error) {
	c.mu.Lock()
	waiter := c.waiter
	if waiter == nil {
		c.mu.Unlock()
		return false, ErrNoWaiter
	}
	if req.MessageID == "" {
		req.MessageID = ulid.Make().String()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	c.pending[req.MessageID] = req
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, req.MessageID)
		c.mu.Unlock()
	}()

	c.bus.PublishNew(eventbus.EventTypeCommandAsk, req.MessageID, req.Command, map[string]string{
		"session_id": req.SessionID,
		"tool_name":  req.ToolName,
	})
	slog.InfoContext(ctx, "awaiting approval",
		slog.String("message_id", req.MessageID),
		slog.String("command", req.Command))

	type verdict struct {
		payload *FeedbackPayload
		err     error
	}
	ch := make(chan verdict, 1)
	go func() {
		payload, err := waiter(ctx, req.MessageID, c.timeout)
		ch <- verdict{payload: payload, err: err}
	}()

	select {
	case <-ctx.Done():
		return false, ErrAborted
	case v := <-ch:
		if ctx.Err() != nil {
			return false, ErrAborted
		}
		if v.err != nil {
			if errors.Is(v.err, context.Canceled) || errors.Is(v.err, context.DeadlineExceeded) {
				return false, ErrAborted
			}
			return false, v.err
		}
		if v.payload == nil {
			slog.WarnContext(ctx, "approval timed out, denying",
				slog.String("message_id", req.MessageID))
			return false, nil
		}
		return v.payload.Decision == "allow", nil
	}
}
