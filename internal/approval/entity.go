// Package approval coordinates ask-decisions that need a human answer:
// the evaluator requests approval, a responder (web UI, CLI) delivers
// the verdict, and the coordinator resolves the race between them.
package approval

import (
	"context"
	"time"
)

// Request is one command awaiting a human decision. MessageID is the
// correlation key between the ask event and the eventual response.
type Request struct {
	SessionID string    `json:"sessionId"`
	MessageID string    `json:"messageId"`
	Command   string    `json:"command"`
	ToolName  string    `json:"toolName,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// FeedbackPayload is the human verdict for one request. Any decision
// other than "allow" denies the command.
type FeedbackPayload struct {
	MessageID string `json:"messageId"`
	Decision  string `json:"decision"`
}

// FeedbackWaiter blocks until a verdict for messageID arrives or the
// timeout elapses. A nil payload with nil error means nobody answered.
type FeedbackWaiter func(ctx context.Context, messageID string, timeout time.Duration) (*FeedbackPayload, error)
