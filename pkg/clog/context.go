// Package clog provides context-scoped structured logging on top of
// log/slog: attributes accumulated on a request context are attached to
// every record emitted with that context.
package clog

import (
	"context"
	"sync"
)

type ctxAttrs struct {
	mu         sync.RWMutex
	attributes map[string]any
}

type ctxAttrsKey struct{}

// ContextWithSlog returns a context carrying an attribute accumulator.
func ContextWithSlog(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxAttrsKey{}, &ctxAttrs{
		attributes: make(map[string]any),
	})
}

// AddAttribute records a key/value pair on the context accumulator.
// No-op if the context has no accumulator.
func AddAttribute(ctx context.Context, key string, value any) {
	a, ok := ctx.Value(ctxAttrsKey{}).(*ctxAttrs)
	if !ok {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attributes[key] = value
}

// AddAttributes merges a map of attributes into the context accumulator.
func AddAttributes(ctx context.Context, attributes map[string]any) {
	a, ok := ctx.Value(ctxAttrsKey{}).(*ctxAttrs)
	if !ok {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for k, v := range attributes {
		a.attributes[k] = v
	}
}

// GetAttribute returns the typed attribute stored under key, or the zero
// value when absent or of a different type.
func GetAttribute[T any](ctx context.Context, key string) T {
	a, ok := ctx.Value(ctxAttrsKey{}).(*ctxAttrs)
	if !ok {
		return *new(T)
	}
	a.mu.RLock()
	iVal, ok := a.attributes[key]
	a.mu.RUnlock()
	if !ok {
		return *new(T)
	}
	val, ok := iVal.(T)
	if !ok {
		return *new(T)
	}
	return val
}

// GetAttributes returns a copy of all accumulated attributes.
func GetAttributes(ctx context.Context) map[string]any {
	a, ok := ctx.Value(ctxAttrsKey{}).(*ctxAttrs)
	if !ok {
		return nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	copied := make(map[string]any, len(a.attributes))
	for k, v := range a.attributes {
		copied[k] = v
	}
	return copied
}

const (
	ErrorAttributeKey = "error.message"
	StackAttributeKey = "error.stack"
)

// AddError records an error on the context for the request log line.
func AddError(ctx context.Context, err error) {
	AddAttribute(ctx, ErrorAttributeKey, err)
}

// GetError returns the error recorded with AddError, if any.
func GetError(ctx context.Context) error {
	return GetAttribute[error](ctx, ErrorAttributeKey)
}

// AddStack records a stack trace on the context for the request log line.
func AddStack(ctx context.Context, stack string) {
	AddAttribute(ctx, StackAttributeKey, stack)
}

// GetStack returns the stack trace recorded with AddStack, if any.
func GetStack(ctx context.Context) string {
	return GetAttribute[string](ctx, StackAttributeKey)
}
