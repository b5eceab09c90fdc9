package approval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponderDeliverBeforeRegister(t *testing.T) {
	r := NewResponder()
	r.Deliver(&FeedbackPayload{MessageID: "m1", Decision: "allow"})

	payload, err := r.Wait(context.Background(), "m1", time.Second)
	require.NoError(t, err)
	require.NotNil(t, payload)
	assert.Equal(t, "allow", payload.Decision)
}

func TestResponderWaitTimeout(t *testing.T) {
	r := NewResponder()

	payload, err := r.Wait(context.Background(), "m1", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestResponderUnregisterDropsBufferedVerdict(t *testing.T) {
	r := NewResponder()
	r.Deliver(&FeedbackPayload{MessageID: "m1", Decision: "allow"})
	r.Unregister("m1")

	payload, err := r.Wait(context.Background(), "m1", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, payload)
}
