package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishFanOut(t *testing.T) {
	bus := New()
	id1, ch1 := bus.Subscribe(4)
	id2, ch2 := bus.Subscribe(4)
	defer bus.Unsubscribe(id1)
	defer bus.Unsubscribe(id2)

	bus.PublishNew(EventTypeRulesChanged, "rules.json", "", nil)

	ev1 := <-ch1
	ev2 := <-ch2
	assert.Equal(t, EventTypeRulesChanged, ev1.Type)
	assert.Equal(t, ev1.ID, ev2.ID)
	assert.Equal(t, "rules.json", ev1.ResourceID)
	assert.False(t, ev1.CreatedAt.IsZero())
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	bus := New()
	id, ch := bus.Subscribe(1)
	defer bus.Unsubscribe(id)

	bus.PublishNew(EventTypeCommandAsk, "a", "", nil)
	bus.PublishNew(EventTypeCommandAsk, "b", "", nil)

	ev := <-ch
	assert.Equal(t, "a", ev.ResourceID)
	select {
	case ev := <-ch:
		t.Fatalf("expected second event to be dropped, got %q", ev.ResourceID)
	default:
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := New()
	id, ch := bus.Subscribe(1)
	bus.Unsubscribe(id)

	_, open := <-ch
	require.False(t, open)

	// publishing after unsubscribe must not panic
	bus.PublishNew(EventTypeRulesChanged, "rules.json", "", nil)
}
