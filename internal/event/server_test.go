package event

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmdwarden/cmdwarden/internal/eventbus"
)

func TestStreamDeliversEvents(t *testing.T) {
	bus := eventbus.New()
	r := chi.NewRouter()
	NewServer(bus).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// wait for the subscription to be installed before publishing
	time.Sleep(100 * time.Millisecond)
	bus.PublishNew(eventbus.EventTypeRulesChanged, "rules.json", "", nil)

	buf := make([]byte, 4096)
	n, err := resp.Body.Read(buf)
	require.NoError(t, err)
	body := string(buf[:n])
	assert.True(t, strings.HasPrefix(body, "event: rules_changed\n"), "unexpected frame: %q", body)
	assert.Contains(t, body, `"resourceId":"rules.json"`)
}
