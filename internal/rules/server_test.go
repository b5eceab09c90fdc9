package rules_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmdwarden/cmdwarden/internal/eventbus"
	"github.com/cmdwarden/cmdwarden/internal/rules"
	"github.com/cmdwarden/cmdwarden/pkg/cerr"
)

func newTestRouter(t *testing.T) (*chi.Mux, *eventbus.Bus) {
	t.Helper()
	store, _ := newTestStore(t)
	bus := eventbus.New()
	r := chi.NewRouter()
	r.Use(cerr.NewJSONResponseChiMiddleware())
	rules.NewServer(store, bus).RegisterRoutes(r)
	return r, bus
}

func TestServerAddAndListRules(t *testing.T) {
	router, bus := newTestRouter(t)
	subID, events := bus.Subscribe(4)
	defer bus.Unsubscribe(subID)

	req := httptest.NewRequest(http.MethodPost, "/rules/denylist", strings.NewReader(`{"pattern":"rm -rf *"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.JSONEq(t, `["rm -rf *"]`, string(doc["denylist"]))

	ev := <-events
	assert.Equal(t, eventbus.EventTypeRulesUpdated, ev.Type)
	assert.Equal(t, "denylist", ev.ResourceID)

	req = httptest.NewRequest(http.MethodGet, "/rules", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.JSONEq(t, `["rm -rf *"]`, string(doc["denylist"]))
	assert.Contains(t, doc, "syntax_note")
}

func TestServerRejectsUnknownList(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/rules/blocklist", strings.NewReader(`{"pattern":"x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "InvalidArgument")
}

func TestServerDeleteRule(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/rules/asklist", strings.NewReader(`{"pattern":"git push *"}`))
	router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodDelete, "/rules/asklist?pattern=git+push+%2A", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.JSONEq(t, `[]`, string(doc["asklist"]))
}
