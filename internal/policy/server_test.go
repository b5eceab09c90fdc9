package policy_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmdwarden/cmdwarden/internal/approval"
	"github.com/cmdwarden/cmdwarden/internal/decisionlog"
	decisionlogrepo "github.com/cmdwarden/cmdwarden/internal/decisionlog/repositoryimpl"
	"github.com/cmdwarden/cmdwarden/internal/eventbus"
	"github.com/cmdwarden/cmdwarden/internal/policy"
	"github.com/cmdwarden/cmdwarden/internal/rules"
	rulesrepo "github.com/cmdwarden/cmdwarden/internal/rules/repositoryimpl"
	"github.com/cmdwarden/cmdwarden/pkg/cerr"
	"github.com/cmdwarden/cmdwarden/pkg/storage"
)

func newEvaluateRouter(t *testing.T) (*chi.Mux, *rules.Store, *decisionlog.Recorder) {
	t.Helper()
	local, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	store := rules.NewStore(rulesrepo.NewJSONRepository(local))
	recorder := decisionlog.NewRecorder(decisionlogrepo.NewYAMLRepository(local))
	coordinator := approval.NewCoordinator(eventbus.New(), time.Second)
	server := policy.NewServer(policy.NewEvaluator(store), recorder, coordinator, policy.ModeStandard)

	r := chi.NewRouter()
	r.Use(cerr.NewJSONResponseChiMiddleware())
	server.RegisterRoutes(r)
	return r, store, recorder
}

func TestEvaluateEndpoint(t *testing.T) {
	router, store, _ := newEvaluateRouter(t)
	_, err := store.AddRule(context.Background(), rules.Denylist, "rm -rf *")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/evaluate", strings.NewReader(`{"command":"ls && rm -rf /tmp/x","mode":"smart"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Decision string `json:"decision"`
		Entries  []struct {
			Decision    string `json:"decision"`
			MatchedRule string `json:"matched_rule"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "deny", resp.Decision)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "allow", resp.Entries[0].Decision)
	assert.Equal(t, "deny", resp.Entries[1].Decision)
	assert.Equal(t, "rm -rf *", resp.Entries[1].MatchedRule)
}

func TestEvaluateEndpointRecordsDecision(t *testing.T) {
	router, _, recorder := newEvaluateRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/evaluate", strings.NewReader(`{"command":"ls","mode":"safe"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	records, total, err := recorder.List(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, records, 1)
	assert.Equal(t, "ls", records[0].Command)
	assert.Equal(t, "deny", records[0].Decision)
	assert.Equal(t, "safe", records[0].Mode)
}

func TestEvaluateEndpointRejectsUnparseableCommand(t *testing.T) {
	router, _, _ := newEvaluateRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/evaluate", strings.NewReader(`{"command":"echo \"unterminated"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not parseable")
}

func TestEvaluateEndpointResolveAskWithoutResponder(t *testing.T) {
	router, _, _ := newEvaluateRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/evaluate", strings.NewReader(`{"command":"mystery-tool run","resolveAsk":true}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Contains(t, rec.Body.String(), "no approval responder")
}

func TestListDecisionsEndpoint(t *testing.T) {
	router, _, recorder := newEvaluateRouter(t)
	recorder.Record(context.Background(), &decisionlog.Record{Command: "ls", Decision: "allow", Mode: "smart"})

	req := httptest.NewRequest(http.MethodGet, "/decisions?limit=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Decisions []decisionlog.Record `json:"decisions"`
		Total     int                  `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Decisions, 1)
	assert.Equal(t, "ls", resp.Decisions[0].Command)
}
