package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyconsole/vyconsole/internal/audit"
	"github.com/vyconsole/vyconsole/internal/opbuilder"
	"github.com/vyconsole/vyconsole/internal/vyos"
	"github.com/vyconsole/vyconsole/internal/vyosapi"
)

type call struct {
	Path string
	Body map[string]any
}

// fakeRouter is an in-memory management API. Config documents are served
// as stored; a batch may swap in a follow-up document to simulate the
// router applying it.
type fakeRouter struct {
	mu         sync.Mutex
	configs    map[string]string
	afterBatch map[string]string
	caps       map[string]string
	batchReply string
	calls      []call
}

func newFakeRouter(t *testing.T) (*fakeRouter, *vyosapi.Client) {
	t.Helper()
	f := &fakeRouter{
		configs:    map[string]string{},
		afterBatch: map[string]string{},
		caps:       map[string]string{},
		batchReply: `{"success":true}`,
	}

	r := chi.NewRouter()
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if path, ok := strings.CutSuffix(r.URL.Path, "/capabilities"); ok {
			doc, found := f.caps[path]
			if !found {
				http.Error(w, `{"detail":"capabilities unavailable"}`, http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(doc))
			return
		}
		if path, ok := strings.CutSuffix(r.URL.Path, "/config"); ok {
			doc, found := f.configs[path]
			if !found {
				doc = "[]"
			}
			_, _ = w.Write([]byte(doc))
			return
		}
		http.NotFound(w, r)
	})
	r.Post("/*", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var body map[string]any
		if len(data) > 0 {
			if err := json.Unmarshal(data, &body); err != nil {
				t.Errorf("request body is not JSON: %v", err)
			}
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls = append(f.calls, call{Path: r.URL.Path, Body: body})
		if path, ok := strings.CutSuffix(r.URL.Path, "/batch"); ok {
			if next, ok := f.afterBatch[path]; ok {
				f.configs[path] = next
				delete(f.afterBatch, path)
			}
			_, _ = w.Write([]byte(f.batchReply))
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	client := vyosapi.NewClient(server.URL)
	client.MaxRetries = 1
	client.RetryDelay = time.Millisecond
	client.MaxRetryDelay = time.Millisecond
	return f, client
}

func (f *fakeRouter) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Path)
	}
	return out
}

func (f *fakeRouter) body(i int) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i].Body
}

// memAudit keeps events in memory.
type memAudit struct {
	mu     sync.Mutex
	events []*audit.Event
}

func (m *memAudit) Log(e *audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memAudit) Query(audit.Filter) ([]*audit.Event, error) { return m.events, nil }
func (m *memAudit) Close() error                               { return nil }

func fastVerify() *vyosapi.VerificationOptions {
	return &vyosapi.VerificationOptions{MaxRetries: 1, RetryDelay: time.Millisecond, MaxRetryDelay: time.Millisecond}
}

const ethConfig = `{"interfaces":[
	{"name":"eth0","addresses":["192.0.2.1/24"]},
	{"name":"eth2","addresses":["203.0.113.2/30"],"mtu":"1500"}
]}`

func TestSubmit_DescriptionOnlyChange(t *testing.T) {
	router, client := newFakeRouter(t)
	router.configs["/vyos/ethernet"] = ethConfig
	router.caps["/vyos/ethernet"] = `{"version":"1.4","features":{"mac":true}}`
	log := &memAudit{}

	ed, err := Open(context.Background(), client, Of(vyos.Ethernet), vyos.Key{"interface": "eth2"},
		WithAudit(log), WithProfile("lab"), WithTarget("https://r1"))
	require.NoError(t, err)
	assert.Equal(t, ModeEdit, ed.Mode())

	require.NoError(t, ed.Set("description=WAN"))
	assert.Equal(t, opbuilder.Plan{opbuilder.SetValue("set_description", "WAN")}, ed.Plan())

	result, err := ed.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, []string{"/vyos/ethernet/batch", vyosapi.RefreshPath}, router.paths())
	assert.Equal(t, map[string]any{
		"interface":  "eth2",
		"operations": []any{map[string]any{"op": "set_description", "value": "WAN"}},
	}, router.body(0))

	require.Len(t, log.events, 1)
	assert.Equal(t, "lab", log.events[0].Profile)
	assert.Equal(t, audit.EventTypeApply, log.events[0].Type)
	assert.True(t, log.events[0].Success)

	// The submitted state is the new baseline.
	assert.True(t, ed.Plan().IsEmpty())
}

func TestSubmit_CreateModeSendsNumericKeys(t *testing.T) {
	router, client := newFakeRouter(t)
	router.caps["/vyos/vif"] = `{"features":{}}`

	ed, err := Open(context.Background(), client, Of(vyos.VLAN), vyos.Key{"interface": "eth1", "vlan_id": "10"}, WithAudit(&memAudit{}))
	require.NoError(t, err)
	assert.Equal(t, ModeCreate, ed.Mode())

	require.NoError(t, ed.Set("addresses=10.10.0.1/24"))
	require.NoError(t, ed.Set("vrf=MGMT"))
	result, err := ed.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ModeCreate, result.Mode)
	assert.Equal(t, ModeEdit, ed.Mode())

	body := router.body(0)
	assert.Equal(t, float64(10), body["vlan_id"])
	// vrf is gated and the matrix does not enable it.
	assert.Equal(t, []any{map[string]any{"op": "set_address", "value": "10.10.0.1/24"}}, body["operations"])
}

func TestSubmit_EmptyPlanSendsNothing(t *testing.T) {
	router, client := newFakeRouter(t)
	router.configs["/vyos/ethernet"] = ethConfig
	router.caps["/vyos/ethernet"] = `{}`

	ed, err := Open(context.Background(), client, Of(vyos.Ethernet), vyos.Key{"interface": "eth0"}, WithAudit(&memAudit{}))
	require.NoError(t, err)

	result, err := ed.Submit(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Empty(t, router.paths())
}

func TestSubmit_ValidationNeverReachesNetwork(t *testing.T) {
	router, client := newFakeRouter(t)
	router.configs["/vyos/ethernet"] = ethConfig
	router.caps["/vyos/ethernet"] = `{}`

	ed, err := Open(context.Background(), client, Of(vyos.Ethernet), vyos.Key{"interface": "eth0"}, WithAudit(&memAudit{}))
	require.NoError(t, err)
	require.NoError(t, ed.Set("mtu=12"))

	_, err = ed.Submit(context.Background())
	var formErr *FormError
	require.ErrorAs(t, err, &formErr)
	assert.Equal(t, "mtu", formErr.Errors[0].FieldPath)
	assert.Empty(t, router.paths())
}

func TestSubmit_ApplicationFailure(t *testing.T) {
	router, client := newFakeRouter(t)
	router.configs["/vyos/ethernet"] = ethConfig
	router.caps["/vyos/ethernet"] = `{}`
	router.batchReply = `{"success":false,"error":"commit failed"}`
	log := &memAudit{}

	ed, err := Open(context.Background(), client, Of(vyos.Ethernet), vyos.Key{"interface": "eth0"}, WithAudit(log))
	require.NoError(t, err)
	require.NoError(t, ed.Set("description=LAN"))

	_, err = ed.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, vyosapi.IsApplicationError(err))
	assert.Equal(t, []string{"/vyos/ethernet/batch"}, router.paths(), "refresh must be skipped")
	require.Len(t, log.events, 1)
	assert.False(t, log.events[0].Success)
	assert.Contains(t, log.events[0].Error, "commit failed")
}

func TestOpen_MissingCapabilitiesSuppressGatedFields(t *testing.T) {
	router, client := newFakeRouter(t)
	router.configs["/vyos/ethernet"] = ethConfig

	ed, err := Open(context.Background(), client, Of(vyos.Ethernet), vyos.Key{"interface": "eth0"})
	require.NoError(t, err)
	assert.Nil(t, ed.Capabilities())

	require.NoError(t, ed.Set("mac=00:11:22:33:44:55"))
	assert.True(t, ed.Plan().IsEmpty())
	require.NoError(t, ed.Set("mtu=9000"))
	assert.Equal(t, opbuilder.Plan{opbuilder.SetValue("set_mtu", "9000")}, ed.Plan())
}

func TestOpen_ConfigFailure(t *testing.T) {
	_, client := newFakeRouter(t)
	_, err := Open(context.Background(), client, Of(vyos.Ethernet), vyos.Key{"iface": "eth0"})
	require.Error(t, err)
}

const prefixConfig = `{"rules":[
	{"name":"PL","rule":105,"action":"permit","prefix":"10.0.0.0/8"},
	{"name":"PL","rule":106,"action":"permit","prefix":"10.1.0.0/16"},
	{"name":"PL","rule":107,"action":"deny","prefix":"10.2.0.0/16"},
	{"name":"PL","rule":108,"action":"permit","prefix":"0.0.0.0/0"},
	{"name":"OTHER","rule":5,"action":"permit","prefix":"192.0.2.0/24"}
]}`

func TestDelete_GapTriggersReorder(t *testing.T) {
	router, client := newFakeRouter(t)
	router.configs["/vyos/prefix-list"] = prefixConfig

	result, err := Delete(context.Background(), client, Of(vyos.PrefixLists), vyos.Key{"name": "PL", "rule": "106"}, WithAudit(&memAudit{}))
	require.NoError(t, err)
	assert.True(t, result.Reordered)
	assert.Equal(t, []string{"/vyos/prefix-list/reorder", vyosapi.RefreshPath}, router.paths())

	body := router.body(0)
	assert.Equal(t, "PL", body["name"])
	rules := body["rules"].([]any)
	require.Len(t, rules, 3)
	var pairs [][2]float64
	for _, r := range rules {
		m := r.(map[string]any)
		pairs = append(pairs, [2]float64{m["old_number"].(float64), m["new_number"].(float64)})
	}
	assert.Equal(t, [][2]float64{{105, 105}, {107, 106}, {108, 107}}, pairs)
	assert.Equal(t, "deny", rules[1].(map[string]any)["rule_data"].(map[string]any)["action"])
}

func TestDelete_LastRuleIsDirect(t *testing.T) {
	router, client := newFakeRouter(t)
	router.configs["/vyos/prefix-list"] = prefixConfig

	result, err := Delete(context.Background(), client, Of(vyos.PrefixLists), vyos.Key{"name": "PL", "rule": "108"}, WithAudit(&memAudit{}))
	require.NoError(t, err)
	assert.False(t, result.Reordered)
	assert.Equal(t, []string{"/vyos/prefix-list/batch", vyosapi.RefreshPath}, router.paths())
	assert.Equal(t, map[string]any{
		"name":       "PL",
		"rule":       float64(108),
		"operations": []any{map[string]any{"op": "delete_rule"}},
	}, router.body(0))
}

func TestDelete_Errors(t *testing.T) {
	router, client := newFakeRouter(t)
	router.configs["/vyos/prefix-list"] = prefixConfig

	_, err := Delete(context.Background(), client, Of(vyos.Ethernet), vyos.Key{"interface": "eth0"})
	assert.ErrorIs(t, err, ErrNotDeletable)

	_, err = Delete(context.Background(), client, Of(vyos.PrefixLists), vyos.Key{"name": "PL", "rule": "999"}, WithAudit(&memAudit{}))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, router.paths())
}

func TestMove(t *testing.T) {
	router, client := newFakeRouter(t)
	router.configs["/vyos/prefix-list"] = prefixConfig

	result, err := Move(context.Background(), client, Of(vyos.PrefixLists), "PL", 108, 0, WithAudit(&memAudit{}))
	require.NoError(t, err)
	require.True(t, result.Changed())
	assert.Equal(t, 108, result.Moves[0].OldNumber)
	assert.Equal(t, 105, result.Moves[0].NewNumber)
	assert.Equal(t, []string{"/vyos/prefix-list/reorder", vyosapi.RefreshPath}, router.paths())

	router.calls = nil
	result, err = Move(context.Background(), client, Of(vyos.PrefixLists), "PL", 105, 0)
	require.NoError(t, err)
	assert.False(t, result.Changed())
	assert.Empty(t, router.paths())

	_, err = Move(context.Background(), client, Of(vyos.StaticRoutes), "x", 1, 0)
	assert.ErrorIs(t, err, ErrNotReorderable)
}

func TestVerifyAndSafeSubmit(t *testing.T) {
	t.Run("verified", func(t *testing.T) {
		router, client := newFakeRouter(t)
		router.configs["/vyos/ethernet"] = ethConfig
		router.caps["/vyos/ethernet"] = `{}`
		router.afterBatch["/vyos/ethernet"] = `{"interfaces":[{"name":"eth2","description":"WAN","addresses":["203.0.113.2/30"],"mtu":"1500"}]}`

		ed, err := Open(context.Background(), client, Of(vyos.Ethernet), vyos.Key{"interface": "eth2"}, WithAudit(&memAudit{}))
		require.NoError(t, err)
		require.NoError(t, ed.Set("description=WAN"))

		res := ed.SafeSubmit(context.Background(), fastVerify())
		require.NoError(t, res.Error)
		assert.True(t, res.Success)
		assert.False(t, res.RollbackAttempted)
		assert.Contains(t, res.String(), "verified")
	})

	t.Run("reverted", func(t *testing.T) {
		router, client := newFakeRouter(t)
		router.configs["/vyos/ethernet"] = `{"interfaces":[{"name":"eth2","description":"old"}]}`
		router.caps["/vyos/ethernet"] = `{}`
		log := &memAudit{}

		ed, err := Open(context.Background(), client, Of(vyos.Ethernet), vyos.Key{"interface": "eth2"}, WithAudit(log))
		require.NoError(t, err)
		require.NoError(t, ed.Set("description="))

		res := ed.SafeSubmit(context.Background(), fastVerify())
		require.Error(t, res.Error)
		assert.True(t, res.RollbackAttempted)
		assert.True(t, res.RollbackSucceeded)
		assert.Equal(t, opbuilder.Plan{opbuilder.SetValue("set_description", "old")}, res.Rollback.Plan)
		assert.Equal(t, []string{
			"/vyos/ethernet/batch", vyosapi.RefreshPath,
			"/vyos/ethernet/batch", vyosapi.RefreshPath,
		}, router.paths())
		require.Len(t, log.events, 2)
		assert.Equal(t, audit.EventTypeRevert, log.events[1].Type)
	})
}

func TestRevertPlan_CreateDeletes(t *testing.T) {
	_, client := newFakeRouter(t)
	ed, err := Open(context.Background(), client, Of(vyos.StaticRoutes), vyos.Key{"destination": "10.0.0.0/8"}, WithAudit(&memAudit{}))
	require.NoError(t, err)

	_, err = ed.RevertPlan()
	assert.ErrorIs(t, err, ErrNothingSubmitted)

	require.NoError(t, ed.Set("next_hops=192.0.2.1"))
	_, err = ed.Submit(context.Background())
	require.NoError(t, err)

	plan, err := ed.RevertPlan()
	require.NoError(t, err)
	assert.Equal(t, opbuilder.Plan{opbuilder.Set("delete_route")}, plan)
}

func TestOverlay(t *testing.T) {
	router, client := newFakeRouter(t)
	router.configs["/vyos/ethernet"] = ethConfig
	router.caps["/vyos/ethernet"] = `{}`

	ed, err := Open(context.Background(), client, Of(vyos.Ethernet), vyos.Key{"interface": "eth0"})
	require.NoError(t, err)

	require.NoError(t, ed.Overlay(func(into any) error {
		return json.Unmarshal([]byte(`{"description":"from file"}`), into)
	}))
	assert.Equal(t, "from file", ed.Form().(*vyos.EthernetForm).Description)

	boom := errors.New("boom")
	assert.ErrorIs(t, ed.Overlay(func(any) error { return boom }), boom)
}

func TestLookup(t *testing.T) {
	c, err := Lookup("prefix-list")
	require.NoError(t, err)
	assert.True(t, c.Info().Reorderable())

	_, err = Lookup("bgp")
	assert.ErrorContains(t, err, "available:")

	seen := map[string]bool{}
	for _, k := range Kinds() {
		assert.False(t, seen[k.Info().Name], "duplicate %s", k.Info().Name)
		seen[k.Info().Name] = true
	}
	assert.Len(t, seen, 14)
}

func TestList(t *testing.T) {
	router, client := newFakeRouter(t)
	router.configs["/vyos/prefix-list"] = prefixConfig

	entries, err := Of(vyos.PrefixLists).List(context.Background(), client, false)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.Equal(t, vyos.Key{"name": "OTHER", "rule": "5"}, entries[4].Key)
}
