package vyosapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vyconsole/vyconsole/internal/opbuilder"
)

type recorded struct {
	path string
	body map[string]any
}

// newFakeAPI serves the ethernet category and records every POST.
func newFakeAPI(t *testing.T, batchStatus int, batchBody string) (*httptest.Server, *[]recorded) {
	t.Helper()

	var calls []recorded
	record := func(r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var body map[string]any
		if len(data) > 0 {
			if err := json.Unmarshal(data, &body); err != nil {
				t.Errorf("request body is not JSON: %v", err)
			}
		}
		calls = append(calls, recorded{path: r.URL.Path, body: body})
	}

	r := chi.NewRouter()
	r.Get("/vyos/ethernet/capabilities", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version":"1.4","features":{"arp":false,"mac":true}}`))
	})
	r.Get("/vyos/ethernet/config", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"interfaces":[{"name":"eth0","refresh":"` + r.URL.Query().Get("refresh") + `"}]}`))
	})
	r.Post("/vyos/ethernet/batch", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.WriteHeader(batchStatus)
		_, _ = w.Write([]byte(batchBody))
	})
	r.Post("/vyos/prefix-list/reorder", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	r.Post(RefreshPath, func(w http.ResponseWriter, r *http.Request) {
		record(r)
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, &calls
}

func testClient(url string) *Client {
	c := NewClient(url)
	c.RetryDelay = time.Millisecond
	c.MaxRetryDelay = 5 * time.Millisecond
	return c
}

func TestNewClient(t *testing.T) {
	client := NewClient("https://router.lan:8443/")

	if client.BaseURL != "https://router.lan:8443" {
		t.Errorf("BaseURL = %s, want trailing slash trimmed", client.BaseURL)
	}
	if client.HTTPClient.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", client.HTTPClient.Timeout, DefaultTimeout)
	}

	client.SetTimeout(5 * time.Second)
	if client.HTTPClient.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", client.HTTPClient.Timeout)
	}
}

func TestApplyBatch_SendsBatchThenRefresh(t *testing.T) {
	server, calls := newFakeAPI(t, http.StatusOK, `{"success":true}`)
	client := testClient(server.URL)

	plan := opbuilder.Plan{opbuilder.SetValue("set_description", "WAN")}
	_, err := client.ApplyBatch(context.Background(), "/vyos/ethernet", NewBatchRequest(map[string]any{"interface": "eth2"}, plan))
	if err != nil {
		t.Fatalf("ApplyBatch() error = %v", err)
	}

	if len(*calls) != 2 {
		t.Fatalf("expected 2 POSTs, got %d", len(*calls))
	}
	batch := (*calls)[0]
	if batch.path != "/vyos/ethernet/batch" {
		t.Errorf("first call = %s, want batch", batch.path)
	}
	if batch.body["interface"] != "eth2" {
		t.Errorf("interface key = %v, want eth2", batch.body["interface"])
	}
	ops, _ := batch.body["operations"].([]any)
	if len(ops) != 1 {
		t.Fatalf("operations = %v, want one entry", batch.body["operations"])
	}
	op := ops[0].(map[string]any)
	if op["op"] != "set_description" || op["value"] != "WAN" {
		t.Errorf("operation = %v", op)
	}
	if (*calls)[1].path != RefreshPath {
		t.Errorf("second call = %s, want refresh", (*calls)[1].path)
	}
}

func TestApplyBatch_ApplicationFailureSkipsRefresh(t *testing.T) {
	server, calls := newFakeAPI(t, http.StatusOK, `{"success":false,"error":"Commit failed: invalid MTU"}`)
	client := testClient(server.URL)

	_, err := client.ApplyBatch(context.Background(), "/vyos/ethernet", NewBatchRequest(map[string]any{"interface": "eth2"}, nil))
	if err == nil {
		t.Fatal("expected error for success=false")
	}
	if !IsApplicationError(err) {
		t.Errorf("expected application error, got %v", err)
	}
	apiErr, _ := asAPIError(err)
	if apiErr.Message != "Commit failed: invalid MTU" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if len(*calls) != 1 {
		t.Errorf("refresh must not run after a failed batch, calls = %d", len(*calls))
	}
}

func TestBatch_HTTPErrorNotRetried(t *testing.T) {
	server, calls := newFakeAPI(t, http.StatusInternalServerError, `{"detail":"configuration locked"}`)
	client := testClient(server.URL)

	_, err := client.Batch(context.Background(), "/vyos/ethernet", NewBatchRequest(nil, nil))
	if !IsHTTPError(err) {
		t.Fatalf("expected HTTP error, got %v", err)
	}
	apiErr, _ := asAPIError(err)
	if apiErr.Status != 500 || apiErr.Message != "configuration locked" {
		t.Errorf("got status %d message %q", apiErr.Status, apiErr.Message)
	}
	if len(*calls) != 1 {
		t.Errorf("POST was sent %d times, want exactly once", len(*calls))
	}
}

func TestGetCapabilities_Cached(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`{"features":{"arp":true}}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	for i := 0; i < 3; i++ {
		m, err := client.GetCapabilities(context.Background(), "/vyos/ethernet")
		if err != nil {
			t.Fatalf("GetCapabilities() error = %v", err)
		}
		if !m.Supports("arp") {
			t.Error("expected arp support")
		}
	}
	if hits != 1 {
		t.Errorf("server hit %d times, want 1", hits)
	}

	client.InvalidateCache()
	if _, err := client.GetCapabilities(context.Background(), "/vyos/ethernet"); err != nil {
		t.Fatal(err)
	}
	if hits != 2 {
		t.Errorf("server hit %d times after invalidate, want 2", hits)
	}
}

func TestGetConfig_RefreshFlag(t *testing.T) {
	server, _ := newFakeAPI(t, http.StatusOK, "")
	client := testClient(server.URL)

	body, err := client.GetConfig(context.Background(), "/vyos/ethernet", true)
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	var parsed struct {
		Interfaces []struct {
			Refresh string `json:"refresh"`
		} `json:"interfaces"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatal(err)
	}
	if parsed.Interfaces[0].Refresh != "true" {
		t.Errorf("refresh query = %q, want true", parsed.Interfaces[0].Refresh)
	}
}

func TestGetConfig_RetriesServerErrors(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	if _, err := client.GetConfig(context.Background(), "/vyos/nat/source", false); err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if hits != 3 {
		t.Errorf("hits = %d, want 3", hits)
	}
}

func TestGetConfig_ClientErrorNotRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<html><head><title>404 Not Found</title></head><body><h1>Not Found</h1></body></html>`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.GetConfig(context.Background(), "/vyos/unknown", false)
	apiErr, ok := asAPIError(err)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "404 Not Found" {
		t.Errorf("Message = %q, want page title", apiErr.Message)
	}
	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
}

func TestReorder_Envelope(t *testing.T) {
	server, calls := newFakeAPI(t, http.StatusOK, "")
	client := testClient(server.URL)

	req := &ReorderRequest{
		ListKey: "name",
		List:    "PL-IN",
		Rules: []RuleMove{
			{OldNumber: 20, NewNumber: 10, RuleData: json.RawMessage(`{"action":"permit"}`)},
		},
	}
	if _, err := client.ApplyReorder(context.Background(), "/vyos/prefix-list", req); err != nil {
		t.Fatalf("ApplyReorder() error = %v", err)
	}

	body := (*calls)[0].body
	if body["name"] != "PL-IN" {
		t.Errorf("name = %v", body["name"])
	}
	rules := body["rules"].([]any)
	rule := rules[0].(map[string]any)
	if rule["old_number"] != float64(20) || rule["new_number"] != float64(10) {
		t.Errorf("rule = %v", rule)
	}
	if rule["rule_data"].(map[string]any)["action"] != "permit" {
		t.Errorf("rule_data = %v", rule["rule_data"])
	}
}

func TestPing_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := testClient(url)
	err := client.Ping(context.Background())
	if !IsNetworkError(err) {
		t.Errorf("expected network error, got %v", err)
	}
}

func TestPing_NotFoundIsReachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	if err := testClient(server.URL).Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
