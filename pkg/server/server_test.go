package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/supportree/pkg/errors"
	"github.com/matzehuels/supportree/pkg/observability"
	"github.com/matzehuels/supportree/pkg/pipeline"
	"github.com/matzehuels/supportree/pkg/problem"
	"github.com/matzehuels/supportree/pkg/store"
)

const diamondJSON = `{
  "name": "diamond",
  "nodes": 4,
  "edges": [[0, 1], [0, 2], [1, 3], [2, 3]],
  "search": {"max_depth": 2, "l1_quota": 2}
}`

const diamondTOML = `
name = "diamond"
nodes = 4
edges = [[0, 1], [0, 2], [1, 3], [2, 3]]

[search]
max_depth = 2
l1_quota = 2
`

func newTestServer(t *testing.T, opts Options) (*Server, store.Store) {
	t.Helper()
	st := store.NewMemoryStore()
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	runner := pipeline.NewRunner(nil, nil, opts.Logger)
	return New(runner, st, opts), st
}

func do(t *testing.T, s *Server, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func createRun(t *testing.T, s *Server) *problem.Result {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/v1/runs", "application/json", diamondJSON)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /v1/runs = %d %s, want 201", rec.Code, rec.Body.String())
	}
	res := decodeBody[problem.Result](t, rec)
	if got, want := rec.Header().Get("Location"), "/v1/runs/"+res.ID; got != want {
		t.Errorf("Location = %q, want %q", got, want)
	}
	return &res
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	rec := do(t, s, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	h := decodeBody[healthResponse](t, rec)
	if h.Status != "ok" || h.Build.Version == "" {
		t.Errorf("health = %+v", h)
	}
}

func TestCreateRun(t *testing.T) {
	s, st := newTestServer(t, Options{})
	res := createRun(t, s)

	if res.Name != "diamond" || len(res.Trees) != 2 || res.Candidates != 2 {
		t.Errorf("result = %s trees=%d candidates=%d", res.Name, len(res.Trees), res.Candidates)
	}
	if _, err := st.Get(t.Context(), res.ID); err != nil {
		t.Errorf("stored run: %v", err)
	}
}

func TestCreateRunTOML(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	rec := do(t, s, http.MethodPost, "/v1/runs", "application/toml; charset=utf-8", diamondTOML)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d %s, want 201", rec.Code, rec.Body.String())
	}
	if res := decodeBody[problem.Result](t, rec); len(res.Trees) != 2 {
		t.Errorf("trees = %d, want 2", len(res.Trees))
	}
}

func TestCreateRunErrors(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		status      int
		code        errors.Code
	}{
		{"bad json", "application/json", "{", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown field", "application/json", `{"nodes": 2, "colour": 1}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"no edges", "application/json", `{"nodes": 3}`, http.StatusBadRequest, errors.ErrCodeInvalidGraph},
		{"bad bounds", "application/json", `{"nodes": 2, "edges": [[0, 1]], "search": {"max_depth": -1}}`, http.StatusBadRequest, errors.ErrCodeInvalidBounds},
		{"content type", "text/plain", diamondJSON, http.StatusUnsupportedMediaType, errors.ErrCodeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, Options{})
			rec := do(t, s, http.MethodPost, "/v1/runs", tt.contentType, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d %s, want %d", rec.Code, rec.Body.String(), tt.status)
			}
			if e := decodeBody[errorResponse](t, rec); e.Code != tt.code || e.Error == "" {
				t.Errorf("error = %+v, want code %s", e, tt.code)
			}
		})
	}
}

func TestCreateRunBodyLimit(t *testing.T) {
	s, _ := newTestServer(t, Options{MaxBodyBytes: 16})
	rec := do(t, s, http.MethodPost, "/v1/runs", "application/json", diamondJSON)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestListAndGetRuns(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	first := createRun(t, s)
	createRun(t, s)

	rec := do(t, s, http.MethodGet, "/v1/runs", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if list := decodeBody[listResponse](t, rec); len(list.Runs) != 2 {
		t.Errorf("runs = %d, want 2", len(list.Runs))
	}

	rec = do(t, s, http.MethodGet, "/v1/runs?limit=1", "", "")
	if list := decodeBody[listResponse](t, rec); len(list.Runs) != 1 {
		t.Errorf("limited runs = %d, want 1", len(list.Runs))
	}
	if rec := do(t, s, http.MethodGet, "/v1/runs?limit=x", "", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/v1/runs/"+first.ID, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if got := decodeBody[problem.Result](t, rec); got.ID != first.ID || len(got.Trees) != 2 {
		t.Errorf("get = %s with %d trees", got.ID, len(got.Trees))
	}

	rec = do(t, s, http.MethodGet, "/v1/runs/missing", "", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing status = %d, want 404", rec.Code)
	}
	if e := decodeBody[errorResponse](t, rec); e.Code != errors.ErrCodeRunNotFound {
		t.Errorf("missing code = %s", e.Code)
	}
}

func TestEmptyList(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	rec := do(t, s, http.MethodGet, "/v1/runs", "", "")
	if got := strings.TrimSpace(rec.Body.String()); got != `{"runs":[]}` {
		t.Errorf("body = %s", got)
	}
}

func TestGetTree(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	res := createRun(t, s)
	base := "/v1/runs/" + res.ID + "/trees/"

	tests := []struct {
		target      string
		status      int
		contentType string
		contains    string
	}{
		{base + "0", http.StatusOK, "application/json", `"height"`},
		{base + "1?format=json", http.StatusOK, "application/json", `"index": 1`},
		{base + "0?format=dot", http.StatusOK, "text/vnd.graphviz; charset=utf-8", "digraph SupportTree"},
		{base + "0?format=png", http.StatusBadRequest, "application/json", "INVALID_FORMAT"},
		{base + "7", http.StatusNotFound, "application/json", "TREE_NOT_FOUND"},
		{base + "x", http.StatusBadRequest, "application/json", "INVALID_INPUT"},
		{"/v1/runs/missing/trees/0", http.StatusNotFound, "application/json", "RUN_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.target, "", "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d %s, want %d", rec.Code, rec.Body.String(), tt.status)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("body missing %q:\n%s", tt.contains, rec.Body.String())
			}
		})
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.SetHTTPHooks(observability.NewPrometheusHooks(reg))
	t.Cleanup(observability.Reset)

	s, _ := newTestServer(t, Options{Gatherer: reg})
	do(t, s, http.MethodGet, "/healthz", "", "")

	rec := do(t, s, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `route="/healthz"`) {
		t.Errorf("metrics missing healthz route:\n%s", rec.Body.String())
	}
}

func TestMetricsDisabled(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	if rec := do(t, s, http.MethodGet, "/metrics", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestWithDefaults(t *testing.T) {
	yes, no := true, false
	d := problem.Search{MaxDepth: 5, L1Quota: 2, Escalate: &yes, MaxCandidates: 100}

	tests := []struct {
		name string
		in   *problem.Search
		want problem.Search
	}{
		{"nil", nil, d},
		{"bounds kept", &problem.Search{MaxDepth: 3}, problem.Search{MaxDepth: 3, MaxCandidates: 100}},
		{"escalate kept", &problem.Search{Escalate: &no, MaxCandidates: 7}, problem.Search{MaxDepth: 5, L1Quota: 2, Escalate: &no, MaxCandidates: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := withDefaults(tt.in, d)
			if got.MaxDepth != tt.want.MaxDepth || got.L1Quota != tt.want.L1Quota || got.MaxCandidates != tt.want.MaxCandidates {
				t.Errorf("withDefaults() = %+v, want %+v", got, tt.want)
			}
			if (got.Escalate == nil) != (tt.want.Escalate == nil) || (got.Escalate != nil && *got.Escalate != *tt.want.Escalate) {
				t.Errorf("Escalate = %v, want %v", got.Escalate, tt.want.Escalate)
			}
		})
	}
}
