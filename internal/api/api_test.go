package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/Concord/internal/domain"
	"github.com/shaiso/Concord/internal/lock"
	"github.com/shaiso/Concord/internal/participants"
	"github.com/shaiso/Concord/internal/repo/sqlite"
	"github.com/shaiso/Concord/internal/retry"
	"github.com/shaiso/Concord/internal/runner"
	"github.com/shaiso/Concord/internal/validation"
	"github.com/shaiso/Concord/internal/workflows"
)

type recordingNudger struct {
	mu      sync.Mutex
	reasons []string
}

func (n *recordingNudger) PublishNudge(_ context.Context, reason string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reasons = append(n.reasons, reason)
	return nil
}

func newTestServer(t *testing.T, nudger Nudger) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	catalog, err := participants.Build([]participants.Spec{
		{Kind: "role", Role: "broker"},
		{Kind: "min_length", Min: 8},
		{Kind: "not_username"},
		{Kind: "target_type", Types: []string{"Order"}},
	}, participants.Options{})
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}

	works := runner.NewWorkSet(validation.New(validation.Config{Rules: catalog.Rules, Results: store}))

	h := NewHandler(Config{
		WorkItems: store,
		Workflows: store,
		Targets:   store,
		Results:   store,
		Batch: runner.NewBatchRunner(runner.BatchConfig{
			Source:   store,
			Failures: store,
			Targets:  store,
			Rows:     store,
			Works:    works,
		}),
		Updater: runner.NewWorkflowRunner(runner.WorkflowConfig{
			Locker:    lock.NewMemory(lock.MemoryConfig{WaitTimeout: time.Second}),
			Tx:        store,
			Workflows: store,
		}),
		Deciders: workflows.Default(catalog),
		Catalog:  catalog,
		Nudger:   nudger,
	})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url string, body any, headers map[string]string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readData[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env.Data
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected status %d, got %d", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode)
	}
}

var broker = map[string]string{HeaderUserID: "u1", HeaderUserRoles: "broker, compliance"}

// --- Work Item Tests ---

func TestWorkItems_RunProducesResults(t *testing.T) {
	nudger := &recordingNudger{}
	srv := newTestServer(t, nudger)

	expectStatus(t, do(t, http.MethodPut, srv.URL+"/api/v1/targets/Order/42", nil, nil), http.StatusNoContent)

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/work-items", CreateWorkItemRequest{
		Kind: "validation", TargetType: "Order", TargetID: "42",
	}, nil)
	expectStatus(t, resp, http.StatusCreated)
	created := readData[WorkItemResponse](t, resp)
	if created.Kind != "validation" || created.TargetID != "42" {
		t.Errorf("unexpected work item: %+v", created)
	}
	if len(nudger.reasons) != 1 {
		t.Errorf("expected one nudge for due work, got %d", len(nudger.reasons))
	}

	resp = do(t, http.MethodPost, srv.URL+"/api/v1/work/run", nil, nil)
	expectStatus(t, resp, http.StatusOK)
	summary := readData[runner.Summary](t, resp)
	if summary.Due != 1 || summary.Processed != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}

	// Повторный прогон ничего не находит
	resp = do(t, http.MethodPost, srv.URL+"/api/v1/work/run", nil, nil)
	if summary := readData[runner.Summary](t, resp); summary.Due != 0 {
		t.Errorf("expected nothing due on rerun, got %+v", summary)
	}

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/targets/Order/42/results", nil, nil)
	expectStatus(t, resp, http.StatusOK)
	results := readData[[]ValidationResultResponse](t, resp)
	if len(results) != 1 || !results[0].Passed {
		t.Errorf("unexpected results: %+v", results)
	}

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/work-items/"+created.ID.String(), nil, nil)
	expectStatus(t, resp, http.StatusNotFound)
}

func TestWorkItems_MissingTargetStaysQueued(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/work-items", CreateWorkItemRequest{
		Kind: "validation", TargetType: "Order", TargetID: "missing",
	}, nil)
	expectStatus(t, resp, http.StatusCreated)
	created := readData[WorkItemResponse](t, resp)

	resp = do(t, http.MethodPost, srv.URL+"/api/v1/work/run", nil, nil)
	if summary := readData[runner.Summary](t, resp); summary.Failed != 1 {
		t.Errorf("expected one failure, got %+v", summary)
	}

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/work-items/"+created.ID.String(), nil, nil)
	expectStatus(t, resp, http.StatusOK)
	item := readData[WorkItemResponse](t, resp)
	if item.Attempts != 1 || item.LastError == "" {
		t.Errorf("expected recorded failure, got %+v", item)
	}
}

func TestWorkItems_CreateInvalid(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/work-items", CreateWorkItemRequest{Kind: "validation"}, nil)
	expectStatus(t, resp, http.StatusBadRequest)

	resp = do(t, http.MethodPost, srv.URL+"/api/v1/work-items", map[string]any{"unknown": 1}, nil)
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestWorkItems_ListPagination(t *testing.T) {
	srv := newTestServer(t, nil)

	later := time.Now().Add(time.Hour)
	for _, id := range []string{"1", "2", "3"} {
		resp := do(t, http.MethodPost, srv.URL+"/api/v1/work-items", CreateWorkItemRequest{
			Kind: "validation", TargetType: "Order", TargetID: id, RunDate: &later,
		}, nil)
		expectStatus(t, resp, http.StatusCreated)
	}

	resp := do(t, http.MethodGet, srv.URL+"/api/v1/work-items?limit=2", nil, nil)
	expectStatus(t, resp, http.StatusOK)
	if items := readData[[]WorkItemResponse](t, resp); len(items) != 2 {
		t.Errorf("expected 2 items, got %d", len(items))
	}

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/work-items?limit=-1", nil, nil)
	expectStatus(t, resp, http.StatusBadRequest)
}

// --- Workflow Tests ---

func TestWorkflow_AcceptanceUpdate(t *testing.T) {
	srv := newTestServer(t, nil)
	url := srv.URL + "/api/v1/workflows/acceptance/targets/Order/42"

	expectStatus(t, do(t, http.MethodGet, url, nil, nil), http.StatusNotFound)

	resp := do(t, http.MethodPut, url, nil, broker)
	expectStatus(t, resp, http.StatusOK)
	inst := readData[WorkflowResponse](t, resp)
	if inst.State != "accepted" || inst.Version != 1 || inst.UpdatedBy != "u1" {
		t.Errorf("unexpected instance: %+v", inst)
	}

	resp = do(t, http.MethodGet, url, nil, nil)
	expectStatus(t, resp, http.StatusOK)
	if got := readData[WorkflowResponse](t, resp); got.ID != inst.ID {
		t.Errorf("expected the same instance, got %s and %s", inst.ID, got.ID)
	}
}

func TestWorkflow_UpdateRequiresUser(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodPut, srv.URL+"/api/v1/workflows/acceptance/targets/Order/42", nil, nil)
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestWorkflow_BookingRefused(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodPut, srv.URL+"/api/v1/workflows/booking/targets/Order/42", nil,
		map[string]string{HeaderUserID: "u2"})
	expectStatus(t, resp, http.StatusUnprocessableEntity)
}

func TestWorkflow_UnknownClass(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodPut, srv.URL+"/api/v1/workflows/nope/targets/Order/42", nil, broker)
	expectStatus(t, resp, http.StatusNotFound)
}

// --- Registry Tests ---

func TestRegistries_List(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, http.MethodGet, srv.URL+"/api/v1/registries", nil, nil)
	expectStatus(t, resp, http.StatusOK)

	summaries := readData[[]struct {
		Name         string   `json:"name"`
		Participants []string `json:"participants"`
	}](t, resp)
	if len(summaries) != 5 {
		t.Fatalf("expected 5 registries, got %d", len(summaries))
	}
	if summaries[0].Name != "acceptance" || len(summaries[0].Participants) != 1 {
		t.Errorf("unexpected acceptance summary: %+v", summaries[0])
	}
}

func TestPasswordCheck(t *testing.T) {
	srv := newTestServer(t, nil)
	url := srv.URL + "/api/v1/password-checks"

	resp := do(t, http.MethodPost, url, PasswordCheckRequest{UserID: "alice", Password: "alice"}, nil)
	expectStatus(t, resp, http.StatusOK)
	check := readData[PasswordCheckResponse](t, resp)
	if check.Valid || len(check.Violations) != 2 {
		t.Errorf("expected two violations, got %+v", check)
	}

	resp = do(t, http.MethodPost, url, PasswordCheckRequest{UserID: "alice", Password: "correct horse battery"}, nil)
	if check := readData[PasswordCheckResponse](t, resp); !check.Valid {
		t.Errorf("expected valid password, got %+v", check)
	}

	resp = do(t, http.MethodPost, url, PasswordCheckRequest{Password: "whatever1"}, nil)
	expectStatus(t, resp, http.StatusBadRequest)
}

// --- Error Mapping Tests ---

func TestHandleError_Contention(t *testing.T) {
	rec := httptest.NewRecorder()
	err := &runner.WorkFailure{Op: "booking", Target: domain.NewTargetRef("Order", "42"), Err: &retry.ContentionError{Key: "k", Waited: time.Second}}

	if !HandleError(rec, nil, err, "") {
		t.Fatal("expected error to be handled")
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}

	var body ErrorResponse
	json.NewDecoder(rec.Body).Decode(&body)
	if body.Error.Code != ErrCodeContention {
		t.Errorf("expected %s, got %s", ErrCodeContention, body.Error.Code)
	}
}

func TestHandleError_Nil(t *testing.T) {
	if HandleError(httptest.NewRecorder(), nil, nil, "") {
		t.Error("nil error must not be handled")
	}
	if HandleError(httptest.NewRecorder(), nil, errors.Join(), "") {
		t.Error("empty join must not be handled")
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil)
	expectStatus(t, do(t, http.MethodGet, srv.URL+"/healthz", nil, nil), http.StatusOK)
	expectStatus(t, do(t, http.MethodGet, srv.URL+"/metrics", nil, nil), http.StatusOK)
}
