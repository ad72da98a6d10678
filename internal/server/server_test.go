package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"ataa/internal/config"
	"ataa/internal/db"
	"ataa/internal/domain"
	"ataa/internal/migrate"
	"ataa/internal/service"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc := service.New(conn, config.Default("org-1"))
	handler, err := New(Config{
		Service:  svc,
		BasePath: "/v0",
		Auth: AuthConfig{
			JWTSecret:              "test-secret",
			AllowLegacyActorHeader: true,
		},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func asActor(actor string) map[string]string {
	return map[string]string{"X-Actor-Id": actor}
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/employees", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401: %s", res.StatusCode, string(data))
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if env.Error.Code != "unauthorized" {
		t.Fatalf("code = %q, want unauthorized", env.Error.Code)
	}
}

func TestDistributeTaskOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	headers := asActor("manager-1")

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/employees", map[string]any{
		"id":   "emp-1",
		"name": "سارة",
		"skills": []map[string]any{
			{"skill": "design", "level": 80, "last_used": time.Now().UTC().Add(-5 * 24 * time.Hour).Format(time.RFC3339)},
		},
		"current_workload":     20,
		"availability":         100,
		"performance_score":    90,
		"burnout_score":        10,
		"stress_level":         10,
		"recent_success":       3,
		"preferred_task_types": []string{"design"},
	}, headers)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create employee status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/tasks", map[string]any{
		"id":              "task-1",
		"title":           "تصميم حملة التبرعات",
		"priority":        "high",
		"difficulty":      "medium",
		"estimated_hours": 16,
		"required_skills": []string{"design"},
		"tags":            []string{"design"},
		"deadline":        time.Now().UTC().Add(20 * 24 * time.Hour).Format(time.RFC3339),
	}, headers)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create task status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/tasks/task-1/scores", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("scores status %d: %s", res.StatusCode, string(data))
	}
	var scores []domain.RAGScore
	if err := json.Unmarshal(data, &scores); err != nil {
		t.Fatalf("unmarshal scores: %v", err)
	}
	if len(scores) != 1 || scores[0].EmployeeID != "emp-1" {
		t.Fatalf("scores = %+v", scores)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/tasks/task-1/distribute", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("distribute status %d: %s", res.StatusCode, string(data))
	}
	var result domain.DistributionResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.SelectedEmployee.ID != "emp-1" {
		t.Fatalf("selected = %q, want emp-1", result.SelectedEmployee.ID)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/tasks/task-1/distribute", nil, headers)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("second distribute status %d, want 409: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/tasks/task-1", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("get task status %d: %s", res.StatusCode, string(data))
	}
	var task domain.TaskToDistribute
	if err := json.Unmarshal(data, &task); err != nil {
		t.Fatalf("unmarshal task: %v", err)
	}
	if task.AssigneeID == nil || *task.AssigneeID != "emp-1" {
		t.Fatalf("assignee = %v, want emp-1", task.AssigneeID)
	}
}

func TestWorkflowGatingOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	headers := asActor("coordinator")

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/proj-h/workflow", map[string]any{
		"template_id": "marketing_campaign",
	}, headers)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("instantiate status %d: %s", res.StatusCode, string(data))
	}
	var steps []domain.ProjectStep
	if err := json.Unmarshal(data, &steps); err != nil {
		t.Fatalf("unmarshal steps: %v", err)
	}
	if len(steps) != 9 {
		t.Fatalf("len(steps) = %d, want 9", len(steps))
	}
	if steps[0].ID != "step_proj-h_1" {
		t.Fatalf("first step id = %q", steps[0].ID)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/proj-h/workflow", map[string]any{
		"template_id": "marketing_campaign",
	}, headers)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate instantiate status %d, want 409: %s", res.StatusCode, string(data))
	}

	// Step 2 is gated behind the required first step.
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/steps/step_proj-h_2/start", nil, headers)
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("gated start status %d, want 422: %s", res.StatusCode, string(data))
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if env.Error.Code != "step_blocked" {
		t.Fatalf("code = %q, want step_blocked", env.Error.Code)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/steps/step_proj-h_1/start", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("start status %d: %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/steps/step_proj-h_1/complete", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("complete status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/projects/proj-h/workflow/progress", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("progress status %d: %s", res.StatusCode, string(data))
	}
	var progress domain.WorkflowProgress
	if err := json.Unmarshal(data, &progress); err != nil {
		t.Fatalf("unmarshal progress: %v", err)
	}
	if progress.CompletedSteps != 1 || progress.ProgressPercentage != 11 {
		t.Fatalf("progress = %+v", progress)
	}
}

func TestDevLoginTokenAndAPIKey(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/auth/dev/login", map[string]any{
		"actor_id": "dev-1",
		"roles":    []string{"admin"},
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("dev login status %d: %s", res.StatusCode, string(data))
	}
	var login DevLoginResponse
	if err := json.Unmarshal(data, &login); err != nil {
		t.Fatalf("unmarshal login: %v", err)
	}
	if login.Token == "" {
		t.Fatal("empty token")
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/me", nil, map[string]string{
		"Authorization": "Bearer " + login.Token,
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("me status %d: %s", res.StatusCode, string(data))
	}
	var me MeResponse
	if err := json.Unmarshal(data, &me); err != nil {
		t.Fatalf("unmarshal me: %v", err)
	}
	if me.ActorID != "dev-1" || me.Source != "jwt" {
		t.Fatalf("me = %+v", me)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/api-keys", map[string]any{
		"actor_id": "svc-bot",
		"name":     "reporting",
		"key":      "super-secret-key",
	}, map[string]string{"Authorization": "Bearer " + login.Token})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create api key status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/me", nil, map[string]string{
		"X-Api-Key": "super-secret-key",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("me via api key status %d: %s", res.StatusCode, string(data))
	}
	if err := json.Unmarshal(data, &me); err != nil {
		t.Fatalf("unmarshal me: %v", err)
	}
	if me.ActorID != "svc-bot" || me.Source != "api_key" {
		t.Fatalf("me = %+v", me)
	}
}

func TestNotFoundEnvelope(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/tasks/missing", nil, asActor("tester"))
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", res.StatusCode, string(data))
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if env.Error.Code != "not_found" {
		t.Fatalf("code = %q, want not_found", env.Error.Code)
	}
}
