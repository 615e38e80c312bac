package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"condopapers/internal/app"
	"condopapers/internal/domain"
	"condopapers/internal/engine"
	"condopapers/internal/metrics"
)

var testNow = time.Date(2024, 12, 1, 10, 5, 0, 0, time.UTC)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	reg := prometheus.NewRegistry()
	rec, err := metrics.New(reg)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	e, conn, err := app.Bootstrap(context.Background(), app.Options{
		ActorID: "tester",
		Now:     func() time.Time { return testNow },
		Metrics: rec,
	})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	handler, err := New(Config{Engine: e, BasePath: "/v0", Gatherer: reg})
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
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
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
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, data []byte) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal error: %v (%s)", err, string(data))
	}
	return env
}

func TestComplianceEndpoints(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/compliance", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list status %d: %s", res.StatusCode, string(data))
	}
	var items []domain.ComplianceView
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(items) != 4 || items[0].ID != "3" || items[0].Status.Level != "critical" {
		t.Fatalf("expected expired item first, got %+v", items)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/compliance/summary", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("summary status %d: %s", res.StatusCode, string(data))
	}
	var sum domain.ComplianceSummary
	_ = json.Unmarshal(data, &sum)
	if sum != (domain.ComplianceSummary{Valid: 2, Warning: 1, Critical: 1, Total: 4}) {
		t.Fatalf("unexpected summary %+v", sum)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/compliance", map[string]any{
		"name":        "Laudo de gás",
		"type":        "gas",
		"issue_date":  "2024-11-01",
		"expiry_date": "2025-11-01",
	}, map[string]string{"X-Actor-Id": "sindico"})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d: %s", res.StatusCode, string(data))
	}
	var created domain.ComplianceView
	_ = json.Unmarshal(data, &created)
	if created.ID == "" || created.Status.Level != "valid" {
		t.Fatalf("unexpected created item %+v", created)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/compliance", map[string]any{
		"name":        "Backwards",
		"type":        "gas",
		"issue_date":  "2025-11-01",
		"expiry_date": "2024-11-01",
	}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for reversed dates, got %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/compliance/missing", nil, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", res.StatusCode, string(data))
	}
	if env := decodeError(t, data); env.Error.Code != "not_found" {
		t.Fatalf("unexpected error code %q", env.Error.Code)
	}

	res, data = doJSON(t, client, http.MethodPut, srv.URL+"/v0/compliance/1/document", map[string]any{"url": "https://docs.example/avcb.pdf"}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("attach status %d: %s", res.StatusCode, string(data))
	}
	var attached domain.ComplianceView
	_ = json.Unmarshal(data, &attached)
	if attached.DocumentURL != "https://docs.example/avcb.pdf" {
		t.Fatalf("document not attached: %+v", attached)
	}
}


func TestCreateComplianceDuplicateID(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	body := map[string]any{
		"id":          "gas-1",
		"name":        "Laudo de gás",
		"type":        "gas",
		"issue_date":  "2024-11-01",
		"expiry_date": "2025-11-01",
	}
	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/compliance", body, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d: %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/compliance", body, nil)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate id, got %d: %s", res.StatusCode, string(data))
	}
	env := decodeError(t, data)
	if env.Error.Code != "conflict" {
		t.Fatalf("expected conflict code, got %+v", env.Error)
	}
	if strings.Contains(strings.ToLower(string(data)), "constraint") || strings.Contains(strings.ToLower(string(data)), "sqlite") {
		t.Fatalf("storage error leaked: %s", string(data))
	}
}

func TestContractsAndOrders(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/contracts/1", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("contract status %d: %s", res.StatusCode, string(data))
	}
	var c domain.ContractView
	_ = json.Unmarshal(data, &c)
	if c.ValueDisplay != "R$ 2.500,00" || c.Status.State != "expiring" {
		t.Fatalf("unexpected contract view %+v", c)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/service-orders?status=open", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("orders status %d: %s", res.StatusCode, string(data))
	}
	var orders []domain.ServiceOrder
	_ = json.Unmarshal(data, &orders)
	for _, o := range orders {
		if o.Status != domain.OrderOpen {
			t.Fatalf("filter leaked %s order", o.Status)
		}
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/service-orders?status=bogus", nil, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/suppliers", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("suppliers status %d: %s", res.StatusCode, string(data))
	}
	var suppliers []domain.Supplier
	_ = json.Unmarshal(data, &suppliers)
	if len(suppliers) != 2 {
		t.Fatalf("expected 2 suppliers, got %d", len(suppliers))
	}
}

func TestWorkApprovalGate(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/work-requests/1/approve", nil, nil)
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", res.StatusCode, string(data))
	}
	env := decodeError(t, data)
	if env.Error.Code != "gate_declined" {
		t.Fatalf("unexpected error code %q", env.Error.Code)
	}
	missing, _ := env.Error.Details["missing"].([]any)
	if len(missing) != 1 || missing[0] != "Projeto Arquitetônico" {
		t.Fatalf("unexpected missing list %v", env.Error.Details["missing"])
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/work-requests/1/documents", map[string]any{"name": "Projeto Arquitetônico"}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("upload status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/work-requests/1/approve", nil, map[string]string{"X-Actor-Id": "sindico"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("approve status %d: %s", res.StatusCode, string(data))
	}
	var approved WorkApprovalResponse
	if err := json.Unmarshal(data, &approved); err != nil {
		t.Fatalf("unmarshal approval: %v", err)
	}
	if approved.WorkRequest.Status != domain.WorkApproved || !approved.Gate.Allowed {
		t.Fatalf("unexpected approval %+v", approved)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/work-requests/1/reject", map[string]any{"reason": "late"}, nil)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 rejecting an approved request, got %d: %s", res.StatusCode, string(data))
	}
	if env := decodeError(t, data); env.Error.Code != "invalid_transition" {
		t.Fatalf("unexpected error code %q", env.Error.Code)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/work-requests/1/documents", map[string]any{"name": "ART/RRT"}, nil)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on locked request, got %d: %s", res.StatusCode, string(data))
	}
}

func TestSubmitAndRejectWorkRequest(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/work-requests", map[string]any{
		"unit":      "304",
		"resident":  "Ana Lima",
		"work_type": "structural",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("submit status %d: %s", res.StatusCode, string(data))
	}
	var w domain.WorkRequest
	_ = json.Unmarshal(data, &w)
	if w.Status != domain.WorkPending || len(w.Documents) == 0 {
		t.Fatalf("unexpected submitted request %+v", w)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/work-requests/"+w.ID+"/analysis", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("analysis status %d: %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/work-requests/"+w.ID+"/reject", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("reject status %d: %s", res.StatusCode, string(data))
	}
	_ = json.Unmarshal(data, &w)
	if w.Status != domain.WorkRejected {
		t.Fatalf("expected rejected, got %s", w.Status)
	}
}

func TestChecklistEndpoints(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/checklists/1/complete", nil, nil)
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/checklists/1/tasks/3/toggle", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("toggle status %d: %s", res.StatusCode, string(data))
	}
	var view domain.ChecklistView
	_ = json.Unmarshal(data, &view)
	if view.Progress.Completed != 3 || view.Progress.Total != 4 {
		t.Fatalf("unexpected progress %+v", view.Progress)
	}
	var raw map[string]any
	_ = json.Unmarshal(data, &raw)
	if _, ok := raw["$schema"]; !ok {
		t.Fatalf("expected $schema link on checklist view: %s", string(data))
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/checklists/1/complete", nil, map[string]string{"X-Actor-Id": "porteiro"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("complete status %d: %s", res.StatusCode, string(data))
	}
	var done ChecklistCompletionResponse
	_ = json.Unmarshal(data, &done)
	if done.Checklist.Status != domain.ChecklistCompleted {
		t.Fatalf("expected completed checklist, got %s", done.Checklist.Status)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/checklists/1/tasks/4/toggle", nil, nil)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on completed checklist, got %d: %s", res.StatusCode, string(data))
	}
	if env := decodeError(t, data); env.Error.Code != "locked" {
		t.Fatalf("unexpected error code %q", env.Error.Code)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/checklists", map[string]any{
		"name":  "Rotina Noturna",
		"shift": "night",
		"tasks": []map[string]any{{"title": "Fechar portões", "required": true}},
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d: %s", res.StatusCode, string(data))
	}
	_ = json.Unmarshal(data, &view)
	if len(view.Tasks) != 1 || view.Tasks[0].ID != "1" {
		t.Fatalf("unexpected created checklist %+v", view)
	}
}

func TestScanControlPoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/control-points/scan", map[string]any{"ref": "QR003"}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("scan status %d: %s", res.StatusCode, string(data))
	}
	var scan engine.ScanResult
	if err := json.Unmarshal(data, &scan); err != nil {
		t.Fatalf("unmarshal scan: %v", err)
	}
	if scan.Point.ID != "3" || scan.Point.LastCheck == nil {
		t.Fatalf("unexpected scanned point %+v", scan.Point)
	}
	if len(scan.Rounds) != 1 || scan.Rounds[0].Checked != 4 {
		t.Fatalf("unexpected rounds %+v", scan.Rounds)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/control-points/scan", map[string]any{"ref": "QR999"}, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", res.StatusCode, string(data))
	}
}

func TestEventsPagination(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	for _, task := range []string{"3", "4", "4"} {
		res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/checklists/1/tasks/"+task+"/toggle", nil, nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("toggle status %d: %s", res.StatusCode, string(data))
		}
	}

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/events?type=checklist.task_toggled&limit=2", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("events status %d: %s", res.StatusCode, string(data))
	}
	var page paginatedEvents
	if err := json.Unmarshal(data, &page); err != nil {
		t.Fatalf("unmarshal events: %v", err)
	}
	if len(page.Items) != 2 || page.NextCursor == "" {
		t.Fatalf("expected a full page with cursor, got %+v", page)
	}
	if page.Items[0].Payload["task_id"] != "4" {
		t.Fatalf("expected newest first, got %+v", page.Items[0])
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/events?type=checklist.task_toggled&limit=2&cursor="+page.NextCursor, nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("second page status %d: %s", res.StatusCode, string(data))
	}
	var next paginatedEvents
	_ = json.Unmarshal(data, &next)
	if len(next.Items) != 1 || next.NextCursor != "" || next.Items[0].Payload["task_id"] != "3" {
		t.Fatalf("unexpected second page %+v", next)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/events?cursor=abc", nil, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad cursor, got %d: %s", res.StatusCode, string(data))
	}
}

func TestMetricsAndOpenAPI(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	doJSON(t, client, http.MethodPost, srv.URL+"/v0/work-requests/1/approve", nil, nil)

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/metrics", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("metrics status %d", res.StatusCode)
	}
	if !strings.Contains(string(data), `condopapers_gate_declines_total{entity="work_request"} 1`) {
		t.Fatalf("missing gate decline counter in:\n%s", string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/openapi.json", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("openapi status %d", res.StatusCode)
	}
	var oas map[string]any
	if err := json.Unmarshal(data, &oas); err != nil {
		t.Fatalf("unmarshal openapi: %v", err)
	}
	paths, _ := oas["paths"].(map[string]any)
	for _, p := range []string{"/v0/compliance", "/v0/work-requests/{id}/approve", "/v0/checklists/{id}/complete", "/v0/events"} {
		if _, ok := paths[p]; !ok {
			t.Fatalf("openapi missing path %s", p)
		}
	}

	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/v0/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d", res.StatusCode)
	}
}
