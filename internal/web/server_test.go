package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/sweeper/internal/config"
	"github.com/JonMunkholm/sweeper/internal/core"
	"github.com/JonMunkholm/sweeper/internal/table"
)

const salesCSV = "region,units,price\nnorth,1,2.5\nsouth,2,3.5\nnorth,1,2.5\n"

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Host: "127.0.0.1", Port: 8080, RequestTimeout: 10 * time.Second},
		Upload:    config.UploadConfig{MaxFileSize: 1 << 20, MaxFiles: 3, MaxConcurrent: 2, MaxWaitTime: time.Second},
		Workspace: config.WorkspaceConfig{TTL: time.Hour, CheckInterval: time.Minute},
		Security:  config.SecurityConfig{EnableCSP: true},
		Logging:   config.LoggingConfig{Level: "info", Format: "text"},
		Chart:     config.ChartConfig{Width: 400, Height: 300},
		Metrics:   config.MetricsConfig{Enabled: true},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *core.WorkspaceStore) {
	t.Helper()
	store := core.NewWorkspaceStore(core.WorkspaceLimits{
		MaxFileSize: cfg.Upload.MaxFileSize,
		MaxFiles:    cfg.Upload.MaxFiles,
		TTL:         cfg.Workspace.TTL,
	})
	runs := core.NewRunLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)
	s := NewServer(cfg, store, runs)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s, store
}

// seedWorkspace stores files directly and returns the workspace and file IDs.
func seedWorkspace(t *testing.T, store *core.WorkspaceStore, files map[string]string) (string, map[string]string) {
	t.Helper()
	ws := store.Create()
	ids := make(map[string]string, len(files))
	for name, data := range files {
		f, err := store.Add(ws.ID, name, []byte(data))
		if err != nil {
			t.Fatalf("Add(%s): %v", name, err)
		}
		ids[name] = f.ID
	}
	return ws.ID, ids
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write([]byte(data))
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	req.RemoteAddr = "192.0.2.10:4000"
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func get(s *Server, target string) *httptest.ResponseRecorder {
	return serve(s, httptest.NewRequest(http.MethodGet, target, nil))
}

func TestUploadAndRenderWorkspace(t *testing.T) {
	s, store := newTestServer(t, testConfig())

	body, ctype := multipartBody(t, map[string]string{"sales.csv": salesCSV})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ctype)
	rec := serve(s, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303: %s", rec.Code, rec.Body.String())
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/w/") {
		t.Fatalf("Location = %q", loc)
	}
	if store.Len() != 1 {
		t.Fatalf("store has %d workspaces, want 1", store.Len())
	}

	rec = get(s, loc)
	if rec.Code != http.StatusOK {
		t.Fatalf("workspace status = %d: %s", rec.Code, rec.Body.String())
	}
	page := rec.Body.String()
	for _, want := range []string{"sales.csv", "Preview", "Summary", `class="heatmap"`, "Download", "north"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(page, "chart.png") {
		t.Error("chart rendered before being enabled")
	}
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		wantCode int
		wantMsg  string
	}{
		{name: "no file", files: map[string]string{}, wantCode: http.StatusBadRequest, wantMsg: "FILE004"},
		{name: "unsupported type", files: map[string]string{"notes.txt": "hi"}, wantCode: http.StatusBadRequest, wantMsg: "FILE006"},
		{name: "too many files", files: map[string]string{"a.csv": "a\n1\n", "b.csv": "b\n1\n", "c.csv": "c\n1\n", "d.csv": "d\n1\n"}, wantCode: http.StatusBadRequest, wantMsg: "WS003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, store := newTestServer(t, testConfig())
			body, ctype := multipartBody(t, tt.files)
			req := httptest.NewRequest(http.MethodPost, "/upload", body)
			req.Header.Set("Content-Type", ctype)
			rec := serve(s, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if !strings.Contains(rec.Body.String(), tt.wantMsg) {
				t.Errorf("body missing %s: %s", tt.wantMsg, rec.Body.String())
			}
			if store.Len() != 0 {
				t.Errorf("failed upload left %d workspaces", store.Len())
			}
		})
	}
}

func TestUpload_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxFileSize = 64
	s, _ := newTestServer(t, cfg)

	body, ctype := multipartBody(t, map[string]string{"big.csv": "a\n" + strings.Repeat("1\n", 100)})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ctype)
	rec := serve(s, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "FILE001") {
		t.Errorf("body missing FILE001: %s", rec.Body.String())
	}
}

func TestAddAndDeleteFiles(t *testing.T) {
	s, store := newTestServer(t, testConfig())
	wsID, ids := seedWorkspace(t, store, map[string]string{"sales.csv": salesCSV})

	body, ctype := multipartBody(t, map[string]string{"more.csv": "x,y\n1,2\n"})
	req := httptest.NewRequest(http.MethodPost, "/w/"+wsID+"/files", body)
	req.Header.Set("Content-Type", ctype)
	if rec := serve(s, req); rec.Code != http.StatusSeeOther {
		t.Fatalf("add status = %d: %s", rec.Code, rec.Body.String())
	}
	ws, _ := store.Get(wsID)
	if len(ws.Files) != 2 {
		t.Fatalf("files = %d, want 2", len(ws.Files))
	}

	rec := serve(s, httptest.NewRequest(http.MethodPost, "/w/"+wsID+"/files/"+ids["sales.csv"]+"/delete", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("delete status = %d", rec.Code)
	}
	ws, _ = store.Get(wsID)
	if len(ws.Files) != 1 || ws.Files[0].Name != "more.csv" {
		t.Errorf("files after delete = %+v", ws.Files)
	}

	rec = serve(s, httptest.NewRequest(http.MethodPost, "/w/"+wsID+"/files/"+ids["sales.csv"]+"/delete", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestWorkspace_NotFound(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := get(s, "/w/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "WS001") {
		t.Errorf("body missing WS001: %s", rec.Body.String())
	}
}

func TestWorkspace_PerFileErrors(t *testing.T) {
	s, store := newTestServer(t, testConfig())
	wsID, ids := seedWorkspace(t, store, map[string]string{
		"sales.csv": salesCSV,
		"empty.csv": "",
	})

	q := url.Values{}
	q.Set(ids["sales.csv"]+".touched", "1")
	q.Add(ids["sales.csv"]+".cols", "units")
	q.Add(ids["sales.csv"]+".cols", "price")
	q.Set(ids["sales.csv"]+".chart", "on")

	rec := get(s, "/w/"+wsID+"?"+q.Encode())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	page := rec.Body.String()
	if !strings.Contains(page, "FILE005") {
		t.Error("empty file error not rendered")
	}
	if !strings.Contains(page, "/files/"+ids["sales.csv"]+"/chart.png?") {
		t.Error("chart image missing for the healthy file")
	}
}

func TestWorkspace_ChartWarning(t *testing.T) {
	s, store := newTestServer(t, testConfig())
	wsID, ids := seedWorkspace(t, store, map[string]string{"sales.csv": salesCSV})
	id := ids["sales.csv"]

	q := url.Values{}
	q.Set(id+".touched", "1")
	q.Add(id+".cols", "region")
	q.Add(id+".cols", "units")
	q.Set(id+".chart", "on")

	page := get(s, "/w/"+wsID+"?"+q.Encode()).Body.String()
	if !strings.Contains(page, core.WarnNotEnoughForChart) {
		t.Error("missing chart warning")
	}
}

func TestExport(t *testing.T) {
	s, store := newTestServer(t, testConfig())
	wsID, ids := seedWorkspace(t, store, map[string]string{"sales.csv": salesCSV})
	id := ids["sales.csv"]
	base := "/w/" + wsID + "/files/" + id + "/export"

	t.Run("untouched exports the source", func(t *testing.T) {
		rec := get(s, base)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		if got := rec.Body.String(); got != salesCSV {
			t.Errorf("body = %q, want %q", got, salesCSV)
		}
		if got := rec.Header().Get("Content-Type"); got != "text/csv" {
			t.Errorf("Content-Type = %q", got)
		}
	})

	t.Run("options applied", func(t *testing.T) {
		q := url.Values{}
		q.Set(id+".touched", "1")
		q.Set(id+".dedupe", "on")
		q.Add(id+".cols", "units")
		q.Add(id+".cols", "price")
		q.Set(id+".rename.price", "unit_price")
		rec := get(s, base+"?"+q.Encode())

		if want := "units,unit_price\n1,2.5\n2,3.5\n"; rec.Body.String() != want {
			t.Errorf("body = %q, want %q", rec.Body.String(), want)
		}
		_, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
		if err != nil || params["filename"] != "sales.csv" {
			t.Errorf("Content-Disposition = %q", rec.Header().Get("Content-Disposition"))
		}
	})

	t.Run("excel", func(t *testing.T) {
		q := url.Values{}
		q.Set(id+".touched", "1")
		q.Add(id+".cols", "units")
		q.Set(id+".format", "excel")
		rec := get(s, base+"?"+q.Encode())

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); got != table.FormatExcel.ContentType() {
			t.Errorf("Content-Type = %q", got)
		}
		if !strings.Contains(rec.Header().Get("Content-Disposition"), "sales.xlsx") {
			t.Errorf("Content-Disposition = %q", rec.Header().Get("Content-Disposition"))
		}
		if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
			t.Error("body is not a zip container")
		}
	})

	t.Run("pipeline error", func(t *testing.T) {
		q := url.Values{}
		q.Set(id+".touched", "1")
		q.Add(id+".cols", "units")
		q.Add(id+".cols", "price")
		q.Set(id+".rename.price", "units")
		rec := get(s, base+"?"+q.Encode())
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "COL004") {
			t.Errorf("body missing COL004")
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		rec := get(s, base+"?"+id+".touched=1&"+id+".format=pdf")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestChart(t *testing.T) {
	s, store := newTestServer(t, testConfig())
	wsID, ids := seedWorkspace(t, store, map[string]string{"sales.csv": salesCSV})
	id := ids["sales.csv"]
	base := "/w/" + wsID + "/files/" + id + "/chart.png"

	rec := get(s, base)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "image/png" {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("body is not a PNG")
	}

	rec = get(s, base+"?"+id+".touched=1&"+id+".cols=units")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("single numeric column status = %d, want 422", rec.Code)
	}
}

func TestFileSummaryAPI(t *testing.T) {
	s, store := newTestServer(t, testConfig())
	wsID, ids := seedWorkspace(t, store, map[string]string{"sales.csv": salesCSV})
	id := ids["sales.csv"]

	rec := get(s, "/api/w/"+wsID+"/files/"+id+"?"+id+".touched=1&"+id+".dedupe=on&"+id+".cols=units&"+id+".cols=price")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var got core.Report
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "sales.csv" || got.SourceRows != 3 || got.Rows != 2 {
		t.Errorf("summary = %+v", got)
	}
	if len(got.SourceColumns) != 3 || len(got.Columns) != 2 {
		t.Errorf("columns: source %d, final %d", len(got.SourceColumns), len(got.Columns))
	}
	if len(got.Numeric) != 2 || got.Numeric[0].Column != "units" || got.Numeric[0].Count != 3 {
		t.Errorf("numeric = %+v", got.Numeric)
	}
	if got.Correlation == nil || len(got.Correlation.Values) != 2 {
		t.Fatalf("correlation = %+v", got.Correlation)
	}
	if v := got.Correlation.Values[0][0]; v == nil || *v != 1 {
		t.Errorf("diagonal = %v, want 1", v)
	}

	rec = get(s, "/api/w/missing/files/"+id)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d", rec.Code)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Code != "WS001" {
		t.Errorf("code = %q, want WS001", errResp.Code)
	}
}

func TestHealthAndHeaders(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := get(s, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var got healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != "ok" || got.Runs.MaxConcurrent != 2 {
		t.Errorf("health = %+v", got)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
	if !strings.Contains(rec.Header().Get("Content-Security-Policy"), "default-src 'self'") {
		t.Error("missing CSP")
	}

	cfg := testConfig()
	cfg.Security.EnableCSP = false
	s, _ = newTestServer(t, cfg)
	if csp := get(s, "/healthz").Header().Get("Content-Security-Policy"); csp != "" {
		t.Errorf("CSP set while disabled: %q", csp)
	}
}

func TestMetrics(t *testing.T) {
	s, store := newTestServer(t, testConfig())
	wsID, ids := seedWorkspace(t, store, map[string]string{
		"sales.csv": salesCSV,
		"empty.csv": "",
	})

	if rec := get(s, "/w/"+wsID); rec.Code != http.StatusOK {
		t.Fatalf("workspace status = %d", rec.Code)
	}
	if rec := get(s, "/w/"+wsID+"/files/"+ids["sales.csv"]+"/export"); rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}

	rec := get(s, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`sweeper_pipeline_runs_total{code="",result="ok"} 2`,
		`sweeper_pipeline_runs_total{code="FILE005",result="failed"} 1`,
		`sweeper_exports_total{format="csv"} 1`,
		"sweeper_workspaces 1",
		"sweeper_pipeline_duration_seconds_count 3",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}

	cfg := testConfig()
	cfg.Metrics.Enabled = false
	s, _ = newTestServer(t, cfg)
	if rec := get(s, "/metrics"); rec.Code != http.StatusNotFound {
		t.Errorf("disabled metrics status = %d, want 404", rec.Code)
	}
}

func TestUploadPageAndStatic(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := get(s, "/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `name="files"`) {
		t.Fatalf("upload page status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Up to 3 files, 1 MB each.") {
		t.Errorf("limits not shown: %s", rec.Body.String())
	}

	if rec := get(s, "/static/app.css"); rec.Code != http.StatusOK {
		t.Errorf("static status = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2, UploadLimit: 1}
	s, _ := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		if rec := get(s, "/"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := get(s, "/")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
	if !strings.Contains(rec.Body.String(), "RATE001") {
		t.Errorf("body missing RATE001")
	}
}

func TestRateLimit_Uploads(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, UploadLimit: 1}
	s, _ := newTestServer(t, cfg)

	upload := func() int {
		body, ctype := multipartBody(t, map[string]string{"sales.csv": salesCSV})
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ctype)
		return serve(s, req).Code
	}
	if code := upload(); code != http.StatusSeeOther {
		t.Fatalf("first upload = %d", code)
	}
	if code := upload(); code != http.StatusTooManyRequests {
		t.Fatalf("second upload = %d, want 429", code)
	}
	if rec := get(s, "/"); rec.Code != http.StatusOK {
		t.Errorf("pages limited by the upload budget: %d", rec.Code)
	}
}

func TestRateLimiter_Window(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(ctx, 2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.allow("a") || !rl.allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("a") {
		t.Fatal("third request should be limited")
	}
	if !rl.allow("b") {
		t.Fatal("other clients have their own budget")
	}

	now = now.Add(61 * time.Second)
	if !rl.allow("a") {
		t.Fatal("budget should reset after the window")
	}

	now = now.Add(3 * time.Minute)
	rl.sweep()
	rl.mu.Lock()
	n := len(rl.visitors)
	rl.mu.Unlock()
	if n != 0 {
		t.Errorf("sweep left %d visitors", n)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrWorkspaceNotFound, http.StatusNotFound},
		{core.ErrFileNotFound, http.StatusNotFound},
		{core.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{core.ErrBusy, http.StatusServiceUnavailable},
		{core.ErrNoFile, http.StatusBadRequest},
		{table.ErrUnsupportedFormat, http.StatusBadRequest},
		{table.ErrInvalidCSV, http.StatusUnprocessableEntity},
		{table.ErrUnknownColumn, http.StatusUnprocessableEntity},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{core.ErrRateLimited, http.StatusTooManyRequests},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
