package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"trainloop/pkg/types"
)

type fakeService struct {
	status types.StatusResponse
	ready  bool
}

func (f *fakeService) Status() types.StatusResponse { return f.status }
func (f *fakeService) Ready() bool                  { return f.ready }

func do(t *testing.T, h http.Handler, method, path string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	h.ServeHTTP(rr, req)
	return rr
}

func TestStatusEndpoint(t *testing.T) {
	best := 0.6
	svc := &fakeService{ready: true, status: types.StatusResponse{
		State:         "training",
		Epoch:         2,
		MaxEpoch:      10,
		PatienceLeft:  4,
		BestDevMetric: &best,
	}}
	rr := do(t, NewMux(svc), http.MethodGet, "/status", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type=%q", ct)
	}
	var got types.StatusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.State != "training" || got.Epoch != 2 || got.BestDevMetric == nil || *got.BestDevMetric != 0.6 {
		t.Fatalf("unexpected status %+v", got)
	}
}

func TestHealthAndReady(t *testing.T) {
	svc := &fakeService{ready: true}
	h := NewMux(svc)
	if rr := do(t, h, http.MethodGet, "/healthz", nil); rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("healthz %d %q", rr.Code, rr.Body.String())
	}
	if rr := do(t, h, http.MethodGet, "/readyz", nil); rr.Code != http.StatusOK {
		t.Fatalf("readyz %d", rr.Code)
	}
	svc.ready = false
	svc.status.Error = "epoch 3: boom"
	rr := do(t, h, http.MethodGet, "/readyz", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz when failed %d", rr.Code)
	}
	var e types.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil || e.Error != "epoch 3: boom" || e.Code != 503 {
		t.Fatalf("unexpected error body %q", rr.Body.String())
	}
}

func TestNotFoundIsJSON(t *testing.T) {
	rr := do(t, NewMux(&fakeService{}), http.MethodGet, "/nope", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rr.Code)
	}
	var e types.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil || e.Code != http.StatusNotFound {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
}

func TestSecurityHeader(t *testing.T) {
	rr := do(t, NewMux(&fakeService{}), http.MethodGet, "/healthz", nil)
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header")
	}
}

func TestCORSOptIn(t *testing.T) {
	t.Cleanup(func() { SetCORSOptions(false, nil, nil, nil) })
	hdr := map[string]string{"Origin": "http://dash.local"}

	SetCORSOptions(false, nil, nil, nil)
	if rr := do(t, NewMux(&fakeService{}), http.MethodGet, "/healthz", hdr); rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("CORS header set while disabled")
	}

	SetCORSOptions(true, []string{"http://dash.local"}, nil, nil)
	rr := do(t, NewMux(&fakeService{}), http.MethodGet, "/healthz", hdr)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://dash.local" {
		t.Fatalf("allow-origin=%q", got)
	}
}

func TestMetricsEndpointExposesRequestCounters(t *testing.T) {
	h := NewMux(&fakeService{})
	_ = do(t, h, http.MethodGet, "/healthz", nil)
	rr := do(t, h, http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status=%d", rr.Code)
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte("trainloop_http_requests_total")) {
		t.Fatalf("expected trainloop_http_requests_total in metrics output")
	}
	// route pattern, not raw path, is used as label
	if !bytes.Contains(rr.Body.Bytes(), []byte(`path="/healthz"`)) {
		t.Fatalf("expected /healthz path label")
	}
}

func TestRequestLoggerWritesLine(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
	t.Cleanup(func() { zlog = nil })
	_ = do(t, NewMux(&fakeService{}), http.MethodGet, "/healthz", nil)
	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["path"] != "/healthz" || line["status"] != float64(200) || line["request_id"] == nil {
		t.Fatalf("unexpected log line %v", line)
	}
}

func TestItoa(t *testing.T) {
	for n, want := range map[int]string{0: "0", 7: "7", 200: "200", 503: "503"} {
		if got := itoa(n); got != want {
			t.Fatalf("itoa(%d)=%q", n, got)
		}
	}
}

func TestSwaggerDocListsStatus(t *testing.T) {
	h := NewMux(&fakeService{ready: true})
	rr := do(t, h, http.MethodGet, "/swagger/doc.json", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode doc: %v\n%s", err, rr.Body.String())
	}
	if doc.Info.Title != SwaggerInfo.Title {
		t.Fatalf("title %q", doc.Info.Title)
	}
	for _, p := range []string{"/status", "/healthz", "/readyz", "/metrics"} {
		if _, ok := doc.Paths[p]; !ok {
			t.Fatalf("doc missing path %s", p)
		}
	}
}
