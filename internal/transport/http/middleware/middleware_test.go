package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"timetracker/internal/platform/metrics"
)

func TestRequestIDHonorsValidInboundHeader(t *testing.T) {
	inbound := uuid.NewString()
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", inbound)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != inbound {
		t.Fatalf("expected inbound id %s on the context, got %s", inbound, seen)
	}
	if rec.Header().Get("X-Request-ID") != inbound {
		t.Fatalf("expected inbound id echoed, got %s", rec.Header().Get("X-Request-ID"))
	}
}

func TestRequestIDReplacesMalformedHeader(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "<script>not-a-uuid</script>")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("expected a generated uuid, got %q", seen)
	}
	if seen == "<script>not-a-uuid</script>" {
		t.Fatal("malformed inbound id must not be propagated")
	}
	if rec.Header().Get("X-Request-ID") != seen {
		t.Fatal("response header must carry the replacement id")
	}
}

func TestObserveRecordsStatusAndLatency(t *testing.T) {
	collector := metrics.New()
	h := Observe(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	snap := collector.Snapshot()
	if snap["requestsTotal"].(uint64) != 1 {
		t.Fatalf("expected one recorded request, got %v", snap["requestsTotal"])
	}
	if snap["errorsTotal"].(uint64) != 1 {
		t.Fatalf("expected the 502 counted as an error, got %v", snap["errorsTotal"])
	}
}

func TestObserveWithoutCollector(t *testing.T) {
	h := Observe(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected handler status preserved, got %d", rec.Code)
	}
}
