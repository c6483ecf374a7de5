package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHandlerExposesMetrics(t *testing.T) {
	CyclesTotal.WithLabelValues("success").Inc()
	TradesTotal.WithLabelValues("RISE").Inc()

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("failed to scrape metrics: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	for _, name := range []string{"bot_cycles_total", "bot_trades_total"} {
		if !strings.Contains(string(body), name) {
			t.Fatalf("%s metric not found", name)
		}
	}
}

func TestMetricsRegistered(t *testing.T) {
	ExpiredRequests.Add(0)

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "deriv_expired_requests_total" {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("deriv_expired_requests_total metric not found")
	}

	before := testutil.ToFloat64(PendingRequests)
	PendingRequests.Inc()
	if got := testutil.ToFloat64(PendingRequests); got != before+1 {
		t.Fatalf("expected pending gauge %v, got %v", before+1, got)
	}
	PendingRequests.Dec()
}
