package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://Bumeran.com.ar/empleos/1", "bumeran.com.ar"},
		{"no scheme", "example.com/path", "example.com"},
		{"just host", "example.com", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"ip address", "192.168.1.1", "192.168.1.1"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSite(tc.input); got != tc.expected {
				t.Errorf("SanitizeSite(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestInit(t *testing.T) {
	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if httpRequestsTotal == nil || httpRequestDurationSeconds == nil ||
		documentExtractionsTotal == nil || crawlRunsTotal == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}
}

func TestObserveDocument(t *testing.T) {
	Init()
	before := testutil.ToFloat64(documentExtractionsTotal.WithLabelValues("pdf", "success"))
	ObserveDocument("pdf", "success")
	after := testutil.ToFloat64(documentExtractionsTotal.WithLabelValues("pdf", "success"))
	if after-before != 1 {
		t.Errorf("expected document counter to grow by 1, got %f", after-before)
	}
}

func TestObserveCrawlRun(t *testing.T) {
	Init()
	before := testutil.ToFloat64(crawlRunsTotal.WithLabelValues("timed_out"))
	ObserveCrawlRun("timed_out", 60)
	if got := testutil.ToFloat64(crawlRunsTotal.WithLabelValues("timed_out")) - before; got != 1 {
		t.Errorf("expected crawl run counter to grow by 1, got %f", got)
	}
	if val := testutil.CollectAndCount(crawlPollAttempts); val != 1 {
		t.Errorf("expected poll attempts histogram to be collected, got %d", val)
	}
}

func TestObserveThrottleAndDegraded(t *testing.T) {
	ObserveThrottleDelay("api.apify.com", 20*time.Millisecond)
	IncDegradedStatic("https://careers.example.com/jobs/1")
	if val := testutil.ToFloat64(jobTextDegradedStaticTotal.WithLabelValues("careers.example.com")); val < 1 {
		t.Errorf("expected degraded counter for careers.example.com, got %f", val)
	}
	if val := testutil.CollectAndCount(crawlServiceThrottleSeconds); val < 1 {
		t.Errorf("expected throttle histogram to be observed, got %d", val)
	}
}

// Fuzz test for SanitizeSite.
func FuzzSanitizeSite(f *testing.F) {
	testcases := []string{"http://example.com", "https://computrabajo.com", "ftp://example.com"}
	for _, tc := range testcases {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		sanitized := SanitizeSite(orig)
		if sanitized == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}
