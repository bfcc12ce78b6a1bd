package collyfetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/einantonio/pdf-text-api/internal/extract"
)

func TestFetcher_FetchReturnsBodyAndContentType(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "doc-agent", r.UserAgent())
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 body"))
	}))
	defer srv.Close()

	f := New(Config{UserAgent: "doc-agent", Timeout: time.Second}, zap.NewNop())
	got, err := f.Fetch(context.Background(), srv.URL+"/resume.pdf")
	require.NoError(t, err)
	require.Equal(t, "application/pdf", got.ContentType)
	require.Equal(t, []byte("%PDF-1.4 body"), got.Body)
	require.Equal(t, http.StatusOK, got.StatusCode)
	require.Equal(t, srv.URL+"/resume.pdf", got.SourceURL)
}

func TestFetcher_FetchSameURLTwice(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := New(Config{}, nil)
	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
	}
}

func TestFetcher_Non2xxIsFetchFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(Config{Timeout: time.Second}, zap.NewNop())
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.ErrorIs(t, err, extract.ErrFetchFailure)
	require.Contains(t, err.Error(), "404")
}

func TestFetcher_TimeoutIsFetchFailure(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := New(Config{Timeout: 50 * time.Millisecond}, zap.NewNop())
	start := time.Now()
	_, err := f.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, extract.ErrFetchFailure)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestFetcher_OversizedBodyIsFetchFailure(t *testing.T) {
	t.Parallel()

	body := append([]byte("%PDF-1.4\n"), make([]byte, 200)...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	f := New(Config{Timeout: time.Second, MaxBodyBytes: 50}, zap.NewNop())
	got, err := f.Fetch(context.Background(), srv.URL+"/big.pdf")
	require.ErrorIs(t, err, extract.ErrFetchFailure)
	require.Contains(t, err.Error(), "exceeds 50 bytes")
	require.Empty(t, got.Body)
}

func TestFetcher_BodyAtCapIsAccepted(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	f := New(Config{Timeout: time.Second, MaxBodyBytes: 10}, zap.NewNop())
	got, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "0123456789", string(got.Body))
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	f := New(Config{}, zap.NewNop())
	var result extract.FetchedContent
	var fetchErr error

	hooks := &stubHooks{}
	f.configureCollectorHooks(hooks, &result, &fetchErr)
	require.NotNil(t, hooks.onResponse)
	require.NotNil(t, hooks.onError)

	hooks.onResponse(&colly.Response{
		StatusCode: http.StatusOK,
		Body:       []byte("body"),
		Headers:    &http.Header{"Content-Type": {"text/html"}},
		Request: &colly.Request{
			URL: mustParseURL(t, "https://example.com/job"),
		},
	})
	require.Equal(t, "body", string(result.Body))
	require.Equal(t, "text/html", result.ContentType)
	require.Equal(t, "https://example.com/job", result.SourceURL)

	hooks.onError(&colly.Response{StatusCode: http.StatusBadGateway}, errors.New("Bad Gateway"))
	require.EqualError(t, fetchErr, "status 502: Bad Gateway")

	hooks.onError(nil, errors.New("boom"))
	require.EqualError(t, fetchErr, "boom")
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse url %q: %v", raw, err)
	}
	return u
}

type stubHooks struct {
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}
