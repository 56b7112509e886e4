package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/simmerhq/simmer/internal/metrics"
)

func newTestFetcher(cfg Config) *Fetcher {
	cfg.AllowPrivate = true
	return New(cfg, nil)
}

func TestFetcher_FetchesPage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(Config{})
	res, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(res.Body), "hello")
}

func TestFetcher_RecordsFetchMetrics(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>counted</body></html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(Config{})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	require.Contains(t, body, `simmer_fetch_bytes_total{site="127.0.0.1"}`)
	require.Contains(t, body, `simmer_fetch_duration_seconds_count{site="127.0.0.1"}`)
}

func TestFetcher_RejectsUnsafeURLBeforeNetwork(t *testing.T) {
	t.Parallel()

	f := New(Config{}, nil)
	_, err := f.Fetch(context.Background(), "ftp://example.com/x")
	require.ErrorIs(t, err, ErrDisallowedScheme)

	_, err = f.Fetch(context.Background(), "http://localhost/x")
	require.ErrorIs(t, err, ErrDisallowedHost)
}

func TestFetcher_NonSuccessStatusCarriesCode(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestFetcher(Config{})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	status, ok := StatusFromError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, status)
}

func TestFetcher_BodySizeCap(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer srv.Close()

	f := newTestFetcher(Config{MaxBodyBytes: 1024})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestFetcher_RedirectCap(t *testing.T) {
	t.Parallel()

	var srv *httptest.Server
	hops := 0
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hops++
		http.Redirect(w, r, fmt.Sprintf("%s/hop/%d", srv.URL, hops), http.StatusFound)
	}))
	defer srv.Close()

	f := newTestFetcher(Config{MaxRedirects: 3})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrTooManyRedirects)
}

func TestFetcher_FollowsRedirectsWithinCap(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("landed"))
	})

	f := newTestFetcher(Config{})
	res, err := f.Fetch(context.Background(), srv.URL+"/start")
	require.NoError(t, err)
	require.Contains(t, string(res.Body), "landed")
	require.Contains(t, res.FinalURL, "/final")
}

func TestFetcher_Timeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte("slow"))
	}))
	defer srv.Close()

	f := newTestFetcher(Config{Timeout: 50 * time.Millisecond})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
}
