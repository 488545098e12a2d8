package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/catalogs/{catalog}/records", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})

	for _, name := range []string{"agendamento", "transporte"} {
		req := httptest.NewRequest(http.MethodGet, "/catalogs/"+name+"/records", http.NoBody)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/catalogs/{catalog}/records", "200"))
	if got < 2 {
		t.Errorf("requests_total for route pattern = %f, want >= 2", got)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected duration observations")
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/screens/{screen}/unlock", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	r.Delete("/screens/{screen}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		method, path, pattern, status string
	}{
		{http.MethodPost, "/screens/s1/unlock", "/screens/{screen}/unlock", "429"},
		{http.MethodDelete, "/screens/s1", "/screens/{screen}", "204"},
	}
	for _, tc := range tests {
		t.Run(tc.pattern, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, http.NoBody))

			val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.pattern, tc.status))
			if val < 1 {
				t.Errorf("requests_total{%s %s %s} = %f", tc.method, tc.pattern, tc.status, val)
			}
		})
	}
}

func TestMiddleware_UnmatchedAndScrape(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get(scrapePath, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unmatched", "404"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/screens/x/nope/1", http.NoBody))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/catalogs/zz/what", http.NoBody))
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unmatched", "404")) - before; got != 2 {
		t.Errorf("unmatched 404s = %f, want 2", got)
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, scrapePath, http.NoBody))
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", scrapePath, "200")); got != 0 {
		t.Errorf("scrape requests observed = %f, want 0", got)
	}
	if got := testutil.ToFloat64(httpRequestsInFlight); got != 0 {
		t.Errorf("in flight after requests = %f, want 0", got)
	}
}

func TestStatusWriter_FirstStatusWins(t *testing.T) {
	rr := httptest.NewRecorder()
	w := &statusWriter{ResponseWriter: rr, status: http.StatusOK}
	w.WriteHeader(http.StatusCreated)
	w.WriteHeader(http.StatusInternalServerError)
	if w.status != http.StatusCreated {
		t.Errorf("status = %d, want 201", w.status)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input, expected string
	}{
		{"", "unmatched"},
		{"/*", "unmatched"},
		{"/catalogs/{catalog}", "/catalogs/{catalog}"},
		{"/screens/{screen}/*", "/screens/{screen}"},
		{"/health", "/health"},
	}
	for _, tc := range tests {
		if got := normalizePath(tc.input); got != tc.expected {
			t.Errorf("normalizePath(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}
