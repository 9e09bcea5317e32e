package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware(t *testing.T) {
	t.Run("middleware wraps handler and records metrics", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		wrapped := Middleware(handler)

		req := httptest.NewRequest(http.MethodGet, "/workflows", nil)
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status code %d, got %d", http.StatusOK, w.Code)
		}

		if w.Body.String() != "OK" {
			t.Errorf("Expected body 'OK', got %s", w.Body.String())
		}
	})

	t.Run("middleware captures status code", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("Not Found"))
		})

		wrapped := Middleware(handler)

		req := httptest.NewRequest(http.MethodGet, "/workflows", nil)
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status code %d, got %d", http.StatusNotFound, w.Code)
		}
	})

	t.Run("middleware tracks in-flight requests", func(t *testing.T) {
		var during float64
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			during = testutil.ToFloat64(httpRequestsInFlight)
			w.WriteHeader(http.StatusOK)
		})

		wrapped := Middleware(handler)
		before := testutil.ToFloat64(httpRequestsInFlight)

		wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

		if during != before+1 {
			t.Errorf("Expected %v requests in flight while serving, got %v", before+1, during)
		}
		if after := testutil.ToFloat64(httpRequestsInFlight); after != before {
			t.Errorf("Expected %v requests in flight after serving, got %v", before, after)
		}
	})

	t.Run("middleware counts requests per route", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		})
		route := "/workflows/{workflow_id}/runs/{run_id}/cancel"
		counter := httpRequestsTotal.WithLabelValues(http.MethodPost, route, "202")
		before := testutil.ToFloat64(counter)

		wrapped := Middleware(handler)
		wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/workflows/wf/runs/abc/cancel", nil))

		if got := testutil.ToFloat64(counter); got != before+1 {
			t.Errorf("Expected counter %v, got %v", before+1, got)
		}
	})

	t.Run("middleware keeps streams flushable", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			flusher, ok := w.(http.Flusher)
			if !ok {
				t.Fatal("Expected the wrapped writer to implement http.Flusher")
			}
			w.Write([]byte("event: WorkflowStarted\n\n"))
			flusher.Flush()
		})

		w := httptest.NewRecorder()
		Middleware(handler).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/workflows/wf/runs", nil))

		if !w.Flushed {
			t.Error("Expected the response to be flushed")
		}
	})
}

func TestRouteLabel(t *testing.T) {
	testCases := map[string]string{
		"/":                        "/",
		"/health":                  "/health",
		"/workflows":               "/workflows",
		"/workflows/wf":            "/workflows/{workflow_id}",
		"/workflows/wf/runs":       "/workflows/{workflow_id}/runs",
		"/workflows/wf/runs/1":     "/workflows/{workflow_id}/runs/{run_id}",
		"/workflows/wf/runs/1/x":   "/workflows/{workflow_id}/runs/{run_id}/cancel",
		"/workflows/wf/runs/1/x/y": "other",
		"/favicon.ico":             "other",
	}
	for path, want := range testCases {
		if got := routeLabel(path); got != want {
			t.Errorf("routeLabel(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestResponseWriter(t *testing.T) {
	t.Run("WriteHeader captures status code", func(t *testing.T) {
		w := httptest.NewRecorder()
		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		rw.WriteHeader(http.StatusInternalServerError)

		if rw.statusCode != http.StatusInternalServerError {
			t.Errorf("Expected status code %d, got %d", http.StatusInternalServerError, rw.statusCode)
		}

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected underlying writer status code %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})

	t.Run("default status code is OK", func(t *testing.T) {
		w := httptest.NewRecorder()
		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}
		_ = rw.ResponseWriter // ResponseWriter is required for struct validity but not used in this test

		if rw.statusCode != http.StatusOK {
			t.Errorf("Expected default status code %d, got %d", http.StatusOK, rw.statusCode)
		}
	})
}
