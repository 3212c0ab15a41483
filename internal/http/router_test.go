package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appplayers "sleeper-players-service/internal/app/players"
	"sleeper-players-service/internal/http/handlers"
	"sleeper-players-service/internal/providers/fixture"
)

func newTestRouter(t *testing.T, mcp http.Handler) http.Handler {
	t.Helper()
	reg := appplayers.NewRegistry(appplayers.NewService(appplayers.Options{
		Partition: "nfl",
		Provider:  fixture.New(),
	}))
	t.Cleanup(reg.Close)

	return NewRouter(RouterConfig{
		Handler: handlers.NewHandler(reg, nil),
		Admin:   handlers.NewAdminHandler(reg, "secret", nil),
		MCP:     mcp,
	})
}

func TestRouterRoutesKnownPaths(t *testing.T) {
	router := newTestRouter(t, nil)

	cases := []struct {
		path string
		want int
	}{
		{"/health", http.StatusOK},
		{"/players/nfl", http.StatusOK},
		{"/players/nfl/status", http.StatusOK},
		{"/players/nfl/4046", http.StatusOK},
		{"/players/nfl/missing", http.StatusNotFound},
		{"/players/mlb", http.StatusNotFound},
		{"/players/nfl/4046/name", http.StatusOK},
		{"/players/nfl/4046/position", http.StatusOK},
		{"/ready", http.StatusOK},
		{"/nope", http.StatusNotFound},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != tc.want {
			t.Fatalf("path %s: expected %d, got %d", tc.path, tc.want, rr.Code)
		}
	}
}

func TestRouterStatusIsNotAPlayerID(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/players/nfl/status", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if body := rr.Body.String(); !strings.Contains(body, `"state":"idle"`) {
		t.Fatalf("expected status body without triggering a load, got %s", body)
	}
}

func TestRouterAdminRoutes(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/players/nfl/refresh", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/admin/players/nfl/refresh", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/admin/players/nfl/cache", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on invalidate, got %d", rr.Code)
	}
}

func TestRouterMountsMCP(t *testing.T) {
	called := false
	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusAccepted)
	})
	router := newTestRouter(t, mcp)

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if !called || rr.Code != http.StatusAccepted {
		t.Fatalf("expected mcp handler to serve, called=%v code=%d", called, rr.Code)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/players/nfl", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard allow origin, got %q", got)
	}
}
